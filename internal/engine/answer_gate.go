package engine

import (
	"time"

	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/domain/secret"
	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/platform/metrics"
)

// pulseDuration is how long the wrong-answer feedback stays visible.
const pulseDuration = 500 * time.Millisecond

// AnswerGate wraps digest matching with transient error feedback for a
// single input slot. A rejected submission fires an error pulse that
// auto-clears; re-submitting while the pulse is active restarts its timer.
// No game-progress state is touched on rejection and retries are unlimited.
type AnswerGate struct {
	sched Scheduler

	pulseActive bool
	pulseTimer  Timer

	onChange func()
}

// NewAnswerGate creates a gate. onChange is invoked when the pulse
// auto-clears so observers see the cleared state.
func NewAnswerGate(sched Scheduler, onChange func()) *AnswerGate {
	return &AnswerGate{sched: sched, onChange: onChange}
}

// Submit checks the candidate against the digest. On acceptance the pulse
// is cleared and the caller performs its transition; on rejection the pulse
// starts (or restarts).
func (g *AnswerGate) Submit(candidate, digest string) bool {
	if secret.Matches(candidate, digest) {
		g.clearPulse()
		metrics.Get().RecordAnswer(true)
		return true
	}
	g.startPulse()
	metrics.Get().RecordAnswer(false)
	return false
}

// PulseActive reports whether the error feedback is currently showing.
func (g *AnswerGate) PulseActive() bool {
	return g.pulseActive
}

// Teardown cancels a pending pulse clear.
func (g *AnswerGate) Teardown() {
	if g.pulseTimer != nil {
		g.pulseTimer.Stop()
		g.pulseTimer = nil
	}
}

func (g *AnswerGate) startPulse() {
	if g.pulseTimer != nil {
		g.pulseTimer.Stop()
	}
	g.pulseActive = true
	g.pulseTimer = g.sched.AfterFunc(pulseDuration, func() {
		g.pulseTimer = nil
		g.pulseActive = false
		if g.onChange != nil {
			g.onChange()
		}
	})
}

func (g *AnswerGate) clearPulse() {
	g.Teardown()
	g.pulseActive = false
}
