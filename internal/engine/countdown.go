package engine

import (
	"fmt"
	"time"
)

// countdownTickRate is how often the gate re-evaluates while locked.
const countdownTickRate = 1 * time.Second

// CountdownView is the display-ready countdown state.
type CountdownView struct {
	Unlocked bool   `json:"unlocked"`
	Days     int    `json:"days"`
	Hours    int    `json:"hours"`
	Minutes  int    `json:"minutes"`
	Seconds  int    `json:"seconds"`
	Display  string `json:"display"`
}

// CountdownGate computes whether the experience is unlocked from a target
// instant. Unlocked is a monotonic latch: once true it never reverts and
// the repeating tick stops. A bypass flag forces the latch at construction.
type CountdownGate struct {
	sched    Scheduler
	target   time.Time
	unlocked bool

	tickTimer Timer
	onUnlock  func()
	onTick    func()
}

// NewCountdownGate creates the gate and evaluates it immediately, so a
// late-arriving observer never sees a falsely-locked state flash.
func NewCountdownGate(sched Scheduler, target time.Time, bypass bool) *CountdownGate {
	g := &CountdownGate{sched: sched, target: target}
	if bypass || !sched.Now().Before(target) {
		g.unlocked = true
	}
	return g
}

// Start begins the repeating tick while locked. onUnlock fires at most once,
// at the latch instant; onTick fires on every locked re-evaluation. Neither
// fires when the gate is already unlocked.
func (g *CountdownGate) Start(onUnlock, onTick func()) {
	g.onUnlock = onUnlock
	g.onTick = onTick
	if g.unlocked {
		return
	}
	g.armTick()
}

// Unlocked reports the latch state.
func (g *CountdownGate) Unlocked() bool {
	return g.unlocked
}

// Remaining returns the time left until unlock, zero once unlocked.
func (g *CountdownGate) Remaining() time.Duration {
	if g.unlocked {
		return 0
	}
	rem := g.target.Sub(g.sched.Now())
	if rem < 0 {
		return 0
	}
	return rem
}

// View decomposes the remaining time into days/hours/minutes/seconds using
// floor division, no rounding.
func (g *CountdownGate) View() CountdownView {
	if g.unlocked {
		return CountdownView{Unlocked: true, Display: "00:00:00:00"}
	}
	secs := int(g.Remaining() / time.Second)
	v := CountdownView{
		Days:    secs / 86400,
		Hours:   secs % 86400 / 3600,
		Minutes: secs % 3600 / 60,
		Seconds: secs % 60,
	}
	v.Display = fmt.Sprintf("%02d:%02d:%02d:%02d", v.Days, v.Hours, v.Minutes, v.Seconds)
	return v
}

// Teardown cancels the pending tick.
func (g *CountdownGate) Teardown() {
	if g.tickTimer != nil {
		g.tickTimer.Stop()
		g.tickTimer = nil
	}
}

func (g *CountdownGate) armTick() {
	g.tickTimer = g.sched.AfterFunc(countdownTickRate, g.tick)
}

func (g *CountdownGate) tick() {
	g.tickTimer = nil
	if g.unlocked {
		return
	}
	if !g.sched.Now().Before(g.target) {
		g.unlocked = true
		if g.onUnlock != nil {
			g.onUnlock()
		}
		return
	}
	if g.onTick != nil {
		g.onTick()
	}
	g.armTick()
}
