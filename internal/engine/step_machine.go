package engine

import (
	"strings"
	"time"

	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/domain/experience"
	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/events"
	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/platform/logger"
	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/platform/metrics"
)

const (
	// nameFadeDelay is the fade between committing the name and the
	// carousel appearing. The profile name commits before the fade starts.
	nameFadeDelay = 1000 * time.Millisecond

	light1Delay = 2500 * time.Millisecond
	light2Delay = 1200 * time.Millisecond
	light4Delay = 1200 * time.Millisecond
)

// StepMachine is the top-level state machine over the whole experience:
// HOME -> START -> NAME -> CAROUSEL -> LIGHT_1..LIGHT_4 -> END. Transitions
// only occur along the permitted edge set; LIGHT_3 is the only input-gated
// finale step, everything else in the finale auto-advances on a timer.
type StepMachine struct {
	sched    Scheduler
	eventLog *events.EventLog
	logger   *logger.Logger

	step    experience.Step
	profile *experience.Profile

	countdown *CountdownGate
	carousel  *CarouselNavigator
	cards     *CardInteractionMachine
	finalGate *AnswerGate

	finalDigest string

	// At most one auto-advance is pending; pendingFor records the step it
	// was armed in so a re-entered step entry cannot double-arm.
	pendingTimer Timer
	pendingFor   experience.Step

	torn     bool
	onChange func()
}

// NewStepMachine builds the machine and its owned sub-machines. The session
// starts at HOME with an empty profile.
func NewStepMachine(sched Scheduler, eventLog *events.EventLog, log *logger.Logger,
	cfg Config, onChange func()) *StepMachine {

	sm := &StepMachine{
		sched:       sched,
		eventLog:    eventLog,
		logger:      log,
		step:        experience.StepHome,
		profile:     experience.NewProfile(),
		finalDigest: cfg.FinalAnswerDigest,
		onChange:    onChange,
	}
	sm.countdown = NewCountdownGate(sched, cfg.UnlockAt, cfg.TestMode)
	sm.carousel = NewCarouselNavigator(len(cfg.Cards), cfg.CarouselWindow)
	sm.cards = NewCardInteractionMachine(sched, eventLog, log, cfg.Cards, sm.profile,
		onChange, func() { sm.transition(experience.StepLight1) })
	sm.finalGate = NewAnswerGate(sched, onChange)
	return sm
}

// Start begins the countdown tick. Must be called once after construction.
func (sm *StepMachine) Start() {
	sm.countdown.Start(func() {
		sm.emit(events.EventTypeCountdownUnlocked, "SYSTEM", nil)
		sm.logger.Info("Countdown expired. The velada is unlocked.")
		sm.onChange()
	}, sm.onChange)
}

// Advance handles the guest's click on HOME (gated on the countdown latch)
// and START. Anywhere else the click is dropped.
func (sm *StepMachine) Advance() bool {
	switch sm.step {
	case experience.StepHome:
		if !sm.countdown.Unlocked() {
			sm.drop("advance while still locked")
			return false
		}
		return sm.transition(experience.StepStart)
	case experience.StepStart:
		return sm.transition(experience.StepName)
	default:
		sm.drop("advance outside HOME/START")
		return false
	}
}

// CommitName stores the trimmed display name and begins the fade into the
// carousel. Empty or whitespace-only names are silently ignored; a commit
// while the fade is already running is dropped.
func (sm *StepMachine) CommitName(name string) bool {
	if sm.step != experience.StepName {
		sm.drop("name commit outside NAME")
		return false
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return false
	}
	if sm.pendingTimer != nil {
		sm.drop("name commit while fade pending")
		return false
	}

	sm.profile.DisplayName = trimmed
	sm.emit(events.EventTypeNameCommitted, "GUEST", map[string]string{"display_name": trimmed})
	sm.pendingFor = sm.step
	sm.pendingTimer = sm.sched.AfterFunc(nameFadeDelay, func() {
		sm.pendingTimer = nil
		sm.transition(experience.StepCarousel)
	})
	sm.onChange()
	return true
}

// OpenCard delegates to the card machine while in the carousel.
func (sm *StepMachine) OpenCard(cardID int) bool {
	if sm.step != experience.StepCarousel {
		sm.drop("card open outside CAROUSEL")
		return false
	}
	return sm.cards.Open(cardID)
}

// CloseCard closes the open card unsolved, returning it to its slot.
func (sm *StepMachine) CloseCard() bool {
	if sm.step != experience.StepCarousel {
		sm.drop("card close outside CAROUSEL")
		return false
	}
	return sm.cards.Close(false)
}

// SubmitCardAnswer checks the candidate against the open card.
func (sm *StepMachine) SubmitCardAnswer(candidate string) bool {
	if sm.step != experience.StepCarousel {
		sm.drop("card answer outside CAROUSEL")
		return false
	}
	return sm.cards.SubmitAnswer(candidate)
}

// CarouselPrev pages the card window backwards.
func (sm *StepMachine) CarouselPrev() bool {
	if sm.step != experience.StepCarousel {
		return false
	}
	if sm.carousel.Prev() {
		sm.onChange()
		return true
	}
	return false
}

// CarouselNext pages the card window forwards.
func (sm *StepMachine) CarouselNext() bool {
	if sm.step != experience.StepCarousel {
		return false
	}
	if sm.carousel.Next() {
		sm.onChange()
		return true
	}
	return false
}

// SubmitFinal checks the final answer on LIGHT_3. Acceptance advances to
// LIGHT_4; rejection fires the gate's error pulse and nothing else changes.
func (sm *StepMachine) SubmitFinal(candidate string) bool {
	if sm.step != experience.StepLight3 {
		sm.drop("final answer outside LIGHT_3")
		return false
	}
	if !sm.finalGate.Submit(candidate, sm.finalDigest) {
		sm.emit(events.EventTypeAnswerRejected, "GUEST", map[string]bool{"final": true})
		sm.onChange()
		return false
	}
	sm.profile.FinalSolved = true
	sm.emit(events.EventTypeAnswerAccepted, "GUEST", map[string]bool{"final": true})
	return sm.transition(experience.StepLight4)
}

// Step returns the active step.
func (sm *StepMachine) Step() experience.Step {
	return sm.step
}

// Profile returns the owned session profile. Callers must treat it as
// read-only; all mutation goes through the machines.
func (sm *StepMachine) Profile() *experience.Profile {
	return sm.profile
}

// Countdown exposes the gate for snapshot building.
func (sm *StepMachine) Countdown() *CountdownGate {
	return sm.countdown
}

// Carousel exposes the navigator for snapshot building.
func (sm *StepMachine) Carousel() *CarouselNavigator {
	return sm.carousel
}

// Cards exposes the card machine for snapshot building.
func (sm *StepMachine) Cards() *CardInteractionMachine {
	return sm.cards
}

// FinalPulseActive reports the final input slot's error feedback state.
func (sm *StepMachine) FinalPulseActive() bool {
	return sm.finalGate.PulseActive()
}

// Teardown cancels every armed timer across the machine and its children.
// A fire scheduled before teardown must never transition afterwards.
func (sm *StepMachine) Teardown() {
	sm.torn = true
	if sm.pendingTimer != nil {
		sm.pendingTimer.Stop()
		sm.pendingTimer = nil
	}
	sm.cards.Teardown()
	sm.finalGate.Teardown()
	sm.countdown.Teardown()
}

// transition moves to the next step along a permitted edge and arms that
// step's auto-advance, if it has one.
func (sm *StepMachine) transition(to experience.Step) bool {
	if sm.torn {
		return false
	}
	if !experience.CanTransition(sm.step, to) {
		sm.logger.Error("Rejected transition " + string(sm.step) + " -> " + string(to))
		return false
	}
	from := sm.step
	sm.step = to
	metrics.Get().RecordTransition()
	sm.emit(events.EventTypeStepChanged, "SYSTEM", map[string]string{
		"from": string(from),
		"to":   string(to),
	})
	sm.logger.Event("STEP_CHANGED", "SYSTEM", string(from)+" -> "+string(to))
	sm.enterStep(to)
	sm.onChange()
	return true
}

// enterStep arms the timed auto-advance for steps that have one. The
// pendingFor guard keeps a re-run of the same step entry from arming twice.
func (sm *StepMachine) enterStep(to experience.Step) {
	var next experience.Step
	var delay time.Duration
	switch to {
	case experience.StepLight1:
		next, delay = experience.StepLight2, light1Delay
	case experience.StepLight2:
		next, delay = experience.StepLight3, light2Delay
	case experience.StepLight4:
		next, delay = experience.StepEnd, light4Delay
	default:
		return
	}
	if sm.pendingTimer != nil && sm.pendingFor == to {
		sm.drop("auto-advance already armed for " + string(to))
		return
	}
	if sm.pendingTimer != nil {
		sm.pendingTimer.Stop()
	}
	sm.pendingFor = to
	sm.pendingTimer = sm.sched.AfterFunc(delay, func() {
		sm.pendingTimer = nil
		sm.transition(next)
	})
}

func (sm *StepMachine) drop(reason string) {
	metrics.Get().RecordGuardDrop()
	sm.logger.Warn("Intent dropped: " + reason)
}

func (sm *StepMachine) emit(t events.EventType, actor string, payload interface{}) {
	sm.eventLog.Append(events.SessionEvent{
		ID:        events.NewEventID(),
		Timestamp: sm.sched.Now(),
		Type:      t,
		Actor:     actor,
		Step:      string(sm.step),
		Payload:   payload,
	})
}
