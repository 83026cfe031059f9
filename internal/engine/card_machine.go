package engine

import (
	"time"

	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/domain/experience"
	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/events"
	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/platform/logger"
	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/platform/metrics"
)

const (
	// cardStageDelay models one animation stage: the move/scale to the
	// fullscreen position on open, or the shrink back to the carousel slot
	// on close. The flip must not start before the expand motion completes.
	cardStageDelay = 600 * time.Millisecond

	// completePause is the beat between the last solved card closing and
	// the finale beginning.
	completePause = 800 * time.Millisecond
)

// CardInteractionMachine drives the per-card animation state machine:
// CLOSED -> EXPANDING -> FLIPPED on open, FLIPPED -> COLLAPSING -> CLOSED on
// close. A single animationLocked flag guards against re-entrant triggers;
// calls while locked are dropped, never queued. At most one card is open at
// a time.
type CardInteractionMachine struct {
	sched    Scheduler
	eventLog *events.EventLog
	logger   *logger.Logger

	cards   map[int]experience.CardDefinition
	total   int
	profile *experience.Profile
	gate    *AnswerGate

	active       bool
	activeCardID int
	phase        experience.Phase
	locked       bool

	stageTimer    Timer
	completeTimer Timer

	onChange   func()
	onComplete func() // every card solved; fires completePause after the last close
}

// NewCardInteractionMachine creates the machine over the configured cards.
// The profile owns the solved set; this machine is its only writer.
func NewCardInteractionMachine(sched Scheduler, eventLog *events.EventLog, log *logger.Logger,
	cards []experience.CardDefinition, profile *experience.Profile,
	onChange, onComplete func()) *CardInteractionMachine {

	byID := make(map[int]experience.CardDefinition, len(cards))
	for _, c := range cards {
		byID[c.ID] = c
	}
	m := &CardInteractionMachine{
		sched:      sched,
		eventLog:   eventLog,
		logger:     log,
		cards:      byID,
		total:      len(cards),
		profile:    profile,
		phase:      experience.PhaseClosed,
		onChange:   onChange,
		onComplete: onComplete,
	}
	m.gate = NewAnswerGate(sched, onChange)
	return m
}

// Open starts the expand-then-flip sequence for cardID. Dropped when the
// machine is locked, another card is active, or the card is already solved.
func (m *CardInteractionMachine) Open(cardID int) bool {
	if m.locked || m.active {
		m.drop("open while busy")
		return false
	}
	if m.profile.HasSolved(cardID) {
		m.drop("open of solved card")
		return false
	}
	if _, ok := m.cards[cardID]; !ok {
		m.drop("open of unknown card")
		return false
	}

	m.locked = true
	m.active = true
	m.activeCardID = cardID
	m.phase = experience.PhaseExpanding
	m.emit(events.EventTypeCardOpened, map[string]int{"card_id": cardID})

	m.stageTimer = m.sched.AfterFunc(cardStageDelay, func() {
		m.phase = experience.PhaseFlipped
		m.onChange()
		m.stageTimer = m.sched.AfterFunc(cardStageDelay, func() {
			m.stageTimer = nil
			m.locked = false
			m.onChange()
		})
	})
	m.onChange()
	return true
}

// Close starts the collapse sequence. The solved flag commits at the
// close-commit instant, when the card lands back in its slot. Dropped while
// locked, which also prevents a double-submitted answer from firing two
// close sequences.
func (m *CardInteractionMachine) Close(solved bool) bool {
	if m.locked || !m.active {
		m.drop("close while busy or no card open")
		return false
	}

	cardID := m.activeCardID
	m.locked = true
	m.phase = experience.PhaseCollapsing
	m.emit(events.EventTypeCardClosed, map[string]interface{}{"card_id": cardID, "solved": solved})

	m.stageTimer = m.sched.AfterFunc(cardStageDelay, func() {
		m.stageTimer = nil
		m.phase = experience.PhaseClosed
		m.active = false
		m.activeCardID = 0
		m.locked = false

		if solved {
			if m.profile.MarkSolved(cardID) {
				m.emit(events.EventTypeCardSolved, map[string]int{
					"card_id": cardID,
					"solved":  m.profile.SolvedCount(),
				})
			}
			if m.profile.SolvedCount() == m.total && m.completeTimer == nil {
				m.completeTimer = m.sched.AfterFunc(completePause, func() {
					m.completeTimer = nil
					m.onComplete()
				})
			}
		}
		m.onChange()
	})
	m.onChange()
	return true
}

// SubmitAnswer checks the candidate against the active card's digest while
// FLIPPED. Acceptance closes the card as solved; rejection only fires the
// error pulse and the card stays open.
func (m *CardInteractionMachine) SubmitAnswer(candidate string) bool {
	if m.locked || !m.active || m.phase != experience.PhaseFlipped {
		m.drop("answer outside flipped phase")
		return false
	}
	card := m.cards[m.activeCardID]
	if m.gate.Submit(candidate, card.AnswerDigest) {
		m.emit(events.EventTypeAnswerAccepted, map[string]int{"card_id": card.ID})
		m.Close(true)
		return true
	}
	m.emit(events.EventTypeAnswerRejected, map[string]int{"card_id": card.ID})
	m.onChange()
	return false
}

// ActiveCard returns the open card id, if any.
func (m *CardInteractionMachine) ActiveCard() (int, bool) {
	return m.activeCardID, m.active
}

// Phase returns the current animation phase.
func (m *CardInteractionMachine) Phase() experience.Phase {
	return m.phase
}

// Locked reports whether an animation stage is in flight.
func (m *CardInteractionMachine) Locked() bool {
	return m.locked
}

// PulseActive reports the card input slot's error feedback state.
func (m *CardInteractionMachine) PulseActive() bool {
	return m.gate.PulseActive()
}

// Teardown cancels every pending stage so no stale fire mutates a reset
// session.
func (m *CardInteractionMachine) Teardown() {
	if m.stageTimer != nil {
		m.stageTimer.Stop()
		m.stageTimer = nil
	}
	if m.completeTimer != nil {
		m.completeTimer.Stop()
		m.completeTimer = nil
	}
	m.gate.Teardown()
}

func (m *CardInteractionMachine) drop(reason string) {
	metrics.Get().RecordGuardDrop()
	m.logger.Warn("Card interaction dropped: " + reason)
}

func (m *CardInteractionMachine) emit(t events.EventType, payload interface{}) {
	m.eventLog.Append(events.SessionEvent{
		ID:        events.NewEventID(),
		Timestamp: m.sched.Now(),
		Type:      t,
		Actor:     "GUEST",
		Step:      string(experience.StepCarousel),
		Payload:   payload,
	})
}
