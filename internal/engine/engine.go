package engine

import (
	"sync"
	"time"

	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/domain/experience"
	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/events"
	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/platform/logger"
)

// Config is the immutable static configuration the engine is built from.
// It is loaded once before the engine initializes; only digests are carried,
// never answer plaintext.
type Config struct {
	Cards             []experience.CardDefinition
	FinalAnswerDigest string
	UnlockAt          time.Time
	TestMode          bool
	CarouselWindow    int
}

// CardView is the presentation-facing shape of a card in the visible window.
type CardView struct {
	ID     int    `json:"id"`
	Asset  string `json:"asset"`
	Solved bool   `json:"solved"`
}

// Snapshot is the full read-only state emitted after every transition. The
// presentation layer renders it and forwards guest intents back as engine
// method calls; it never writes state directly.
type Snapshot struct {
	Step        string        `json:"step"`
	DisplayName string        `json:"display_name"`
	Countdown   CountdownView `json:"countdown"`

	CarouselStart int        `json:"carousel_start"`
	VisibleCards  []CardView `json:"visible_cards"`
	CanPrev       bool       `json:"can_prev"`
	CanNext       bool       `json:"can_next"`

	ActiveCardID    *int   `json:"active_card_id,omitempty"`
	CardPhase       string `json:"card_phase"`
	AnimationLocked bool   `json:"animation_locked"`

	CardErrorPulse  bool `json:"card_error_pulse"`
	FinalErrorPulse bool `json:"final_error_pulse"`

	SolvedCardIDs []int `json:"solved_card_ids"`
	TotalCards    int   `json:"total_cards"`
	FinalSolved   bool  `json:"final_solved"`
}

// Engine is the central orchestrator. It owns the step machine, serializes
// every mutation on one logical event-processing thread, and publishes a
// snapshot to its listeners after every change.
type Engine struct {
	mu       sync.Mutex
	sched    Scheduler
	eventLog *events.EventLog
	logger   *logger.Logger
	cfg      Config

	sm        *StepMachine
	listeners []func(Snapshot)
}

// New wires up the engine. When sched is nil a wall-clock scheduler is used,
// with every timer fire serialized through the engine's lock; tests pass a
// ManualScheduler instead.
func New(cfg Config, eventLog *events.EventLog, log *logger.Logger, sched Scheduler) *Engine {
	if cfg.CarouselWindow <= 0 {
		cfg.CarouselWindow = PageStep
	}
	e := &Engine{
		eventLog: eventLog,
		logger:   log,
		cfg:      cfg,
	}
	if sched == nil {
		sched = NewWallScheduler(e.runSerialized)
	}
	e.sched = sched
	e.sm = NewStepMachine(sched, eventLog, log, cfg, e.notify)
	return e
}

// Start begins the countdown tick and announces the session.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.logger.Info("Starting velada session engine...")
	e.sm.Start()
	e.notify()
}

// Subscribe registers a snapshot listener. Listeners run on the engine
// thread and must not call back into the engine.
func (e *Engine) Subscribe(fn func(Snapshot)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, fn)
}

// Advance forwards the guest's click on the HOME or START screen.
func (e *Engine) Advance() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sm.Advance()
}

// CommitName forwards the name submission from the NAME screen.
func (e *Engine) CommitName(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sm.CommitName(name)
}

// OpenCard forwards a card open intent.
func (e *Engine) OpenCard(cardID int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sm.OpenCard(cardID)
}

// CloseCard forwards a card close intent (unsolved, back to the carousel).
func (e *Engine) CloseCard() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sm.CloseCard()
}

// SubmitCardAnswer forwards an answer attempt for the open card.
func (e *Engine) SubmitCardAnswer(candidate string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sm.SubmitCardAnswer(candidate)
}

// CarouselPrev pages the card window backwards.
func (e *Engine) CarouselPrev() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sm.CarouselPrev()
}

// CarouselNext pages the card window forwards.
func (e *Engine) CarouselNext() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sm.CarouselNext()
}

// SubmitFinal forwards the final answer attempt on LIGHT_3.
func (e *Engine) SubmitFinal(candidate string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sm.SubmitFinal(candidate)
}

// Reset tears the session down and recreates it empty at HOME. Every armed
// timer is cancelled first so no stale fire can touch the new session.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sm.Teardown()
	e.eventLog.Append(events.SessionEvent{
		ID:        events.NewEventID(),
		Timestamp: e.sched.Now(),
		Type:      events.EventTypeSessionReset,
		Actor:     "SYSTEM",
		Step:      string(e.sm.Step()),
	})
	e.logger.Warn("Session reset. Rebuilding state machine from scratch.")

	e.sm = NewStepMachine(e.sched, e.eventLog, e.logger, e.cfg, e.notify)
	e.sm.Start()
	e.notify()
}

// Stop tears down all timers without rebuilding. Used on shutdown.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sm.Teardown()
	e.logger.Info("Session engine stopped.")
}

// Snapshot returns the current state for a late-arriving observer.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buildSnapshot()
}

// Step returns the active step.
func (e *Engine) Step() experience.Step {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sm.Step()
}

// runSerialized is the wall scheduler's dispatch: timer callbacks run under
// the same lock as guest intents, preserving the single-writer model.
func (e *Engine) runSerialized(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn()
}

// notify publishes the current snapshot. It runs on the engine thread,
// either under an intent call or inside a serialized timer fire.
func (e *Engine) notify() {
	snap := e.buildSnapshot()
	for _, fn := range e.listeners {
		fn(snap)
	}
}

func (e *Engine) buildSnapshot() Snapshot {
	sm := e.sm
	profile := sm.Profile()

	start, end := sm.Carousel().Bounds()
	visible := make([]CardView, 0, end-start)
	for _, c := range e.cfg.Cards[start:end] {
		visible = append(visible, CardView{ID: c.ID, Asset: c.Asset, Solved: profile.HasSolved(c.ID)})
	}

	snap := Snapshot{
		Step:        string(sm.Step()),
		DisplayName: profile.DisplayName,
		Countdown:   sm.Countdown().View(),

		CarouselStart: sm.Carousel().WindowStart(),
		VisibleCards:  visible,
		CanPrev:       sm.Carousel().CanPrev(),
		CanNext:       sm.Carousel().CanNext(),

		CardPhase:       string(sm.Cards().Phase()),
		AnimationLocked: sm.Cards().Locked(),
		CardErrorPulse:  sm.Cards().PulseActive(),
		FinalErrorPulse: sm.FinalPulseActive(),

		SolvedCardIDs: profile.SolvedIDs(),
		TotalCards:    len(e.cfg.Cards),
		FinalSolved:   profile.FinalSolved,
	}
	if id, ok := sm.Cards().ActiveCard(); ok {
		snap.ActiveCardID = &id
	}
	return snap
}
