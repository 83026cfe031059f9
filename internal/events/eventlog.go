// Package events provides the append-only session event log.
// Every transition, answer attempt, and unlock leaves an immutable record
// here; the replay endpoint and the telemetry store read from it.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of a session event.
type EventType string

const (
	EventTypeStepChanged       EventType = "STEP_CHANGED"
	EventTypeCountdownUnlocked EventType = "COUNTDOWN_UNLOCKED"
	EventTypeNameCommitted     EventType = "NAME_COMMITTED"
	EventTypeCardOpened        EventType = "CARD_OPENED"
	EventTypeCardClosed        EventType = "CARD_CLOSED"
	EventTypeCardSolved        EventType = "CARD_SOLVED"
	EventTypeAnswerAccepted    EventType = "ANSWER_ACCEPTED"
	EventTypeAnswerRejected    EventType = "ANSWER_REJECTED"
	EventTypeSessionReset      EventType = "SESSION_RESET"
)

// SessionEvent is an immutable record of something that happened in the
// experience. Payloads carry card ids and step names, never answer text.
type SessionEvent struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Type      EventType   `json:"type"`
	Actor     string      `json:"actor"` // "GUEST" or "SYSTEM"
	Step      string      `json:"step"`  // step active when the event fired
	Payload   interface{} `json:"payload,omitempty"`
}

// EventPersister defines how an event is durably stored.
type EventPersister interface {
	Append(event SessionEvent) error
}

// EventLog is the in-memory append-only log for the running session.
// Persistence is write-through and best-effort: a failing persister must
// never stall the experience.
type EventLog struct {
	mu        sync.RWMutex
	events    []SessionEvent
	persister EventPersister
}

// NewEventLog creates a new event log with an optional persister.
func NewEventLog(persister EventPersister) *EventLog {
	return &EventLog{
		events:    make([]SessionEvent, 0),
		persister: persister,
	}
}

// Append adds a new event to the log. Events are immutable once appended.
func (el *EventLog) Append(event SessionEvent) {
	el.mu.Lock()
	el.events = append(el.events, event)
	el.mu.Unlock()

	if el.persister != nil {
		go func(e SessionEvent) {
			_ = el.persister.Append(e)
		}(event)
	}
}

// GetByType returns all events of a specific type, in append order.
func (el *EventLog) GetByType(t EventType) []SessionEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []SessionEvent
	for _, e := range el.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// Replay returns the full session history.
func (el *EventLog) Replay() []SessionEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	out := make([]SessionEvent, len(el.events))
	copy(out, el.events)
	return out
}

// Len returns the number of appended events.
func (el *EventLog) Len() int {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return len(el.events)
}

// NewEventID creates a unique event identifier.
func NewEventID() string {
	return uuid.NewString()
}
