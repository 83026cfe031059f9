// Package storage provides the persistence layer for session telemetry.
// This package implements the repository pattern to keep the domain pure.
// Persistence is audit/telemetry only: the experience itself is recreated
// empty on every load.
package storage

import (
	"context"
	"time"
)

// SessionEvent mirrors the domain event structure for persistence.
// The domain package should NOT import this; use interfaces instead.
type SessionEvent struct {
	ID        string                 `json:"id" db:"id"`
	SessionID string                 `json:"session_id" db:"session_id"`
	Timestamp time.Time              `json:"timestamp" db:"timestamp"`
	EventType string                 `json:"event_type" db:"event_type"`
	Actor     string                 `json:"actor" db:"actor"`
	Step      string                 `json:"step" db:"step"`
	Payload   map[string]interface{} `json:"payload" db:"payload"`
}

// EventRepository defines the interface for event persistence.
type EventRepository interface {
	// Append adds a new event to the immutable ledger.
	Append(ctx context.Context, event SessionEvent) error

	// GetBySessionID retrieves all events for a session (for replay export).
	GetBySessionID(ctx context.Context, sessionID string) ([]SessionEvent, error)

	// GetByEventType retrieves all events of a specific type.
	GetByEventType(ctx context.Context, sessionID string, eventType string) ([]SessionEvent, error)
}

// SessionSnapshot is the current progress of a session for quick operator reads.
type SessionSnapshot struct {
	SessionID   string    `json:"session_id" db:"session_id"`
	DisplayName string    `json:"display_name" db:"display_name"`
	Step        string    `json:"step" db:"step"`
	SolvedCount int       `json:"solved_count" db:"solved_count"`
	SolvedIDs   []int     `json:"solved_ids" db:"solved_ids"`
	FinalSolved bool      `json:"final_solved" db:"final_solved"`
	Unlocked    bool      `json:"unlocked" db:"unlocked"`
	LastUpdated time.Time `json:"last_updated" db:"last_updated"`
}

// SnapshotRepository defines the interface for session progress snapshots.
type SnapshotRepository interface {
	// Upsert updates or inserts a session snapshot.
	Upsert(ctx context.Context, snapshot SessionSnapshot) error

	// GetBySessionID retrieves a specific session's snapshot.
	GetBySessionID(ctx context.Context, sessionID string) (*SessionSnapshot, error)
}
