// Package storage - postgres.go
// PostgreSQL implementation of EventRepository, for deployments where the
// telemetry ledger is shared with other tooling.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// OpenPostgres connects to PostgreSQL and creates the event ledger schema.
func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL,
			event_type TEXT NOT NULL,
			actor TEXT NOT NULL,
			step TEXT NOT NULL,
			payload JSONB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_events_session_id ON events(session_id);
		CREATE INDEX IF NOT EXISTS idx_events_event_type ON events(event_type);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create postgres schema: %w", err)
	}

	return db, nil
}

// PostgresEventRepository implements EventRepository using PostgreSQL.
type PostgresEventRepository struct {
	db *sql.DB
}

// NewPostgresEventRepository creates a new PostgreSQL event repository.
func NewPostgresEventRepository(db *sql.DB) *PostgresEventRepository {
	return &PostgresEventRepository{db: db}
}

// Append inserts a new event into the immutable ledger.
func (r *PostgresEventRepository) Append(ctx context.Context, event SessionEvent) error {
	payloadJSON, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	query := `
		INSERT INTO events (id, session_id, timestamp, event_type, actor, step, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.db.ExecContext(ctx, query,
		event.ID, event.SessionID, event.Timestamp, event.EventType,
		event.Actor, event.Step, payloadJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (r *PostgresEventRepository) getMany(ctx context.Context, query string, args ...interface{}) ([]SessionEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []SessionEvent
	for rows.Next() {
		var e SessionEvent
		var payloadBytes []byte
		err := rows.Scan(&e.ID, &e.SessionID, &e.Timestamp, &e.EventType, &e.Actor, &e.Step, &payloadBytes)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payloadBytes, &e.Payload); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// GetBySessionID retrieves all events for a session in append order.
func (r *PostgresEventRepository) GetBySessionID(ctx context.Context, sessionID string) ([]SessionEvent, error) {
	query := `SELECT id, session_id, timestamp, event_type, actor, step, payload FROM events WHERE session_id = $1 ORDER BY timestamp ASC`
	return r.getMany(ctx, query, sessionID)
}

// GetByEventType retrieves all events of a specific type.
func (r *PostgresEventRepository) GetByEventType(ctx context.Context, sessionID string, eventType string) ([]SessionEvent, error) {
	query := `SELECT id, session_id, timestamp, event_type, actor, step, payload FROM events WHERE session_id = $1 AND event_type = $2 ORDER BY timestamp ASC`
	return r.getMany(ctx, query, sessionID, eventType)
}
