package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// SQLiteEventRepository implements EventRepository for SQLite.
type SQLiteEventRepository struct {
	db *sql.DB
}

func NewSQLiteEventRepository(db *sql.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: db}
}

func (r *SQLiteEventRepository) Append(ctx context.Context, event SessionEvent) error {
	payloadBytes, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	query := `
		INSERT INTO events (id, session_id, timestamp, event_type, actor, step, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		event.ID, event.SessionID, event.Timestamp, event.EventType,
		event.Actor, event.Step, string(payloadBytes),
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (r *SQLiteEventRepository) getMany(ctx context.Context, query string, args ...interface{}) ([]SessionEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []SessionEvent
	for rows.Next() {
		var e SessionEvent
		var payloadStr string
		err := rows.Scan(&e.ID, &e.SessionID, &e.Timestamp, &e.EventType, &e.Actor, &e.Step, &payloadStr)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payloadStr), &e.Payload); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *SQLiteEventRepository) GetBySessionID(ctx context.Context, sessionID string) ([]SessionEvent, error) {
	query := `SELECT id, session_id, timestamp, event_type, actor, step, payload FROM events WHERE session_id = ? ORDER BY timestamp ASC`
	return r.getMany(ctx, query, sessionID)
}

func (r *SQLiteEventRepository) GetByEventType(ctx context.Context, sessionID string, eventType string) ([]SessionEvent, error) {
	query := `SELECT id, session_id, timestamp, event_type, actor, step, payload FROM events WHERE session_id = ? AND event_type = ? ORDER BY timestamp ASC`
	return r.getMany(ctx, query, sessionID, eventType)
}

// ---------------------------------------------------------
// SQLiteSnapshotRepository
// ---------------------------------------------------------

type SQLiteSnapshotRepository struct {
	db *sql.DB
}

func NewSQLiteSnapshotRepository(db *sql.DB) *SQLiteSnapshotRepository {
	return &SQLiteSnapshotRepository{db: db}
}

func (r *SQLiteSnapshotRepository) Upsert(ctx context.Context, snapshot SessionSnapshot) error {
	solvedJSON, err := json.Marshal(snapshot.SolvedIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal solved ids: %w", err)
	}

	query := `
		INSERT INTO sessions (session_id, display_name, step, solved_count, solved_ids, final_solved, unlocked, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			display_name=excluded.display_name,
			step=excluded.step,
			solved_count=excluded.solved_count,
			solved_ids=excluded.solved_ids,
			final_solved=excluded.final_solved,
			unlocked=excluded.unlocked,
			last_updated=excluded.last_updated
	`
	_, err = r.db.ExecContext(ctx, query,
		snapshot.SessionID, snapshot.DisplayName, snapshot.Step, snapshot.SolvedCount,
		string(solvedJSON), snapshot.FinalSolved, snapshot.Unlocked, time.Now(),
	)
	return err
}

func (r *SQLiteSnapshotRepository) GetBySessionID(ctx context.Context, sessionID string) (*SessionSnapshot, error) {
	query := `SELECT session_id, display_name, step, solved_count, solved_ids, final_solved, unlocked, last_updated FROM sessions WHERE session_id = ?`
	var s SessionSnapshot
	var solvedStr string
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(
		&s.SessionID, &s.DisplayName, &s.Step, &s.SolvedCount, &solvedStr, &s.FinalSolved, &s.Unlocked, &s.LastUpdated,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(solvedStr), &s.SolvedIDs); err != nil {
		return nil, err
	}
	return &s, nil
}
