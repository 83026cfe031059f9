package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := InitSQLite(filepath.Join(t.TempDir(), "velada_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestEventAppendAndReplay(t *testing.T) {
	repo := NewSQLiteEventRepository(testDB(t))
	ctx := context.Background()

	base := time.Date(2026, time.June, 13, 20, 0, 0, 0, time.UTC)
	for i, eventType := range []string{"STEP_CHANGED", "CARD_OPENED", "CARD_SOLVED"} {
		err := repo.Append(ctx, SessionEvent{
			ID:        string(rune('a' + i)),
			SessionID: "VELADA_1",
			Timestamp: base.Add(time.Duration(i) * time.Second),
			EventType: eventType,
			Actor:     "GUEST",
			Step:      "CAROUSEL",
			Payload:   map[string]interface{}{"card_id": float64(i)},
		})
		require.NoError(t, err)
	}

	got, err := repo.GetBySessionID(ctx, "VELADA_1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "STEP_CHANGED", got[0].EventType)
	assert.Equal(t, "CARD_SOLVED", got[2].EventType)
	assert.Equal(t, float64(2), got[2].Payload["card_id"])
}

func TestEventFilterByType(t *testing.T) {
	repo := NewSQLiteEventRepository(testDB(t))
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, repo.Append(ctx, SessionEvent{ID: "1", SessionID: "VELADA_1", Timestamp: now, EventType: "CARD_OPENED", Actor: "GUEST", Step: "CAROUSEL"}))
	require.NoError(t, repo.Append(ctx, SessionEvent{ID: "2", SessionID: "VELADA_1", Timestamp: now, EventType: "CARD_SOLVED", Actor: "GUEST", Step: "CAROUSEL"}))

	solved, err := repo.GetByEventType(ctx, "VELADA_1", "CARD_SOLVED")
	require.NoError(t, err)
	require.Len(t, solved, 1)
	assert.Equal(t, "2", solved[0].ID)
}

func TestEventsAreScopedBySession(t *testing.T) {
	repo := NewSQLiteEventRepository(testDB(t))
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, repo.Append(ctx, SessionEvent{ID: "1", SessionID: "VELADA_1", Timestamp: now, EventType: "STEP_CHANGED", Actor: "SYSTEM", Step: "HOME"}))
	require.NoError(t, repo.Append(ctx, SessionEvent{ID: "2", SessionID: "REHEARSAL", Timestamp: now, EventType: "STEP_CHANGED", Actor: "SYSTEM", Step: "HOME"}))

	got, err := repo.GetBySessionID(ctx, "VELADA_1")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSnapshotUpsertRoundTrip(t *testing.T) {
	repo := NewSQLiteSnapshotRepository(testDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, SessionSnapshot{
		SessionID:   "VELADA_1",
		DisplayName: "Ana",
		Step:        "CAROUSEL",
		SolvedCount: 2,
		SolvedIDs:   []int{3, 1},
		Unlocked:    true,
	}))

	// Second upsert overwrites the row instead of failing.
	require.NoError(t, repo.Upsert(ctx, SessionSnapshot{
		SessionID:   "VELADA_1",
		DisplayName: "Ana",
		Step:        "LIGHT_3",
		SolvedCount: 3,
		SolvedIDs:   []int{3, 1, 2},
		FinalSolved: false,
		Unlocked:    true,
	}))

	got, err := repo.GetBySessionID(ctx, "VELADA_1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "LIGHT_3", got.Step)
	assert.Equal(t, []int{3, 1, 2}, got.SolvedIDs, "solved order survives the round trip")
	assert.False(t, got.FinalSolved)
}

func TestSnapshotMissingSessionReturnsNil(t *testing.T) {
	repo := NewSQLiteSnapshotRepository(testDB(t))

	got, err := repo.GetBySessionID(context.Background(), "NOBODY")
	require.NoError(t, err)
	assert.Nil(t, got)
}
