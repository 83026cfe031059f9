package storage

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/platform/metrics"
)

// BreakerEventRepository wraps an EventRepository with a circuit breaker.
// Telemetry writes are best-effort: when the database goes away the breaker
// opens and appends are shed instead of piling up behind a dead connection.
type BreakerEventRepository struct {
	inner   EventRepository
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerEventRepository wraps inner with a breaker that opens after five
// consecutive failures and probes again after 30 seconds.
func NewBreakerEventRepository(inner EventRepository) *BreakerEventRepository {
	settings := gobreaker.Settings{
		Name:    "event-ledger",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &BreakerEventRepository{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

func (r *BreakerEventRepository) Append(ctx context.Context, event SessionEvent) error {
	start := time.Now()
	_, err := r.breaker.Execute(func() (interface{}, error) {
		return nil, r.inner.Append(ctx, event)
	})
	metrics.Get().RecordEventWrite(time.Since(start), err)
	return err
}

func (r *BreakerEventRepository) GetBySessionID(ctx context.Context, sessionID string) ([]SessionEvent, error) {
	return r.inner.GetBySessionID(ctx, sessionID)
}

func (r *BreakerEventRepository) GetByEventType(ctx context.Context, sessionID string, eventType string) ([]SessionEvent, error) {
	return r.inner.GetByEventType(ctx, sessionID, eventType)
}
