// Package metrics provides observability for the velada server.
package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Collector gathers performance and progression metrics.
type Collector struct {
	// Session progression
	StepTransitions int64
	AnswersAccepted int64
	AnswersRejected int64
	GuardDrops      int64
	SessionResets   int64

	// Event persistence
	EventsWritten    int64
	EventWriteLatSum int64 // nanoseconds
	EventWriteLatMax int64
	EventWriteErrors int64

	// WebSocket metrics
	WSConnectionsActive int64
	WSMessagesIn        int64
	WSMessagesOut       int64
	WSErrors            int64

	// System
	StartTime time.Time
	mu        sync.RWMutex
}

// Global collector instance
var collector = &Collector{
	StartTime: time.Now(),
}

// Get returns the global collector.
func Get() *Collector {
	return collector
}

// RecordTransition records a step transition.
func (c *Collector) RecordTransition() {
	atomic.AddInt64(&c.StepTransitions, 1)
}

// RecordAnswer records an answer attempt outcome.
func (c *Collector) RecordAnswer(accepted bool) {
	if accepted {
		atomic.AddInt64(&c.AnswersAccepted, 1)
	} else {
		atomic.AddInt64(&c.AnswersRejected, 1)
	}
}

// RecordGuardDrop records an intent dropped by a guard lock.
func (c *Collector) RecordGuardDrop() {
	atomic.AddInt64(&c.GuardDrops, 1)
}

// RecordReset records a session reset.
func (c *Collector) RecordReset() {
	atomic.AddInt64(&c.SessionResets, 1)
}

// RecordEventWrite records an event write to the database.
func (c *Collector) RecordEventWrite(latency time.Duration, err error) {
	atomic.AddInt64(&c.EventsWritten, 1)
	atomic.AddInt64(&c.EventWriteLatSum, int64(latency))

	if int64(latency) > atomic.LoadInt64(&c.EventWriteLatMax) {
		atomic.StoreInt64(&c.EventWriteLatMax, int64(latency))
	}

	if err != nil {
		atomic.AddInt64(&c.EventWriteErrors, 1)
	}
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int64) {
	atomic.AddInt64(&c.WSConnectionsActive, delta)
}

// RecordWSMessage records WebSocket messages.
func (c *Collector) RecordWSMessage(incoming bool) {
	if incoming {
		atomic.AddInt64(&c.WSMessagesIn, 1)
	} else {
		atomic.AddInt64(&c.WSMessagesOut, 1)
	}
}

// RecordWSError records a WebSocket error.
func (c *Collector) RecordWSError() {
	atomic.AddInt64(&c.WSErrors, 1)
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	eventsWritten := atomic.LoadInt64(&c.EventsWritten)
	var eventAvg float64
	if eventsWritten > 0 {
		eventAvg = float64(atomic.LoadInt64(&c.EventWriteLatSum)) / float64(eventsWritten) / 1e6 // ms
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),

		"session": map[string]interface{}{
			"step_transitions": atomic.LoadInt64(&c.StepTransitions),
			"answers_accepted": atomic.LoadInt64(&c.AnswersAccepted),
			"answers_rejected": atomic.LoadInt64(&c.AnswersRejected),
			"guard_drops":      atomic.LoadInt64(&c.GuardDrops),
			"resets":           atomic.LoadInt64(&c.SessionResets),
		},

		"events": map[string]interface{}{
			"written":          eventsWritten,
			"avg_write_lat_ms": eventAvg,
			"max_write_lat_ms": float64(atomic.LoadInt64(&c.EventWriteLatMax)) / 1e6,
			"errors":           atomic.LoadInt64(&c.EventWriteErrors),
		},

		"websocket": map[string]interface{}{
			"active_connections": atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_in":        atomic.LoadInt64(&c.WSMessagesIn),
			"messages_out":       atomic.LoadInt64(&c.WSMessagesOut),
			"errors":             atomic.LoadInt64(&c.WSErrors),
		},
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")

		snapshot := collector.Snapshot()
		json.NewEncoder(w).Encode(snapshot)
	}
}

// PrometheusHandler returns metrics in Prometheus format.
func PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		c := collector

		fmt.Fprintf(w, "# HELP velada_step_transitions Total step transitions\n")
		fmt.Fprintf(w, "# TYPE velada_step_transitions counter\n")
		fmt.Fprintf(w, "velada_step_transitions %d\n\n", atomic.LoadInt64(&c.StepTransitions))

		fmt.Fprintf(w, "# HELP velada_answers_total Total answer attempts\n")
		fmt.Fprintf(w, "# TYPE velada_answers_total counter\n")
		fmt.Fprintf(w, "velada_answers_total{outcome=\"accepted\"} %d\n", atomic.LoadInt64(&c.AnswersAccepted))
		fmt.Fprintf(w, "velada_answers_total{outcome=\"rejected\"} %d\n\n", atomic.LoadInt64(&c.AnswersRejected))

		fmt.Fprintf(w, "# HELP velada_guard_drops Intents dropped by guard locks\n")
		fmt.Fprintf(w, "# TYPE velada_guard_drops counter\n")
		fmt.Fprintf(w, "velada_guard_drops %d\n\n", atomic.LoadInt64(&c.GuardDrops))

		fmt.Fprintf(w, "# HELP velada_events_written Total events written\n")
		fmt.Fprintf(w, "# TYPE velada_events_written counter\n")
		fmt.Fprintf(w, "velada_events_written %d\n\n", atomic.LoadInt64(&c.EventsWritten))

		fmt.Fprintf(w, "# HELP velada_event_write_errors Total event write errors\n")
		fmt.Fprintf(w, "# TYPE velada_event_write_errors counter\n")
		fmt.Fprintf(w, "velada_event_write_errors %d\n\n", atomic.LoadInt64(&c.EventWriteErrors))

		fmt.Fprintf(w, "# HELP velada_ws_connections Active WebSocket connections\n")
		fmt.Fprintf(w, "# TYPE velada_ws_connections gauge\n")
		fmt.Fprintf(w, "velada_ws_connections %d\n\n", atomic.LoadInt64(&c.WSConnectionsActive))

		fmt.Fprintf(w, "# HELP velada_ws_messages_total Total WebSocket messages\n")
		fmt.Fprintf(w, "# TYPE velada_ws_messages_total counter\n")
		fmt.Fprintf(w, "velada_ws_messages_total{direction=\"in\"} %d\n", atomic.LoadInt64(&c.WSMessagesIn))
		fmt.Fprintf(w, "velada_ws_messages_total{direction=\"out\"} %d\n", atomic.LoadInt64(&c.WSMessagesOut))
	}
}
