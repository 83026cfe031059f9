// Package network - replay.go
// JSON export of the session event history.
//
// The replay viewer lets the host rewatch the evening after the fact:
// which cards were opened, when the answers landed, when the lights came on.
package network

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/events"
	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/platform/logger"
)

// ReplayHandler provides the session replay API.
type ReplayHandler struct {
	eventLog *events.EventLog
	logger   *logger.Logger
}

// NewReplayHandler creates a new replay handler.
func NewReplayHandler(el *events.EventLog, log *logger.Logger) *ReplayHandler {
	return &ReplayHandler{
		eventLog: el,
		logger:   log,
	}
}

// ReplayEvent is a sanitized event for export. Payloads already carry only
// card ids and step names, so nothing has to be redacted here.
type ReplayEvent struct {
	ID        string      `json:"id"`
	Timestamp string      `json:"timestamp"`
	Type      string      `json:"type"`
	Actor     string      `json:"actor"`
	Step      string      `json:"step"`
	Summary   string      `json:"summary"`
	Details   interface{} `json:"details,omitempty"`
}

// ReplayResponse is the API response for a replay export.
type ReplayResponse struct {
	TotalEvents int           `json:"total_events"`
	FilteredBy  string        `json:"filtered_by,omitempty"`
	GeneratedAt string        `json:"generated_at"`
	Events      []ReplayEvent `json:"events"`
}

// HandleReplay returns the session history.
// GET /api/replay?type=CARD_SOLVED&limit=50
func (rh *ReplayHandler) HandleReplay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rh.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	eventType := r.URL.Query().Get("type")
	limitStr := r.URL.Query().Get("limit")

	allEvents := rh.eventLog.Replay()

	var replayEvents []ReplayEvent
	filterDesc := ""

	for _, e := range allEvents {
		if eventType != "" {
			if string(e.Type) != eventType {
				continue
			}
			filterDesc = "Type " + eventType
		}
		replayEvents = append(replayEvents, rh.convertToReplayEvent(e))
	}

	if limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit < len(replayEvents) {
			// Keep the most recent events, not the oldest.
			replayEvents = replayEvents[len(replayEvents)-limit:]
		}
	}

	response := ReplayResponse{
		TotalEvents: len(replayEvents),
		FilteredBy:  filterDesc,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Events:      replayEvents,
	}

	rh.logger.Event("REPLAY_EXPORT", "HOST", "Events:"+strconv.Itoa(len(replayEvents)))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// HandleEventDetail returns one event with its full payload.
// GET /api/replay/event?event_id=XXX
func (rh *ReplayHandler) HandleEventDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rh.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	eventID := r.URL.Query().Get("event_id")
	if eventID == "" {
		rh.jsonError(w, "Missing event_id", http.StatusBadRequest)
		return
	}

	allEvents := rh.eventLog.Replay()
	for _, e := range allEvents {
		if e.ID == eventID {
			detail := rh.convertToReplayEvent(e)
			detail.Details = e.Payload

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(detail)
			return
		}
	}

	rh.jsonError(w, "Event not found", http.StatusNotFound)
}

// HandleStats returns aggregate counters for the session.
// GET /api/replay/stats
func (rh *ReplayHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rh.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	allEvents := rh.eventLog.Replay()

	stats := map[string]int{
		"total_events":     len(allEvents),
		"step_changes":     0,
		"cards_opened":     0,
		"cards_solved":     0,
		"answers_accepted": 0,
		"answers_rejected": 0,
	}

	for _, e := range allEvents {
		switch e.Type {
		case events.EventTypeStepChanged:
			stats["step_changes"]++
		case events.EventTypeCardOpened:
			stats["cards_opened"]++
		case events.EventTypeCardSolved:
			stats["cards_solved"]++
		case events.EventTypeAnswerAccepted:
			stats["answers_accepted"]++
		case events.EventTypeAnswerRejected:
			stats["answers_rejected"]++
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"generated_at": time.Now().Format(time.RFC3339),
		"stats":        stats,
	})
}

// RegisterRoutes sets up the replay API routes.
func (rh *ReplayHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/replay", rh.HandleReplay)
	mux.HandleFunc("/api/replay/event", rh.HandleEventDetail)
	mux.HandleFunc("/api/replay/stats", rh.HandleStats)
}

// convertToReplayEvent transforms an internal event to export format.
func (rh *ReplayHandler) convertToReplayEvent(e events.SessionEvent) ReplayEvent {
	return ReplayEvent{
		ID:        e.ID,
		Timestamp: e.Timestamp.Format("15:04:05"),
		Type:      string(e.Type),
		Actor:     e.Actor,
		Step:      e.Step,
		Summary:   rh.summarizeEvent(e),
	}
}

// summarizeEvent creates a human-readable summary.
func (rh *ReplayHandler) summarizeEvent(e events.SessionEvent) string {
	switch e.Type {
	case events.EventTypeStepChanged:
		return "La velada avanzó a un nuevo paso."
	case events.EventTypeCountdownUnlocked:
		return "La cuenta atrás llegó a cero."
	case events.EventTypeNameCommitted:
		return "La invitada escribió su nombre."
	case events.EventTypeCardOpened:
		return "Una carta fue abierta."
	case events.EventTypeCardClosed:
		return "Una carta volvió al carrusel."
	case events.EventTypeCardSolved:
		return "Un acertijo fue resuelto."
	case events.EventTypeAnswerAccepted:
		return "Una respuesta fue aceptada."
	case events.EventTypeAnswerRejected:
		return "Una respuesta fue rechazada."
	case events.EventTypeSessionReset:
		return "La sesión fue reiniciada."
	default:
		return "Algo ocurrió..."
	}
}

// jsonError sends an error response.
func (rh *ReplayHandler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
