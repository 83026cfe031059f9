// Package network - ops.go
// OpsBridge - small REST surface for the host's operational tooling: reading
// the live state without a WebSocket and resetting the session between
// rehearsals.
package network

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/engine"
	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/platform/logger"
	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/platform/metrics"
)

// OpsBridge handles host operational requests.
type OpsBridge struct {
	engine *engine.Engine
	logger *logger.Logger
}

// NewOpsBridge creates a new operational handler over the engine.
func NewOpsBridge(eng *engine.Engine, log *logger.Logger) *OpsBridge {
	return &OpsBridge{
		engine: eng,
		logger: log,
	}
}

// HandleStatus returns the current snapshot.
// GET /api/status
func (ob *OpsBridge) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ob.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ob.jsonSuccess(w, map[string]interface{}{
		"snapshot":  ob.engine.Snapshot(),
		"timestamp": time.Now().Unix(),
	})
}

// HandleReset wipes the session back to HOME.
// POST /api/reset
func (ob *OpsBridge) HandleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ob.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ob.engine.Reset()
	metrics.Get().RecordReset()
	ob.logger.Event("SESSION_RESET", "HOST", "Step:"+string(ob.engine.Step()))

	ob.jsonSuccess(w, map[string]interface{}{
		"success": true,
		"message": "Session reset",
		"step":    string(ob.engine.Step()),
	})
}

// RegisterRoutes sets up the operational API routes.
func (ob *OpsBridge) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/status", ob.HandleStatus)
	mux.HandleFunc("/api/reset", ob.HandleReset)
}

// jsonError sends an error response.
func (ob *OpsBridge) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// jsonSuccess sends a success response.
func (ob *OpsBridge) jsonSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(data)
}
