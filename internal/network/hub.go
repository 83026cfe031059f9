package network

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/engine"
	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/events"
	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/platform/logger"
	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/platform/metrics"
	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/platform/tuning"
)

// Message is the envelope for everything the hub pushes to clients.
type Message struct {
	Type    string      `json:"type"` // "snapshot" or "event"
	Payload interface{} `json:"payload"`
}

// Hub maintains the set of active clients and broadcasts state to them.
// Clients are read-only renderers: they receive snapshots and events, and
// forward guest intents back as engine method calls.
type Hub struct {
	engine *engine.Engine
	tuning *tuning.Config

	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex
	logger     *logger.Logger
}

// NewHub initializes a new WebSocket Hub over the engine.
func NewHub(eng *engine.Engine, tune *tuning.Config, log *logger.Logger) *Hub {
	return &Hub{
		engine:     eng,
		tuning:     tune,
		broadcast:  make(chan []byte, tune.BroadcastChannelBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     log,
	}
}

// Run starts the Hub's main loop to handle client connections and broadcasts.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("WebSocket Hub shutting down.")
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			metrics.Get().RecordWSConnection(1)
			h.logger.Info("New WebSocket client connected")
			// A late-arriving observer gets the current state right away,
			// so it never renders a stale or falsely-locked screen.
			client.sendMessage(Message{Type: "snapshot", Payload: h.engine.Snapshot()})
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				metrics.Get().RecordWSConnection(-1)
				h.logger.Info("WebSocket client disconnected")
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					metrics.Get().RecordWSMessage(false)
				default:
					close(client.send)
					delete(h.clients, client)
					metrics.Get().RecordWSError()
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastSnapshot serializes the snapshot and pushes it to all clients.
// Wired as an engine listener: it fires after every transition.
func (h *Hub) BroadcastSnapshot(snap engine.Snapshot) {
	h.broadcastMessage(Message{Type: "snapshot", Payload: snap})
}

// broadcastMessage serializes and queues an envelope; a full queue sheds the
// message rather than blocking the engine thread.
func (h *Hub) broadcastMessage(msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to serialize hub message: " + err.Error())
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		metrics.Get().RecordWSError()
		h.logger.Warn("Broadcast queue full; dropping message")
	}
}

// StartEventPoller spawns a goroutine to poll the EventLog and push new
// events to the Hub. The event stream runs independently from the snapshot
// listener while picking up the same session history.
func (h *Hub) StartEventPoller(ctx context.Context, eventLog *events.EventLog) {
	go func() {
		pollInterval := time.NewTicker(200 * time.Millisecond)
		defer pollInterval.Stop()

		lastProcessedEvent := 0

		for {
			select {
			case <-ctx.Done():
				return
			case <-pollInterval.C:
				allEvents := eventLog.Replay()
				if len(allEvents) > lastProcessedEvent {
					for _, event := range allEvents[lastProcessedEvent:] {
						h.broadcastMessage(Message{Type: "event", Payload: event})
					}
					lastProcessedEvent = len(allEvents)
				}
			}
		}
	}()
}
