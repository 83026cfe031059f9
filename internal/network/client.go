package network

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/platform/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// Intent represents an incoming guest action from the frontend.
type Intent struct {
	Type    string          `json:"type"` // "ADVANCE", "OPEN_CARD", "SUBMIT_ANSWER", ...
	Payload json.RawMessage `json:"payload"` // Intent-specific data
}

// Client represents an active WebSocket connection.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
}

// NewClient creates a new WebSocket client and returns it.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, hub.tuning.ClientSendBuffer),
		limiter: rate.NewLimiter(
			rate.Limit(hub.tuning.ClientIntentsPerSecond),
			hub.tuning.ClientIntentBurst,
		),
	}
}

// Register adds the client to the hub.
func (c *Client) Register() {
	c.hub.register <- c
}

// sendMessage serializes and queues an envelope for this client only.
func (c *Client) sendMessage(msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		c.hub.logger.Error("Failed to serialize client message: " + err.Error())
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

// ReadPump pumps intents from the websocket connection to the engine.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error: %v", err)
			}
			break
		}
		metrics.Get().RecordWSMessage(true)

		var intent Intent
		if err := json.Unmarshal(message, &intent); err != nil {
			c.hub.logger.Error("Failed to parse Intent from WebSocket. err: " + err.Error())
			continue
		}

		c.handleIntent(intent)
	}
}

func (c *Client) handleIntent(intent Intent) {
	// Flood guard. Animations are sub-second, so quick taps are fine, but a
	// scripted spam loop gets shed here before it reaches the engine.
	if !c.limiter.Allow() {
		c.hub.logger.Warn("Rate limit exceeded for client intent " + intent.Type)
		return
	}

	eng := c.hub.engine
	switch intent.Type {
	case "ADVANCE":
		eng.Advance()
	case "SUBMIT_NAME":
		var parsed struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(intent.Payload, &parsed); err != nil {
			c.hub.logger.Warn("Failed to parse SUBMIT_NAME payload")
			return
		}
		eng.CommitName(parsed.Name)
	case "OPEN_CARD":
		var parsed struct {
			CardID int `json:"card_id"`
		}
		if err := json.Unmarshal(intent.Payload, &parsed); err != nil {
			c.hub.logger.Warn("Failed to parse OPEN_CARD payload")
			return
		}
		eng.OpenCard(parsed.CardID)
	case "CLOSE_CARD":
		eng.CloseCard()
	case "SUBMIT_ANSWER":
		var parsed struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(intent.Payload, &parsed); err != nil {
			return
		}
		eng.SubmitCardAnswer(parsed.Text)
	case "SUBMIT_FINAL":
		var parsed struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(intent.Payload, &parsed); err != nil {
			return
		}
		eng.SubmitFinal(parsed.Text)
	case "CAROUSEL_NEXT":
		eng.CarouselNext()
	case "CAROUSEL_PREV":
		eng.CarouselPrev()
	default:
		c.hub.logger.Warn("Unknown Intent type: " + intent.Type)
	}
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
