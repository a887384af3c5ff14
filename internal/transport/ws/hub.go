package ws

import (
	"context"
	"encoding/json"
	"feedbackbot/internal/logger"
	"feedbackbot/internal/model"
	"sync"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	MsgFeedbackCreated MessageType = "feedback_created"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans new feedback out to connected admin viewers
type Hub struct {
	conns map[*Connection]struct{}
	mu    sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan []byte
	done       chan struct{}

	log *logger.Logger
}

// Connection is one admin viewer
type Connection struct {
	AdminID string
	Send    chan []byte
	Hub     *Hub
}

// NewHub creates a new WebSocket hub. Run must be started for messages to flow.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		conns:      make(map[*Connection]struct{}),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
		log:        log.With("component", "ws_hub"),
	}
}

// Run processes registrations and broadcasts until ctx is done
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for conn := range h.conns {
				delete(h.conns, conn)
				close(conn.Send)
			}
			h.mu.Unlock()
			return nil

		case conn := <-h.register:
			h.mu.Lock()
			h.conns[conn] = struct{}{}
			h.mu.Unlock()
			h.log.Info("admin connected", "admin_id", conn.AdminID)

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.conns[conn]; ok {
				delete(h.conns, conn)
				close(conn.Send)
				h.log.Info("admin disconnected", "admin_id", conn.AdminID)
			}
			h.mu.Unlock()

		case data := <-h.broadcast:
			h.mu.RLock()
			for conn := range h.conns {
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		close(conn.Send)
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Connections returns the number of connected admins
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// BroadcastFeedback pushes a stored record to every admin (implements service.Broadcaster).
// It never blocks the caller.
func (h *Hub) BroadcastFeedback(record model.FeedbackRecord) {
	payload, err := json.Marshal(record)
	if err != nil {
		h.log.Error("marshal feedback for broadcast", "error", err)
		return
	}
	data, err := json.Marshal(&Message{Type: MsgFeedbackCreated, Payload: payload})
	if err != nil {
		h.log.Error("marshal broadcast envelope", "error", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.log.Warn("broadcast queue full, dropping feedback event", "feedback_id", record.ID)
	}
}
