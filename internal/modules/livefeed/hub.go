package livefeed

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Event is a booking lifecycle notification pushed to connected staff
// dashboards.
type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
	At      time.Time      `json:"at"`
}

const (
	EventBookingCreated   = "booking_created"
	EventBookingConfirmed = "booking_confirmed"
	EventBookingCancelled = "booking_cancelled"
)

// Hub tracks one connection per staff user and fans events out to all
// of them. Slow or dead connections are dropped, never waited on.
type Hub struct {
	mu    sync.RWMutex
	conns map[int64]*websocket.Conn
}

func NewHub() *Hub {
	return &Hub{conns: make(map[int64]*websocket.Conn)}
}

func (h *Hub) Register(adminID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.conns[adminID]; ok {
		old.Close()
	}
	h.conns[adminID] = conn
}

func (h *Hub) Unregister(adminID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if existing, ok := h.conns[adminID]; ok && existing == conn {
		delete(h.conns, adminID)
	}
}

// Broadcast sends the event to every connected dashboard. Write errors
// evict the connection; its read loop will observe the close and clean
// up.
func (h *Hub) Broadcast(event *Event) {
	if event.At.IsZero() {
		event.At = time.Now()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, conn := range h.conns {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(h.conns, id)
		}
	}
}

// ConnectedCount reports how many dashboards are attached.
func (h *Hub) ConnectedCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, conn := range h.conns {
		conn.WriteMessage(websocket.CloseMessage, []byte{})
		conn.Close()
		delete(h.conns, id)
	}
}
