package feed

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"campsite/internal/domain"
)

// Event is one reservation lifecycle notification pushed to subscribers so
// dashboards refresh without polling the whole store.
type Event struct {
	Type   string    `json:"type"` // reservation_created | reservation_cancelled
	SiteID string    `json:"site_id"`
	Start  string    `json:"start"`
	End    string    `json:"end,omitempty"`
	Name   string    `json:"name,omitempty"`
	At     time.Time `json:"at"`
}

// Hub fans reservation events out to connected websocket subscribers.
// Writes are best-effort: a failed write drops the subscriber.
type Hub struct {
	mu          sync.RWMutex
	connections map[string]*websocket.Conn
}

func NewHub() *Hub {
	return &Hub{connections: make(map[string]*websocket.Conn)}
}

func (h *Hub) Register(id string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, exists := h.connections[id]; exists && old != nil {
		_ = old.Close()
	}
	h.connections[id] = conn
}

func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conn, exists := h.connections[id]; exists && conn != nil {
		_ = conn.Close()
		delete(h.connections, id)
	}
}

func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

func (h *Hub) broadcast(event Event) {
	h.mu.RLock()
	conns := make(map[string]*websocket.Conn, len(h.connections))
	for id, conn := range h.connections {
		conns[id] = conn
	}
	h.mu.RUnlock()

	for id, conn := range conns {
		if err := conn.WriteJSON(event); err != nil {
			h.Unregister(id)
		}
	}
}

// ReservationCreated implements the reservation module's event sink.
func (h *Hub) ReservationCreated(siteID domain.SiteID, res domain.Reservation) {
	h.broadcast(Event{
		Type:   "reservation_created",
		SiteID: string(siteID),
		Start:  res.Start.Format(domain.DateLayout),
		End:    res.End.Format(domain.DateLayout),
		Name:   res.Name,
		At:     time.Now().UTC(),
	})
}

// ReservationCancelled implements the reservation module's event sink.
func (h *Hub) ReservationCancelled(siteID domain.SiteID, startKey string) {
	h.broadcast(Event{
		Type:   "reservation_cancelled",
		SiteID: string(siteID),
		Start:  startKey,
		At:     time.Now().UTC(),
	})
}

func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, conn := range h.connections {
		if conn != nil {
			_ = conn.Close()
		}
		delete(h.connections, id)
	}
}
