// Package realtime pushes newly created names to connected live-feed clients.
package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AnshRaj112/namewall-backend/internal/logger"
	"github.com/AnshRaj112/namewall-backend/internal/metrics"
	"github.com/AnshRaj112/namewall-backend/internal/models"
)

const (
	EventNameCreated = "name_created"

	// sendBuffer is how many events a client may fall behind before it is dropped.
	sendBuffer = 32
)

// Event is the payload written to live-feed clients and published over Redis.
type Event struct {
	Type      string            `json:"type"`
	Name      *models.NameEntry `json:"name,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	// Origin identifies the publishing instance on the Redis channel.
	Origin string `json:"origin,omitempty"`
}

// NameCreated builds the event announcing a newly inserted name.
func NameCreated(entry models.NameEntry) Event {
	return Event{Type: EventNameCreated, Name: &entry, Timestamp: time.Now().UTC()}
}

// Conn is the part of a WebSocket connection the hub writes to.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

type client struct {
	id   uuid.UUID
	conn Conn
	send chan Event
}

// Hub tracks the live-feed connections of this instance.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*client
	metrics *metrics.Metrics
	log     *slog.Logger
}

func NewHub(m *metrics.Metrics, log *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[uuid.UUID]*client),
		metrics: m,
		log:     logger.Module(log, "realtime"),
	}
}

// Register adds conn and starts its writer. The returned id is passed to
// Unregister when the connection goes away.
func (h *Hub) Register(conn Conn) uuid.UUID {
	c := &client{id: uuid.New(), conn: conn, send: make(chan Event, sendBuffer)}

	h.mu.Lock()
	h.clients[c.id] = c
	n := len(h.clients)
	h.mu.Unlock()

	h.metrics.LiveClients(n)
	go h.writeLoop(c)
	return c.id
}

// Unregister removes the client and closes its connection. Safe to call twice.
func (h *Hub) Unregister(id uuid.UUID) {
	h.mu.Lock()
	c, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		h.metrics.LiveClients(n)
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues evt for every client. Clients whose buffer is full are
// disconnected rather than blocking the sender.
func (h *Hub) Broadcast(evt Event) {
	var slow []uuid.UUID

	h.mu.RLock()
	for id, c := range h.clients {
		select {
		case c.send <- evt:
		default:
			slow = append(slow, id)
		}
	}
	h.mu.RUnlock()

	for _, id := range slow {
		h.log.Warn("dropping slow live-feed client", "client", id)
		h.Unregister(id)
	}
}

// PublishName delivers entry to local clients only. Used when Redis is not
// configured.
func (h *Hub) PublishName(_ context.Context, entry models.NameEntry) error {
	h.Broadcast(NameCreated(entry))
	return nil
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for evt := range c.send {
		if err := c.conn.WriteJSON(evt); err != nil {
			h.log.Debug("live-feed write failed", "client", c.id, "error", err)
			h.Unregister(c.id)
			// drain so Broadcast never sees a full buffer for a dead client
			for range c.send {
			}
			return
		}
	}
}
