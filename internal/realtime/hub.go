// Package realtime fans chat room events out to live WebSocket connections.
package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/observability"
)

// Broadcaster emits a room event to every connection joined to chatID.
type Broadcaster interface {
	Emit(ctx context.Context, chatID int64, event string, payload any) error
}

// Frame is the outbound wire envelope.
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// ErrorData is carried by "error" frames.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Hub tracks rooms keyed by chat id. Sends never block: a client whose
// buffer is full misses the frame.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[int64]map[*Client]struct{}
	clients map[*Client]struct{}

	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger, metrics *observability.Metrics) *Hub {
	return &Hub{
		rooms:   make(map[int64]map[*Client]struct{}),
		clients: make(map[*Client]struct{}),
		metrics: metrics,
		logger:  logger,
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("realtime client connected", zap.Int64("actor_id", c.actor.ID), zap.Int("total", total))
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	for chatID := range c.rooms {
		h.removeFromRoom(chatID, c)
	}
	total := len(h.clients)
	h.mu.Unlock()

	c.closeSend()
	h.logger.Debug("realtime client disconnected", zap.Int64("actor_id", c.actor.ID), zap.Int("total", total))
}

// Join adds the client to the chat's room. Joining twice is a no-op.
func (h *Hub) Join(chatID int64, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[chatID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[chatID] = room
	}
	room[c] = struct{}{}
	c.rooms[chatID] = struct{}{}
}

// Leave removes the client from the chat's room.
func (h *Hub) Leave(chatID int64, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromRoom(chatID, c)
}

func (h *Hub) removeFromRoom(chatID int64, c *Client) {
	delete(c.rooms, chatID)
	room, ok := h.rooms[chatID]
	if !ok {
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, chatID)
	}
}

// RoomSize reports how many connections are joined to chatID.
func (h *Hub) RoomSize(chatID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[chatID])
}

// ClientCount returns the current number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Emit encodes the event once and queues it on every joined connection.
func (h *Hub) Emit(_ context.Context, chatID int64, event string, payload any) error {
	frame, err := json.Marshal(Frame{Event: event, Data: payload})
	if err != nil {
		return err
	}
	h.metrics.RecordRoomEvent(event)
	h.deliver(chatID, frame)
	return nil
}

func (h *Hub) deliver(chatID int64, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[chatID] {
		if !c.enqueue(frame) {
			h.metrics.RecordDroppedFrame()
		}
	}
}
