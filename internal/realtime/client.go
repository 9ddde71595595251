package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/domain"
	apperrors "github.com/spec-kit/support-desk/pkg/errorutil"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 8192
	frameTimeout   = 10 * time.Second
)

// Inbound frame names.
const (
	frameJoin        = "join"
	frameLeave       = "leave"
	frameSendMessage = "send_message"
	frameError       = "error"
	frameJoined      = "joined"
)

type inboundFrame struct {
	Event  string `json:"event"`
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

// Client is one authenticated WebSocket connection.
type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	actor domain.Actor

	// rooms is guarded by hub.mu.
	rooms map[int64]struct{}

	closeOnce sync.Once
	closed    bool
	sendMu    sync.RWMutex
}

func newClient(hub *Hub, conn *websocket.Conn, actor domain.Actor, buffer int) *Client {
	if buffer <= 0 {
		buffer = 64
	}
	return &Client{
		hub:   hub,
		conn:  conn,
		send:  make(chan []byte, buffer),
		actor: actor,
		rooms: make(map[int64]struct{}),
	}
}

// enqueue reports false when the frame was dropped.
func (c *Client) enqueue(frame []byte) bool {
	c.sendMu.RLock()
	defer c.sendMu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() {
		c.sendMu.Lock()
		c.closed = true
		close(c.send)
		c.sendMu.Unlock()
	})
}

func (c *Client) sendError(err error) {
	de := apperrors.ToDomainError(err)
	frame, _ := json.Marshal(Frame{Event: frameError, Data: ErrorData{Code: de.Code, Message: de.Message}})
	c.enqueue(frame)
}

func (c *Client) sendFrame(event string, data any) {
	frame, err := json.Marshal(Frame{Event: event, Data: data})
	if err != nil {
		return
	}
	c.enqueue(frame)
}

// readPump handles inbound frames until the connection fails.
func (c *Client) readPump(ctx context.Context, chats ChatActions, pongWait time.Duration, logger *zap.Logger) {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Debug("realtime read error", zap.Error(err))
			}
			return
		}
		var in inboundFrame
		if err := json.Unmarshal(data, &in); err != nil {
			c.sendError(apperrors.NewValidationError("malformed frame", nil))
			continue
		}
		c.handle(ctx, chats, in)
	}
}

func (c *Client) handle(ctx context.Context, chats ChatActions, in inboundFrame) {
	ctx, cancel := context.WithTimeout(ctx, frameTimeout)
	defer cancel()

	switch in.Event {
	case frameJoin:
		if _, err := chats.Get(ctx, c.actor, in.ChatID); err != nil {
			c.sendError(err)
			return
		}
		c.hub.Join(in.ChatID, c)
		c.sendFrame(frameJoined, map[string]int64{"chat_id": in.ChatID})
	case frameLeave:
		c.hub.Leave(in.ChatID, c)
	case frameSendMessage:
		if _, err := chats.PostText(ctx, c.actor, in.ChatID, in.Text); err != nil {
			c.sendError(err)
		}
	default:
		c.sendError(apperrors.NewValidationError("unknown event", map[string]any{"event": in.Event}))
	}
}

// writePump drains the send buffer onto the socket and keeps it alive with pings.
func (c *Client) writePump(pingPeriod time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
