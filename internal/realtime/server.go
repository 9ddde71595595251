package realtime

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/domain"
)

// Authenticator turns a bearer token into an actor.
type Authenticator interface {
	Resolve(ctx context.Context, token string) (domain.Actor, error)
}

// ChatActions is the slice of the chat service the socket protocol needs.
type ChatActions interface {
	Get(ctx context.Context, actor domain.Actor, chatID int64) (*domain.Chat, error)
	PostText(ctx context.Context, actor domain.Actor, chatID int64, text string) (*domain.Message, error)
}

// Server upgrades authenticated requests and runs the client pumps.
type Server struct {
	hub      *Hub
	auth     Authenticator
	chats    ChatActions
	cfg      config.RealtimeConfig
	logger   *zap.Logger
	upgrader websocket.Upgrader

	// base is the parent context for inbound frame handling.
	base context.Context
}

// NewServer wires the WebSocket endpoint.
func NewServer(ctx context.Context, hub *Hub, auth Authenticator, chats ChatActions, cfg config.RealtimeConfig, logger *zap.Logger) *Server {
	s := &Server{
		hub:    hub,
		auth:   auth,
		chats:  chats,
		cfg:    cfg,
		logger: logger,
		base:   ctx,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if s.cfg.AllowedOrigin == "" || s.cfg.AllowedOrigin == "*" {
		return true
	}
	return r.Header.Get("Origin") == s.cfg.AllowedOrigin
}

// Handler exposes the endpoint on its own mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.ServeWS)
	return mux
}

// ServeWS handles upgrade requests. Route: /ws?token=<jwt>
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	actor, err := s.auth.Resolve(r.Context(), token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := newClient(s.hub, conn, actor, s.cfg.ClientBufferSize)
	s.hub.register(client)

	pingPeriod := s.cfg.PingPeriod()
	pongWait := pingPeriod * 10 / 9
	go client.writePump(pingPeriod)
	go client.readPump(s.base, s.chats, pongWait, s.logger)
}

// NewHTTPServer builds the listener for the realtime endpoint.
func NewHTTPServer(s *Server) *http.Server {
	return &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
