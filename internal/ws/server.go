package ws

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

type Server struct {
	hub      *Hub
	secret   string
	log      *slog.Logger
	upgrader *websocket.Upgrader
}

// NewServer serves push connections for hub. A non-empty secret makes init
// frames carry a channel key signed with it.
func NewServer(hub *Hub, secret string, logger *slog.Logger) *Server {
	return &Server{
		hub:    hub,
		secret: secret,
		log:    logger,
		upgrader: &websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Browser and terminal clients connect from anywhere
			},
		},
	}
}

func (s *Server) HandleConnections(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("error upgrading to websocket", "error", err)
		return
	}

	conn := NewConnection(s.hub, ws, s.secret, s.log)
	if err := conn.Handle(r.Context()); err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		s.log.Debug("websocket connection closed", "error", err)
	}
}
