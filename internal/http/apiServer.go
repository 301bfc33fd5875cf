package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/ejamakovic/chat-app-FE/internal/api"
	"github.com/ejamakovic/chat-app-FE/internal/auth"
)

// RelayServer serves the participant facing API.
type RelayServer struct {
	server *http.Server
	log    *slog.Logger
	wg     sync.WaitGroup
}

func NewRelayServer(sessions *auth.Service, gateway api.Gateway, cookieName, addr string, logger *slog.Logger) *RelayServer {
	relay := api.NewRelay(sessions, gateway, cookieName, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /session", relay.SessionHandler)
	mux.HandleFunc("GET /users", relay.UsersHandler)
	mux.HandleFunc("GET /globalChat", relay.GlobalChatHandler)
	mux.HandleFunc("GET /privateChat", relay.PrivateChatHandler)
	mux.HandleFunc("POST /sendMessage", relay.SendMessageHandler)
	mux.HandleFunc("POST /privateChatRequest", relay.PrivateChatRequestHandler)
	mux.HandleFunc("POST /logoutUser", relay.LogoutHandler)

	if addr == "" {
		addr = ":3000"
	}

	return &RelayServer{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
		log: logger,
	}
}

func (s *RelayServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *RelayServer) Start() error {
	s.log.Info("relay started", "addr", s.server.Addr)
	s.wg.Add(1)
	defer s.wg.Done()

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *RelayServer) Shutdown(ctx context.Context) error {
	defer s.wg.Wait()
	return s.server.Shutdown(ctx)
}
