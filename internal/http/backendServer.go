package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/ejamakovic/chat-app-FE/internal/api"
	"github.com/ejamakovic/chat-app-FE/internal/gateway"
	"github.com/ejamakovic/chat-app-FE/internal/storage"
	"github.com/ejamakovic/chat-app-FE/internal/ws"
)

// BackendServer serves the storage collaborator: user directory, message
// history and the push channel.
type BackendServer struct {
	server *http.Server
	log    *slog.Logger
	wg     sync.WaitGroup
}

func NewBackendServer(db *storage.BboltStorage, hub *ws.Hub, addr, channelSecret string, logger *slog.Logger) *BackendServer {
	store := api.NewStore(db, hub, logger)
	channel := ws.NewServer(hub, channelSecret, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+gateway.PathUsers, store.ListUsersHandler)
	mux.HandleFunc("POST "+gateway.PathUsers, store.RegisterUserHandler)
	mux.HandleFunc("POST "+gateway.PathUsersLogout, store.LogoutUserHandler)
	mux.HandleFunc("GET "+gateway.PathMessages, store.GlobalMessagesHandler)
	mux.HandleFunc("GET "+gateway.PathPrivateHistory, store.PrivateMessagesHandler)
	mux.HandleFunc("POST "+gateway.PathMessages, store.PostMessageHandler)
	mux.HandleFunc("POST "+gateway.PathChatRequest, store.ChatRequestHandler)

	// WebSocket endpoint
	mux.HandleFunc("GET "+gateway.PathChannel, channel.HandleConnections)

	if addr == "" {
		addr = ":8080"
	}

	return &BackendServer{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
		log: logger,
	}
}

func (s *BackendServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *BackendServer) Start() error {
	s.log.Info("backend started", "addr", s.server.Addr)
	s.wg.Add(1)
	defer s.wg.Done()

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *BackendServer) Shutdown(ctx context.Context) error {
	defer s.wg.Wait()
	return s.server.Shutdown(ctx)
}
