package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/ejamakovic/chat-app-FE/internal/api"
	"github.com/ejamakovic/chat-app-FE/internal/auth"
)

type AdminServer struct {
	server *http.Server
	log    *slog.Logger
	wg     sync.WaitGroup
}

func NewAdminServer(sessions *auth.Service, directory auth.Directory, addr string, logger *slog.Logger) *AdminServer {
	adminHandler := api.NewAdminHandler(sessions, directory, logger)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /admin/sessions", adminHandler.AddSessionHandler)

	if addr == "" {
		addr = "localhost:3001"
	}

	return &AdminServer{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
		log: logger,
	}
}

func (s *AdminServer) Start() error {
	s.log.Info("admin API started", "addr", s.server.Addr)
	s.wg.Add(1)
	defer s.wg.Done()

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *AdminServer) Shutdown(ctx context.Context) error {
	defer s.wg.Wait()
	return s.server.Shutdown(ctx)
}
