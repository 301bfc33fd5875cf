package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ejamakovic/chat-app-FE/internal/auth"
	"github.com/ejamakovic/chat-app-FE/internal/content"

	"github.com/google/uuid"
)

type AdminHandler struct {
	sessions  *auth.Service
	directory auth.Directory
	log       *slog.Logger
}

func NewAdminHandler(sessions *auth.Service, directory auth.Directory, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{sessions: sessions, directory: directory, log: logger}
}

type AddSessionRequest struct {
	Username string `json:"username" validate:"required,handle"`
	Token    string `json:"token,omitempty"`
}

type AddSessionResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	Username string `json:"username,omitempty"`
	Token    string `json:"token,omitempty"`
}

// AddSessionHandler provisions a token bound to a chosen handle, so
// participants can join when unknown tokens are rejected.
func (h *AdminHandler) AddSessionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req AddSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := content.Validate(req); err != nil {
		writeJSON(w, http.StatusBadRequest, AddSessionResponse{
			Success: false,
			Message: fmt.Sprintf("Invalid username: %v", err),
		})
		return
	}

	token := req.Token
	if token == "" {
		token = uuid.NewString()
	}

	if err := h.sessions.Bind(token, req.Username); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, auth.ErrTokenBound) || errors.Is(err, auth.ErrHandleTaken) {
			status = http.StatusConflict
		}
		writeJSON(w, status, AddSessionResponse{
			Success: false,
			Message: fmt.Sprintf("Failed to create session: %v", err),
		})
		return
	}

	if h.directory != nil {
		if err := h.directory.RegisterUser(r.Context(), req.Username); err != nil {
			_, _ = h.sessions.Release(token)
			h.log.Error("failed to register provisioned user", "user", req.Username, "error", err)
			writeJSON(w, http.StatusInternalServerError, AddSessionResponse{
				Success: false,
				Message: "Failed to register user",
			})
			return
		}
	}

	h.log.Info("session provisioned", "user", req.Username)
	writeJSON(w, http.StatusOK, AddSessionResponse{
		Success:  true,
		Username: req.Username,
		Token:    token,
	})
}
