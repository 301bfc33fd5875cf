package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ejamakovic/chat-app-FE/internal/auth"
	"github.com/ejamakovic/chat-app-FE/internal/content"
	"github.com/ejamakovic/chat-app-FE/internal/models"
)

const maxBodySize = 64 << 10

// Relay is the participant facing HTTP surface. Apart from the session
// registry it keeps no state and forwards everything to the backend.
type Relay struct {
	sessions *auth.Service
	gateway  Gateway
	cookie   string
	log      *slog.Logger
}

func NewRelay(sessions *auth.Service, gateway Gateway, cookieName string, logger *slog.Logger) *Relay {
	return &Relay{
		sessions: sessions,
		gateway:  gateway,
		cookie:   cookieName,
		log:      logger,
	}
}

func (a *Relay) getToken(r *http.Request) string {
	if c, err := r.Cookie(a.cookie); err == nil {
		return c.Value
	}
	return r.Header.Get("token")
}

func (a *Relay) setCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cookie,
		Value:    token,
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
}

// currentSession resolves an existing session without minting one.
func (a *Relay) currentSession(w http.ResponseWriter, r *http.Request) (auth.Session, bool) {
	sess, err := a.sessions.Lookup(a.getToken(r))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return auth.Session{}, false
	}
	return sess, true
}

// backendError reports a failed collaborator call as 500 {"error": ...}.
func (a *Relay) backendError(w http.ResponseWriter, op string, err error) {
	a.log.Error("backend call failed", "op", op, "error", err)
	writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to %s", op))
}

func (a *Relay) SessionHandler(w http.ResponseWriter, r *http.Request) {
	token := a.getToken(r)
	sess, err := a.sessions.EnsureHandle(r.Context(), token)
	if err != nil {
		if errors.Is(err, auth.ErrNotAuthenticated) {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		a.backendError(w, "create session", err)
		return
	}

	key, err := a.sessions.ChannelKey(sess.Handle)
	if err != nil {
		a.log.Error("channel key failed", "user", sess.Handle, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	if sess.Token != token {
		a.setCookie(w, sess.Token)
	}
	writeJSON(w, http.StatusOK, models.SessionResponse{
		Username:   sess.Handle,
		ChannelKey: key,
	})
}

func (a *Relay) UsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := a.gateway.ListUsers(r.Context())
	if err != nil {
		a.backendError(w, "fetch users", err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (a *Relay) GlobalChatHandler(w http.ResponseWriter, r *http.Request) {
	msgs, err := a.gateway.GlobalChat(r.Context())
	if err != nil {
		a.backendError(w, "fetch global chat", err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (a *Relay) PrivateChatHandler(w http.ResponseWriter, r *http.Request) {
	sender := r.URL.Query().Get("sender")
	receiver := r.URL.Query().Get("receiver")
	if content.ValidateUsername(sender) != nil || content.ValidateUsername(receiver) != nil {
		writeError(w, http.StatusBadRequest, "sender and receiver are required")
		return
	}

	sess, ok := a.currentSession(w, r)
	if !ok {
		return
	}
	if sess.Handle != sender && sess.Handle != receiver {
		writeError(w, http.StatusForbidden, "Forbidden")
		return
	}

	msgs, err := a.gateway.PrivateChat(r.Context(), sender, receiver)
	if err != nil {
		a.backendError(w, "fetch private chat", err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (a *Relay) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	var req models.SendMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := content.Validate(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, ok := a.currentSession(w, r)
	if !ok {
		return
	}
	if req.Sender.Username != sess.Handle {
		writeError(w, http.StatusForbidden, "sender does not match session")
		return
	}

	stored, err := a.gateway.SendMessage(r.Context(), models.Message{
		Sender:   req.Sender,
		Receiver: req.Receiver,
		Content:  req.Content,
	})
	if err != nil {
		a.backendError(w, "send message", err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (a *Relay) PrivateChatRequestHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequestBody
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := content.Validate(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Sender.Username == req.Receiver.Username {
		writeError(w, http.StatusBadRequest, "cannot request a chat with yourself")
		return
	}

	sess, ok := a.currentSession(w, r)
	if !ok {
		return
	}
	if req.Sender.Username != sess.Handle {
		writeError(w, http.StatusForbidden, "sender does not match session")
		return
	}

	if err := a.gateway.RequestPrivateChat(r.Context(), req); err != nil {
		a.backendError(w, "send chat request", err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// LogoutHandler invalidates the session and marks the participant as
// disconnected. Logging out without a session is a no-op.
func (a *Relay) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	handle, err := a.sessions.Release(a.getToken(r))

	http.SetCookie(w, &http.Cookie{
		Name:     a.cookie,
		Value:    "",
		HttpOnly: true,
		Path:     "/",
		MaxAge:   -1,
	})

	if err != nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := a.gateway.DisconnectUser(r.Context(), handle); err != nil {
		a.backendError(w, "log out user", err)
		return
	}
	a.log.Info("session released", "user", handle)
	w.WriteHeader(http.StatusOK)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.ErrorResponse{Error: message})
}
