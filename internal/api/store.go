package api

import (
	"log/slog"
	"net/http"

	"github.com/ejamakovic/chat-app-FE/internal/content"
	"github.com/ejamakovic/chat-app-FE/internal/models"
	"github.com/ejamakovic/chat-app-FE/internal/storage"
	"github.com/ejamakovic/chat-app-FE/internal/ws"
)

// Store serves the backend API the relay forwards to: user directory,
// message history and the push side effects of new messages.
type Store struct {
	storage *storage.BboltStorage
	hub     *ws.Hub
	log     *slog.Logger
}

func NewStore(storage *storage.BboltStorage, hub *ws.Hub, logger *slog.Logger) *Store {
	return &Store{storage: storage, hub: hub, log: logger}
}

func (s *Store) internalError(w http.ResponseWriter, op string, err error) {
	s.log.Error("storage failure", "op", op, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func (s *Store) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := s.storage.ListUsers()
	if err != nil {
		s.internalError(w, "list users", err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Store) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var ref models.UserRef
	if err := decodeJSON(w, r, &ref); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := content.Validate(ref); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.storage.UpsertUser(ref.Username)
	if err != nil {
		s.internalError(w, "register user", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Store) LogoutUserHandler(w http.ResponseWriter, r *http.Request) {
	var ref models.UserRef
	if err := decodeJSON(w, r, &ref); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := content.Validate(ref); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := s.storage.SetConnected(ref.Username, false); err != nil {
		s.internalError(w, "logout user", err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Store) GlobalMessagesHandler(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.storage.ListMessages(storage.GlobalChatID)
	if err != nil {
		s.internalError(w, "list global messages", err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (s *Store) PrivateMessagesHandler(w http.ResponseWriter, r *http.Request) {
	sender := r.URL.Query().Get("sender")
	receiver := r.URL.Query().Get("receiver")
	if content.ValidateUsername(sender) != nil || content.ValidateUsername(receiver) != nil {
		writeError(w, http.StatusBadRequest, "sender and receiver are required")
		return
	}

	msgs, err := s.storage.ListPrivateMessages(sender, receiver)
	if err != nil {
		s.internalError(w, "list private messages", err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// PostMessageHandler stores a message and pushes it: global messages to
// every connection, private ones to the sender and the receiver only.
func (s *Store) PostMessageHandler(w http.ResponseWriter, r *http.Request) {
	var req models.SendMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := content.Validate(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	text := content.Sanitize(req.Content)
	if text == "" {
		writeError(w, http.StatusBadRequest, "content is empty")
		return
	}

	stored, err := s.storage.AppendMessage(models.Message{
		Sender:   req.Sender,
		Receiver: req.Receiver,
		Content:  text,
	})
	if err != nil {
		s.internalError(w, "append message", err)
		return
	}

	frame := models.MessageFrame(stored)
	if stored.IsPrivate() {
		s.hub.SendTo(frame, stored.Sender.Username, stored.Receiver.Username)
	} else {
		s.hub.Broadcast(frame)
	}

	writeJSON(w, http.StatusOK, stored)
}

// ChatRequestHandler pushes a chatRequest frame to the receiver. Nothing is
// stored; an offline receiver never sees the request.
func (s *Store) ChatRequestHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequestBody
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := content.Validate(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !s.hub.Online(req.Receiver.Username) {
		s.log.Debug("chat request receiver offline", "user", req.Receiver.Username)
	}
	s.hub.SendTo(models.ChatRequestFrame(req.Sender.Username, req.Receiver.Username), req.Receiver.Username)
	w.WriteHeader(http.StatusOK)
}
