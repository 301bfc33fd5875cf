package ws

import (
	"log/slog"
	"sync"

	"github.com/ejamakovic/chat-app-FE/internal/models"

	"github.com/google/uuid"
)

const sendBuffer = 100

type userDirectory interface {
	SetConnected(username string, connected bool) (bool, error)
}

type peer struct {
	handle string
	ch     chan models.Frame
}

// Hub tracks attached push connections and the handles they announced.
type Hub struct {
	users userDirectory
	log   *slog.Logger

	// Map of connID -> peer
	conns map[string]*peer

	mu sync.RWMutex
}

func NewHub(users userDirectory, logger *slog.Logger) *Hub {
	return &Hub{
		users: users,
		log:   logger,
		conns: make(map[string]*peer),
	}
}

// Attach registers an anonymous connection. It receives broadcasts right
// away and targeted frames once it announces a handle.
func (h *Hub) Attach() (string, chan models.Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()

	connID := uuid.NewString()
	ch := make(chan models.Frame, sendBuffer)
	h.conns[connID] = &peer{ch: ch}
	return connID, ch
}

// Announce binds a handle to the connection. The first connection of a
// handle marks it connected and broadcasts a user frame to everybody else.
func (h *Hub) Announce(connID, handle string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.conns[connID]
	if !ok || p.handle == handle {
		return
	}
	if p.handle != "" {
		prev := p.handle
		p.handle = ""
		h.releaseLocked(prev)
	}
	p.handle = handle

	if h.countLocked(handle) > 1 {
		return
	}

	changed, err := h.users.SetConnected(handle, true)
	if err != nil {
		h.log.Error("failed to mark user connected", "user", handle, "error", err)
		return
	}
	if !changed {
		return
	}

	frame := models.UserFrame(handle)
	for id, other := range h.conns {
		if other.handle == handle {
			continue
		}
		h.deliverLocked(id, other, frame)
	}
}

// Detach removes the connection and closes its channel. The last
// connection of a handle marks it disconnected.
func (h *Hub) Detach(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.conns[connID]
	if !ok {
		return
	}
	delete(h.conns, connID)
	close(p.ch)

	if p.handle != "" {
		h.releaseLocked(p.handle)
	}
}

// Broadcast sends the frame to every attached connection.
func (h *Hub) Broadcast(frame models.Frame) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, p := range h.conns {
		h.deliverLocked(id, p, frame)
	}
}

// SendTo sends the frame to every connection announced under one of the
// given handles.
func (h *Hub) SendTo(frame models.Frame, handles ...string) {
	targets := make(map[string]bool, len(handles))
	for _, handle := range handles {
		targets[handle] = true
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, p := range h.conns {
		if p.handle != "" && targets[p.handle] {
			h.deliverLocked(id, p, frame)
		}
	}
}

// Online reports whether at least one connection announced the handle.
func (h *Hub) Online(handle string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.countLocked(handle) > 0
}

func (h *Hub) releaseLocked(handle string) {
	if h.countLocked(handle) > 0 {
		return
	}
	if _, err := h.users.SetConnected(handle, false); err != nil {
		h.log.Error("failed to mark user disconnected", "user", handle, "error", err)
	}
}

func (h *Hub) countLocked(handle string) int {
	n := 0
	for _, p := range h.conns {
		if p.handle == handle {
			n++
		}
	}
	return n
}

func (h *Hub) deliverLocked(connID string, p *peer, frame models.Frame) {
	select {
	case p.ch <- frame:
	default:
		h.log.Warn("dropping frame for slow connection", "conn", connID, "user", p.handle, "type", frame.Type)
	}
}
