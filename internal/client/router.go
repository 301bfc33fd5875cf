package client

import (
	"slices"

	"github.com/ejamakovic/chat-app-FE/internal/chat"
	"github.com/ejamakovic/chat-app-FE/internal/models"
)

// Router owns the active thread and the transcript displayed for it.
// An empty peer means the global channel is active.
type Router struct {
	self       string
	peer       string
	seq        uint64
	settled    bool
	live       []models.Message
	transcript *chat.Transcript
}

func NewRouter(self string, transcript *chat.Transcript) *Router {
	if transcript == nil {
		transcript = chat.New(chat.Config{})
	}
	return &Router{self: self, transcript: transcript}
}

func (r *Router) Peer() string {
	return r.peer
}

func (r *Router) Transcript() *chat.Transcript {
	return r.transcript
}

// Seq is the sequence number of the latest history fetch.
func (r *Router) Seq() uint64 {
	return r.seq
}

// OpenGlobal activates the global channel and returns the sequence number
// the history fetch must be settled with. The transcript is cleared until
// then.
func (r *Router) OpenGlobal() uint64 {
	return r.open("")
}

func (r *Router) OpenPrivate(peer string) uint64 {
	return r.open(peer)
}

func (r *Router) open(peer string) uint64 {
	r.peer = peer
	r.seq++
	r.settled = false
	r.live = nil
	r.transcript.Reset(nil)
	return r.seq
}

// Settle replaces the transcript with a fetched history unless a newer
// fetch has been started since. Messages delivered while the fetch was in
// flight are kept after the history when it does not already hold them.
func (r *Router) Settle(seq uint64, msgs []models.Message) bool {
	if seq != r.seq || r.settled {
		return false
	}
	merged := slices.Clone(msgs)
	for _, m := range r.live {
		if !slices.ContainsFunc(msgs, func(h models.Message) bool { return sameMessage(h, m) }) {
			merged = append(merged, m)
		}
	}
	r.settled = true
	r.live = nil
	r.transcript.Reset(merged)
	return true
}

func sameMessage(a, b models.Message) bool {
	return a.Sender.Username == b.Sender.Username &&
		receiverOf(a) == receiverOf(b) &&
		a.Timestamp.Equal(b.Timestamp) &&
		a.Content == b.Content
}

func receiverOf(m models.Message) string {
	if m.Receiver == nil {
		return ""
	}
	return m.Receiver.Username
}

// Accepts reports whether m belongs to the active thread.
func (r *Router) Accepts(m models.Message) bool {
	if !m.IsPrivate() {
		return r.peer == ""
	}
	if r.peer == "" || !m.Involves(r.self) {
		return false
	}
	return m.Sender.Username == r.peer || m.Receiver.Username == r.peer
}

// Deliver appends m to the transcript if it belongs to the active thread.
func (r *Router) Deliver(m models.Message) bool {
	if !r.Accepts(m) {
		return false
	}
	if !r.settled {
		r.live = append(r.live, m)
	}
	r.transcript.AddRecord(m)
	return true
}

func (r *Router) Outbound(content string) models.Message {
	m := models.Message{
		Sender:  models.UserRef{Username: r.self},
		Content: content,
	}
	if r.peer != "" {
		m.Receiver = &models.UserRef{Username: r.peer}
	}
	return m
}
