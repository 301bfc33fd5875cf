package client

import (
	"errors"
	"maps"
	"slices"
)

var ErrNoPendingRequest = errors.New("no pending chat request")

type RequestState int

const (
	RequestNone RequestState = iota
	RequestSent
	RequestPending
	RequestAccepted
	RequestDeclined
)

func (s RequestState) String() string {
	switch s {
	case RequestSent:
		return "REQUEST_SENT"
	case RequestPending:
		return "PENDING"
	case RequestAccepted:
		return "ACCEPTED"
	case RequestDeclined:
		return "DECLINED"
	default:
		return "NONE"
	}
}

type ChatRequest struct {
	Sender   string
	Receiver string
	State    RequestState
}

// Handshakes tracks private chat requests of one participant. Incoming
// requests are keyed by sender, outgoing ones by target.
type Handshakes struct {
	self     string
	incoming map[string]*ChatRequest
	outgoing map[string]*ChatRequest
}

func NewHandshakes(self string) *Handshakes {
	return &Handshakes{
		self:     self,
		incoming: make(map[string]*ChatRequest),
		outgoing: make(map[string]*ChatRequest),
	}
}

// Sent records a request delivered to target.
func (h *Handshakes) Sent(target string) ChatRequest {
	req := &ChatRequest{Sender: h.self, Receiver: target, State: RequestSent}
	h.outgoing[target] = req
	return *req
}

// Received records a request from sender. A request still pending from the
// same sender is replaced and superseded reports true.
func (h *Handshakes) Received(sender string) (req ChatRequest, superseded bool) {
	if prev, ok := h.incoming[sender]; ok && prev.State == RequestPending {
		superseded = true
	}
	r := &ChatRequest{Sender: sender, Receiver: h.self, State: RequestPending}
	h.incoming[sender] = r
	return *r, superseded
}

func (h *Handshakes) Accept(sender string) (ChatRequest, error) {
	return h.settle(sender, RequestAccepted)
}

func (h *Handshakes) Decline(sender string) (ChatRequest, error) {
	return h.settle(sender, RequestDeclined)
}

func (h *Handshakes) settle(sender string, state RequestState) (ChatRequest, error) {
	req, ok := h.incoming[sender]
	if !ok || req.State != RequestPending {
		return ChatRequest{}, ErrNoPendingRequest
	}
	req.State = state
	return *req, nil
}

// OnPrivateMessage reports whether a private message from peer answers a
// request we sent. The outgoing request becomes accepted.
func (h *Handshakes) OnPrivateMessage(from string) bool {
	req, ok := h.outgoing[from]
	if !ok || req.State != RequestSent {
		return false
	}
	req.State = RequestAccepted
	return true
}

func (h *Handshakes) Incoming(sender string) RequestState {
	if req, ok := h.incoming[sender]; ok {
		return req.State
	}
	return RequestNone
}

func (h *Handshakes) Outgoing(target string) RequestState {
	if req, ok := h.outgoing[target]; ok {
		return req.State
	}
	return RequestNone
}

// Pending returns the senders with a request awaiting an answer.
func (h *Handshakes) Pending() []string {
	senders := slices.Sorted(maps.Keys(h.incoming))
	return slices.DeleteFunc(senders, func(s string) bool {
		return h.incoming[s].State != RequestPending
	})
}
