package client

import (
	"github.com/ejamakovic/chat-app-FE/internal/models"
)

// Everything that touches client state arrives on one queue as one of the
// event types below and is handled by the loop in Client.Run.

type frameReceived struct {
	frame models.Frame
}

type channelChanged struct {
	state ChannelState
}

type usersLoaded struct {
	users []models.User
	err   error
}

type historyLoaded struct {
	seq  uint64
	peer string
	msgs []models.Message
	err  error
}

type notificationExpired struct {
	id uint64
}

type requestDone struct {
	target string
	err    error
}

type messageSent struct {
	err error
}

type openGlobalAction struct{}

type openPrivateAction struct {
	peer string
}

type sendAction struct {
	content string
}

type requestAction struct {
	target string
}

type acceptAction struct {
	sender string
	reply  chan error
}

type declineAction struct {
	sender string
	reply  chan error
}

type dismissAction struct {
	id    uint64
	reply chan error
}

type snapshotAction struct {
	reply chan Snapshot
}

// Snapshot is a copy of the client state taken inside the loop.
type Snapshot struct {
	Handle        string
	ActivePeer    string
	Transcript    []models.Message
	Visible       []string
	Notifications []Notification
	Pending       []string
	Channel       ChannelState
	Unread        map[string]int
}

// Renderer displays client state. It is only called from the loop.
type Renderer interface {
	Transcript(peer string, msgs []models.Message)
	Message(m models.Message)
	Presence(visible []string)
	Notifications(items []Notification)
	Channel(state ChannelState)
	Unread(counts map[string]int)
}

type nopRenderer struct{}

func (nopRenderer) Transcript(string, []models.Message) {}
func (nopRenderer) Message(models.Message)              {}
func (nopRenderer) Presence([]string)                   {}
func (nopRenderer) Notifications([]Notification)        {}
func (nopRenderer) Channel(ChannelState)                {}
func (nopRenderer) Unread(map[string]int)               {}
