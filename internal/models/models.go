package models

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("not found")
)

// UserRef references a participant by handle inside messages and frames.
type UserRef struct {
	Username string `json:"username" validate:"required,handle"`
}

// User represents a participant as reported by the user directory.
type User struct {
	Username  string `json:"username"`
	Connected bool   `json:"connected"`
}

// Message represents a chat message.
// A nil Receiver means the message belongs to the global channel.
type Message struct {
	Sender    UserRef   `json:"sender"`
	Receiver  *UserRef  `json:"receiver"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// IsPrivate reports whether the message belongs to a private thread.
func (m Message) IsPrivate() bool {
	return m.Receiver != nil
}

// Involves reports whether handle is the sender or the receiver of the message.
func (m Message) Involves(handle string) bool {
	if m.Sender.Username == handle {
		return true
	}
	return m.Receiver != nil && m.Receiver.Username == handle
}

// SendMessageRequest is the body of POST /sendMessage.
type SendMessageRequest struct {
	Sender   UserRef  `json:"sender"`
	Receiver *UserRef `json:"receiver" validate:"omitempty"`
	Content  string   `json:"content" validate:"required,max=4096"`
}

// ChatRequestBody is the body of POST /privateChatRequest.
type ChatRequestBody struct {
	Sender   UserRef `json:"sender"`
	Receiver UserRef `json:"receiver"`
}

// SessionResponse is returned by GET /session.
type SessionResponse struct {
	Username   string `json:"username"`
	ChannelKey string `json:"channelKey,omitempty"`
}

// ErrorResponse is the body of failed relay requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

type FrameType string

const (
	FrameTypeInit        FrameType = "init"
	FrameTypeChat        FrameType = "chat"
	FrameTypePrivate     FrameType = "private"
	FrameTypeUser        FrameType = "user"
	FrameTypeChatRequest FrameType = "chatRequest"
)

// Frame is a single push-channel message. Only init frames travel from the
// client to the server; everything else is server push.
type Frame struct {
	Type      FrameType `json:"type"`
	Username  string    `json:"username,omitempty"`
	Key       string    `json:"key,omitempty"`
	User      *UserRef  `json:"user,omitempty"`
	Sender    *UserRef  `json:"sender,omitempty"`
	Receiver  *UserRef  `json:"receiver,omitempty"`
	Content   string    `json:"content,omitempty"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// MessageFrame wraps a message into a chat or private frame.
func MessageFrame(m Message) Frame {
	f := Frame{
		Type:      FrameTypeChat,
		Sender:    &UserRef{Username: m.Sender.Username},
		Content:   m.Content,
		Timestamp: m.Timestamp,
	}
	if m.Receiver != nil {
		f.Type = FrameTypePrivate
		f.Receiver = &UserRef{Username: m.Receiver.Username}
	}
	return f
}

// Message extracts the message carried by a chat or private frame.
func (f Frame) Message() (Message, bool) {
	if f.Type != FrameTypeChat && f.Type != FrameTypePrivate {
		return Message{}, false
	}
	if f.Sender == nil {
		return Message{}, false
	}
	m := Message{
		Sender:    *f.Sender,
		Content:   f.Content,
		Timestamp: f.Timestamp,
	}
	if f.Type == FrameTypePrivate {
		if f.Receiver == nil {
			return Message{}, false
		}
		m.Receiver = &UserRef{Username: f.Receiver.Username}
	}
	return m, true
}

func InitFrame(handle, key string) Frame {
	return Frame{Type: FrameTypeInit, Username: handle, Key: key}
}

func UserFrame(handle string) Frame {
	return Frame{Type: FrameTypeUser, User: &UserRef{Username: handle}}
}

func ChatRequestFrame(sender, receiver string) Frame {
	return Frame{
		Type:     FrameTypeChatRequest,
		Sender:   &UserRef{Username: sender},
		Receiver: &UserRef{Username: receiver},
	}
}
