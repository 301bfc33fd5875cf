package content

import (
	"strings"
	"testing"

	"github.com/ejamakovic/chat-app-FE/internal/models"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Plain text", "Hello World", "Hello World"},
		{"HTML tags", "Hello <b>World</b>", "Hello World"},
		{"Image", "look <img src=\"x.png\" onerror=\"alert(1)\">", "look"},
		{"Script tag", "<script>alert('xss')</script>Hello", "Hello"},
		{"Complex HTML", "<a href='javascript:alert(1)'>Click me</a>", "Click me"},
		{"Emoji", "I am 🤖", "I am 🤖"},
		{"Surrounding space", "  hi  ", "hi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.input); got != tt.expected {
				t.Errorf("Sanitize() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"Minted handle", "USER_1700000000000", false},
		{"Valid with dot", "user.name", false},
		{"Valid with dash", "user-name", false},
		{"Invalid space", "user name", true},
		{"Invalid special char", "user@name", true},
		{"Invalid script", "<script>", true},
		{"Empty", "", true},
		{"Too long", strings.Repeat("a", 65), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateUsername(tt.input); (err != nil) != tt.wantErr {
				t.Errorf("ValidateUsername() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		wantErr bool
	}{
		{
			name: "Global message",
			input: models.SendMessageRequest{
				Sender:  models.UserRef{Username: "U1"},
				Content: "hi",
			},
		},
		{
			name: "Private message",
			input: models.SendMessageRequest{
				Sender:   models.UserRef{Username: "U1"},
				Receiver: &models.UserRef{Username: "U2"},
				Content:  "hi",
			},
		},
		{
			name: "Missing content",
			input: models.SendMessageRequest{
				Sender: models.UserRef{Username: "U1"},
			},
			wantErr: true,
		},
		{
			name: "Bad receiver handle",
			input: models.SendMessageRequest{
				Sender:   models.UserRef{Username: "U1"},
				Receiver: &models.UserRef{Username: "no way"},
				Content:  "hi",
			},
			wantErr: true,
		},
		{
			name: "Chat request without receiver",
			input: models.ChatRequestBody{
				Sender: models.UserRef{Username: "U1"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Validate(tt.input); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
