package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

type Config struct {
	RelayAddr      string        `env:"RELAY_ADDR,default=:3000"`
	AdminAddr      string        `env:"ADMIN_ADDR,default=localhost:3001"`
	BackendAddr    string        `env:"BACKEND_ADDR,default=:8080"`
	BackendURL     string        `env:"BACKEND_URL,default=http://localhost:8080"`
	DBFile         string        `env:"CHAT_DB,default=chat.db"`
	SessionPolicy  string        `env:"SESSION_POLICY,default=mint"`
	SessionCookie  string        `env:"SESSION_COOKIE,default=sid"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT,default=10s"`
	LogLevel       string        `env:"LOG_LEVEL,default=info"`
	// ChannelSecret is shared by relay and backend. Empty disables channel
	// keys.
	ChannelSecret string `env:"CHANNEL_SECRET"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.SessionPolicy {
	case "mint", "require":
	default:
		return fmt.Errorf("SESSION_POLICY must be mint or require, got %q", c.SessionPolicy)
	}

	if c.SessionCookie == "" {
		return fmt.Errorf("SESSION_COOKIE is required")
	}

	if c.BackendURL == "" {
		return fmt.Errorf("BACKEND_URL is required")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be greater than 0")
	}

	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}

	return nil
}

// Logger builds the process logger writing text records to w.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return NewLogger(w, level)
}

func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL %q is invalid: %w", s, err)
	}
	return level, nil
}
