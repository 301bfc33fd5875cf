package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/c-pro/geche"
	"github.com/google/uuid"
)

const handlePrefix = "USER_"

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrTokenBound       = errors.New("token already bound to another handle")
	ErrHandleTaken      = errors.New("handle already bound to another token")
)

// Policy decides what happens to requests carrying an unknown token.
type Policy string

const (
	// PolicyMint binds unknown tokens to a freshly minted handle.
	PolicyMint Policy = "mint"
	// PolicyRequire rejects unknown tokens. Bindings are provisioned
	// through the admin listener.
	PolicyRequire Policy = "require"
)

// Session is a resolved token to handle binding.
type Session struct {
	Token  string `json:"token"`
	Handle string `json:"username"`
}

// Directory is the user directory newly minted handles are registered with.
type Directory interface {
	RegisterUser(ctx context.Context, username string) error
}

type Config struct {
	Policy Policy
	// ChannelSecret is shared with the backend and signs push channel keys.
	ChannelSecret string
}

func (c *Config) Validate() error {
	switch c.Policy {
	case "":
		c.Policy = PolicyMint
	case PolicyMint, PolicyRequire:
	default:
		return fmt.Errorf("unknown session policy %q", c.Policy)
	}
	return nil
}

// Service maps opaque session tokens to participant handles.
type Service struct {
	Config
	directory Directory
	log       *slog.Logger
	// token -> handle
	sessions *geche.Locker[string, string]
	// handle -> token
	handles *geche.Locker[string, string]
	now     func() time.Time
}

func NewService(config Config, directory Directory, logger *slog.Logger) (*Service, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Service{
		Config:    config,
		directory: directory,
		log:       logger,
		sessions:  geche.NewLocker[string, string](geche.NewMapCache[string, string]()),
		handles:   geche.NewLocker[string, string](geche.NewMapCache[string, string]()),
		now:       time.Now,
	}, nil
}

// EnsureHandle resolves the handle bound to token. Unknown tokens are
// either bound to a new handle or rejected depending on the policy. Calling
// it again with the same token returns the same handle.
func (s *Service) EnsureHandle(ctx context.Context, token string) (Session, error) {
	if token != "" {
		if sess, err := s.Lookup(token); err == nil {
			return sess, nil
		}
	}

	if s.Policy != PolicyMint {
		return Session{}, ErrNotAuthenticated
	}

	if token == "" {
		token = uuid.NewString()
	}

	sess, minted, err := s.mint(token)
	if err != nil {
		return Session{}, err
	}
	if !minted {
		return sess, nil
	}

	if s.directory != nil {
		if err := s.directory.RegisterUser(ctx, sess.Handle); err != nil {
			s.unbind(sess)
			return Session{}, fmt.Errorf("failed to register %s: %w", sess.Handle, err)
		}
	}

	s.log.Info("session minted", "user", sess.Handle)
	return sess, nil
}

// mint binds token to a fresh USER_<millis> handle while holding the
// session lock, so concurrent calls with the same token agree on a handle.
func (s *Service) mint(token string) (Session, bool, error) {
	tx := s.sessions.Lock()
	defer tx.Unlock()

	if handle, err := tx.Get(token); err == nil {
		return Session{Token: token, Handle: handle}, false, nil
	}

	htx := s.handles.Lock()
	defer htx.Unlock()

	millis := s.now().UnixMilli()
	handle := handlePrefix + strconv.FormatInt(millis, 10)
	for {
		if _, err := htx.Get(handle); err != nil {
			break
		}
		millis++
		handle = handlePrefix + strconv.FormatInt(millis, 10)
	}

	tx.Set(token, handle)
	htx.Set(handle, token)
	return Session{Token: token, Handle: handle}, true, nil
}

func (s *Service) unbind(sess Session) {
	tx := s.sessions.Lock()
	defer tx.Unlock()
	htx := s.handles.Lock()
	defer htx.Unlock()

	if handle, err := tx.Get(sess.Token); err == nil && handle == sess.Handle {
		_ = tx.Del(sess.Token)
	}
	if token, err := htx.Get(sess.Handle); err == nil && token == sess.Token {
		_ = htx.Del(sess.Handle)
	}
}

// Lookup resolves token without minting.
func (s *Service) Lookup(token string) (Session, error) {
	tx := s.sessions.RLock()
	defer tx.Unlock()

	handle, err := tx.Get(token)
	if err != nil {
		return Session{}, ErrNotAuthenticated
	}
	return Session{Token: token, Handle: handle}, nil
}

// Bind provisions a binding ahead of time. Re-binding the same pair is a
// no-op.
func (s *Service) Bind(token, handle string) error {
	tx := s.sessions.Lock()
	defer tx.Unlock()
	htx := s.handles.Lock()
	defer htx.Unlock()

	if bound, err := tx.Get(token); err == nil {
		if bound == handle {
			return nil
		}
		return ErrTokenBound
	}
	if _, err := htx.Get(handle); err == nil {
		return ErrHandleTaken
	}

	tx.Set(token, handle)
	htx.Set(handle, token)
	return nil
}

// Release invalidates token and returns the handle it was bound to.
func (s *Service) Release(token string) (string, error) {
	tx := s.sessions.Lock()
	defer tx.Unlock()
	htx := s.handles.Lock()
	defer htx.Unlock()

	handle, err := tx.Get(token)
	if err != nil {
		return "", ErrNotAuthenticated
	}
	_ = tx.Del(token)
	_ = htx.Del(handle)
	return handle, nil
}
