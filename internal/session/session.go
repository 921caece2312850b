// Package session tracks the signed-in user. There is no credential check:
// login validates the form locally, waits a fixed latency and records the
// username.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/moviedeck/moviedeck/internal/kvstore"
)

// KeyUser is the store key of the signed-in user.
const KeyUser = "user"

// EventChanged is broadcast with a Snapshot whenever the session changes.
const EventChanged = "session:changed"

const (
	minUsernameLength = 3
	minPasswordLength = 6
)

var ErrValidationFailed = errors.New("validation failed")

// ValidationError is a login form error targeted at one field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// User is the signed-in identity.
type User struct {
	Username string `json:"username"`
}

// Snapshot is the session read model. Authenticated is true exactly when
// User is set.
type Snapshot struct {
	Authenticated bool   `json:"isAuthenticated"`
	User          *User  `json:"user"`
	Loading       bool   `json:"isLoading"`
	Error         string `json:"error,omitempty"`
}

// Broadcaster pushes session changes to connected clients.
type Broadcaster interface {
	Broadcast(msgType string, payload any)
}

// Service holds the session state.
type Service struct {
	store       kvstore.Store
	clock       clockwork.Clock
	latency     time.Duration
	logger      zerolog.Logger
	broadcaster Broadcaster

	mu      sync.RWMutex
	user    *User
	loading bool
	lastErr string
}

// NewService creates a session service. latency is the simulated sign-in
// delay; zero or less skips the wait.
func NewService(store kvstore.Store, clock clockwork.Clock, latency time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		store:   store,
		clock:   clock,
		latency: latency,
		logger:  logger.With().Str("component", "session").Logger(),
	}
}

// SetBroadcaster sets the broadcaster for session change events.
func (s *Service) SetBroadcaster(b Broadcaster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcaster = b
}

// Restore signs in the user persisted by a previous run. A malformed stored
// user is removed and the session stays signed out.
func (s *Service) Restore(ctx context.Context) error {
	var user User
	found, err := kvstore.LoadJSON(ctx, s.store, KeyUser, &user)
	if err == nil && found && strings.TrimSpace(user.Username) == "" {
		err = kvstore.ErrCorrupt
	}

	switch {
	case errors.Is(err, kvstore.ErrCorrupt):
		s.logger.Warn().Err(err).Msg("Discarding malformed stored user")
		return s.store.Remove(ctx, KeyUser)
	case err != nil:
		return err
	case !found:
		return nil
	}

	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()

	s.logger.Info().Str("username", user.Username).Msg("Restored session")
	return nil
}

// Login validates the credentials, waits the simulated latency and signs the
// user in. Validation failures are *ValidationError and leave the signed-in
// user unchanged.
func (s *Service) Login(ctx context.Context, username, password string) error {
	s.mu.Lock()
	s.loading = true
	s.lastErr = ""
	s.mu.Unlock()
	s.broadcastSnapshot()

	if err := validate(username, password); err != nil {
		s.finish(err.Error())
		return err
	}

	if s.latency > 0 {
		select {
		case <-s.clock.After(s.latency):
		case <-ctx.Done():
			s.finish("")
			return ctx.Err()
		}
	}

	user := User{Username: username}
	if err := kvstore.SaveJSON(ctx, s.store, KeyUser, user); err != nil {
		s.logger.Error().Err(err).Msg("Failed to persist user")
		s.finish("An unexpected error occurred")
		return err
	}

	s.mu.Lock()
	s.user = &user
	s.loading = false
	s.mu.Unlock()

	s.logger.Info().Str("username", username).Msg("User signed in")
	s.broadcastSnapshot()
	return nil
}

// Logout removes the persisted user and signs out.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.store.Remove(ctx, KeyUser); err != nil {
		return err
	}

	s.mu.Lock()
	s.user = nil
	s.lastErr = ""
	s.mu.Unlock()

	s.logger.Info().Msg("User signed out")
	s.broadcastSnapshot()
	return nil
}

// IsAuthenticated reports whether a user is signed in.
func (s *Service) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// Snapshot returns the current session state.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Service) snapshotLocked() Snapshot {
	snap := Snapshot{
		Authenticated: s.user != nil,
		Loading:       s.loading,
		Error:         s.lastErr,
	}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

func (s *Service) finish(errMsg string) {
	s.mu.Lock()
	s.loading = false
	s.lastErr = errMsg
	s.mu.Unlock()
	s.broadcastSnapshot()
}

func (s *Service) broadcastSnapshot() {
	s.mu.RLock()
	b := s.broadcaster
	snap := s.snapshotLocked()
	s.mu.RUnlock()
	if b != nil {
		b.Broadcast(EventChanged, snap)
	}
}

// validate checks the login form in the order the fields are shown.
func validate(username, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		field := "username"
		if strings.TrimSpace(username) != "" {
			field = "password"
		}
		return &ValidationError{Field: field, Message: "Username and password are required"}
	}
	if utf8.RuneCountInString(username) < minUsernameLength {
		return &ValidationError{Field: "username", Message: "Username must be at least 3 characters"}
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return &ValidationError{Field: "password", Message: "Password must be at least 6 characters"}
	}
	return nil
}
