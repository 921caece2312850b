// Package theme holds the dark mode preference.
package theme

import (
	"context"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/moviedeck/moviedeck/internal/kvstore"
)

const (
	KeyDarkMode  = "darkMode"
	EventChanged = "theme:changed"
)

// Broadcaster pushes theme changes to connected clients.
type Broadcaster interface {
	Broadcast(msgType string, payload any)
}

// Snapshot is the theme read model.
type Snapshot struct {
	DarkMode bool `json:"darkMode"`
}

// Service holds the dark mode flag.
type Service struct {
	store       kvstore.Store
	preferDark  bool
	logger      zerolog.Logger
	broadcaster Broadcaster

	mu   sync.RWMutex
	dark bool
}

// NewService creates a theme service. preferDark is the ambient preference
// used when nothing has been stored yet.
func NewService(store kvstore.Store, preferDark bool, logger zerolog.Logger) *Service {
	return &Service{
		store:      store,
		preferDark: preferDark,
		dark:       preferDark,
		logger:     logger.With().Str("component", "theme").Logger(),
	}
}

// SetBroadcaster sets the broadcaster for theme change events.
func (s *Service) SetBroadcaster(b Broadcaster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcaster = b
}

// Restore loads the stored preference. Any stored value wins over the
// ambient preference; only "true" means dark.
func (s *Service) Restore(ctx context.Context) error {
	v, ok, err := s.store.Get(ctx, KeyDarkMode)
	if err != nil {
		return err
	}

	dark := s.preferDark
	if ok {
		dark = v == "true"
		if v != "true" && v != "false" {
			s.logger.Warn().Str("value", v).Msg("Unrecognized stored dark mode value, using light mode")
		}
	}

	s.mu.Lock()
	s.dark = dark
	s.mu.Unlock()
	return nil
}

// Toggle flips dark mode and persists it. If the write fails the mode is
// unchanged. Returns the resulting mode.
func (s *Service) Toggle(ctx context.Context) (bool, error) {
	s.mu.Lock()
	next := !s.dark
	if err := s.store.Set(ctx, KeyDarkMode, strconv.FormatBool(next)); err != nil {
		current := s.dark
		s.mu.Unlock()
		s.logger.Error().Err(err).Msg("Failed to persist dark mode")
		return current, err
	}
	s.dark = next
	b := s.broadcaster
	s.mu.Unlock()

	s.logger.Debug().Bool("dark_mode", next).Msg("Theme toggled")
	if b != nil {
		b.Broadcast(EventChanged, Snapshot{DarkMode: next})
	}
	return next, nil
}

// DarkMode reports whether dark mode is on.
func (s *Service) DarkMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dark
}

// Snapshot returns the current theme state.
func (s *Service) Snapshot() Snapshot {
	return Snapshot{DarkMode: s.DarkMode()}
}
