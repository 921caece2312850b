// Package kvstore is the durable string key/value store behind the client
// state: favorites, session user, theme and the last search query.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrCorrupt marks a stored value that could not be decoded.
var ErrCorrupt = errors.New("stored value is corrupt")

// Store gets, sets and removes string values by key.
// A missing key is reported through ok, never as an error.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// LoadJSON decodes the value under key into v. It reports false when the key
// is absent and wraps ErrCorrupt when the stored text is not valid JSON for v.
func LoadJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return true, fmt.Errorf("%w: key %q: %v", ErrCorrupt, key, err)
	}
	return true, nil
}

// SaveJSON encodes v and stores it under key.
func SaveJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %q: %w", key, err)
	}
	return s.Set(ctx, key, string(data))
}
