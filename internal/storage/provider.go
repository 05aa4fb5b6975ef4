// Package storage defines the durable key/value surface the session and
// document stores persist to.
package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidKey is returned for keys outside [A-Za-z0-9._-].
var ErrInvalidKey = errors.New("storage: invalid key")

// Provider is a synchronous, single-key durable store. Each operation is
// atomic for its key; concurrent writers to the same key race and the
// last writer wins.
type Provider interface {
	// Get returns the value stored under key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
	// Close releases the backend.
	Close() error
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ValidateKey rejects keys that cannot be stored portably by every backend.
func ValidateKey(key string) error {
	if !keyPattern.MatchString(key) || key == "." || key == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
