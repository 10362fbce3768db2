// Package store provides a process-local key-value cache with TTL support.
package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("store: key not found")

// Store is the interface for a byte-oriented cache with per-key expiry.
type Store interface {
	// Set stores a key-value pair. A ttl of 0 means no expiry.
	Set(key string, value []byte, ttl time.Duration) error

	// Get retrieves a value by key, returning ErrNotFound for missing or expired keys.
	Get(key string) ([]byte, error)

	// Delete removes a key.
	Delete(key string) error

	// Exists reports whether a key exists and has not expired.
	Exists(key string) (bool, error)

	// Clear removes all keys.
	Clear() error

	// Close releases any resources held by the store.
	Close() error
}
