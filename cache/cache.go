package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("cache: key not found")
	// ErrUnavailable reports that the backing store could not be reached. It is
	// never fatal to callers of Cache.
	ErrUnavailable = errors.New("cache: backend unavailable")
)

// DefaultTTL is how long entries live when no TTL is configured.
const DefaultTTL = 24 * time.Hour

// Store represents a simple TTL-based cache abstraction that can be backed
// by memory, Redis, or any other KV store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// Keys lists live keys matching a glob pattern (*, ? and [...] classes).
	Keys(ctx context.Context, pattern string) ([]string, error)
}
