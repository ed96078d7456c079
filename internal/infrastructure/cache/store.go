package cache

import (
	"context"
	"time"
)

// Store is a minimal key-value cache with TTL semantics. Both the lock
// manager and the projection cache are built on it.
type Store interface {
	// Get returns the value for key. The second return is false when the
	// key does not exist or has expired.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// SetNX sets key only if it does not already exist. Returns true if
	// the key was newly set.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
	// DeleteByPrefix removes every key under the given prefix
	DeleteByPrefix(ctx context.Context, prefix string) error
	Ping(ctx context.Context) error
	Close() error
}
