// Package cache provides response caching for the external registry and
// repository clients.
//
// Entries are opaque byte slices with an optional time-to-live. The
// FileCache backend persists entries on disk under SHA-256 hashed names so
// repeated generator runs don't rehit the remote APIs; NullCache disables
// caching entirely (used in tests and with --cache-ttl=0).
package cache

import (
	"context"
	"time"
)

// Cache stores raw response bytes under string keys.
//
// Implementations must treat an expired or missing entry as a plain miss;
// Get never returns stale data.
type Cache interface {
	// Get retrieves a value. The second return value reports whether the
	// key was present and fresh.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of 0 means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the backend.
	Close() error
}
