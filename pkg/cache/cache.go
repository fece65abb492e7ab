// Package cache stores fetched query results between runs.
//
// Backends implementing [Cache]:
//
//   - [FileCache]: one JSON file per entry under a local directory (CLI default)
//   - [RedisCache]: a shared Redis instance (server deployments)
//   - [MemoryCache]: process memory, for a single server without Redis
//
// [Disabled] stands in when caching is turned off.
//
// Keys are produced by a [Keyer] so that every backend sees the same,
// filesystem-safe key for the same query.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
// A TTL of zero means the entry never expires.
type Cache interface {
	// Get returns the stored data and true, or false on a miss. Expired
	// entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
