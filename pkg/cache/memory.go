package cache

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Disabled is the cache used when caching is turned off: every Get misses
// and every write is dropped.
var Disabled Cache = disabled{}

type disabled struct{}

func (disabled) Get(context.Context, string) ([]byte, bool, error)         { return nil, false, nil }
func (disabled) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (disabled) Delete(context.Context, string) error                     { return nil }
func (disabled) Close() error                                             { return nil }

// MemoryCache keeps entries in process memory. It suits a single
// long-running server that has no Redis at hand; entries are lost on exit.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	data    []byte
	expires time.Time // zero for no expiry
}

// NewMemoryCache returns an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !c.now().Before(e.expires) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return slices.Clone(e.data), true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	e := memoryEntry{data: slices.Clone(data)}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Len reports the number of stored entries, expired ones included until
// their next lookup.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close drops all entries.
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	clear(c.entries)
	c.mu.Unlock()
	return nil
}

var _ Cache = (*MemoryCache)(nil)
