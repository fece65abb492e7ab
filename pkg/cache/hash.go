package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Keyer builds cache keys for query results.
type Keyer interface {
	// QueryKey returns the key for the result of query against source, where
	// source names the warehouse or file the rows came from.
	QueryKey(source, query string) string
}

// DefaultKeyer hashes the normalized query text.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// QueryKey hashes source and the query with runs of whitespace collapsed, so
// reformatting a query does not miss the cache.
func (DefaultKeyer) QueryKey(source, query string) string {
	return hashKey("query", source, strings.Join(strings.Fields(query), " "))
}

// ScopedKeyer prefixes every key, isolating tenants that share one backend.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer defaults
// to [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// QueryKey returns the prefixed key.
func (k *ScopedKeyer) QueryKey(source, query string) string {
	return k.prefix + k.inner.QueryKey(source, query)
}

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return fmt.Sprintf("%s:%s", prefix, Hash(data))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
