package query

import (
	"bytes"
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lineage/pkg/cache"
	"github.com/matzehuels/lineage/pkg/observability"
	"github.com/matzehuels/lineage/pkg/rows"
)

// CachedFetcher serves repeated queries from a [cache.Cache]. Cache failures
// are logged and fall through to the wrapped fetcher; fetch errors are never
// cached.
type CachedFetcher struct {
	Inner   Fetcher
	Cache   cache.Cache
	Keyer   cache.Keyer
	Source  string // distinguishes warehouses or files sharing one cache
	TTL     time.Duration
	Refresh bool // skip lookups but still store fresh results
	Logger  *log.Logger
}

// Fetch returns the cached result for query or fetches and stores it.
func (f *CachedFetcher) Fetch(ctx context.Context, query string) (rows.ResultSet, error) {
	logger := f.Logger
	if logger == nil {
		logger = log.Default()
	}
	keyer := f.Keyer
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	key := keyer.QueryKey(f.Source, query)

	if !f.Refresh {
		data, hit, err := f.Cache.Get(ctx, key)
		switch {
		case err != nil:
			logger.Warn("cache read failed", "err", err)
		case hit:
			rs, err := rows.Unmarshal(data)
			if err == nil {
				observability.CacheLookup(ctx, true)
				logger.Debug("cache hit", "key", key, "rows", len(rs.Rows))
				return rs, nil
			}
			logger.Warn("discarding unreadable cache entry", "key", key, "err", err)
		}
		observability.CacheLookup(ctx, false)
	}

	rs, err := f.Inner.Fetch(ctx, query)
	if err != nil {
		return rows.ResultSet{}, err
	}

	var buf bytes.Buffer
	if err := rows.Encode(&buf, rs); err != nil {
		logger.Warn("cache encode failed", "err", err)
		return rs, nil
	}
	if err := f.Cache.Set(ctx, key, buf.Bytes(), f.TTL); err != nil {
		logger.Warn("cache write failed", "err", err)
		return rs, nil
	}
	observability.CacheStored(ctx, buf.Len())
	return rs, nil
}
