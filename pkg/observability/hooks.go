// Package observability lets an application watch lineage at work without
// the libraries depending on a metrics backend.
//
// Libraries report events through the package-level functions ([TreeMutated],
// [CacheLookup], [QueryCall], ...). Nothing happens unless a [Hooks] value
// has been registered:
//
//	var c observability.Counters
//	observability.Register(c.Hooks())
//	// ... later
//	fmt.Println(c.Snapshot())
//
// Every field of [Hooks] is optional.
package observability

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Call describes one finished request to the query service.
type Call struct {
	Method   string
	Host     string
	Path     string
	Status   int // 0 when no response arrived
	Duration time.Duration
	Err      error // transport error, nil when a response arrived
}

// Hooks holds the callbacks invoked for each event. Tree callbacks run
// under the explorer's lock and must not call back into it.
type Hooks struct {
	TreeMutated func(op string, nodes, edges int)
	TreeLaidOut func(nodes int, took time.Duration, err error)
	CacheLookup func(ctx context.Context, hit bool)
	CacheStored func(ctx context.Context, size int)
	QueryCall   func(ctx context.Context, c Call)
}

var (
	mu    sync.RWMutex
	hooks Hooks
)

// Register replaces the registered hooks. Call it once at startup.
func Register(h Hooks) {
	mu.Lock()
	hooks = h
	mu.Unlock()
}

// Reset removes all hooks.
func Reset() { Register(Hooks{}) }

func current() Hooks {
	mu.RLock()
	defer mu.RUnlock()
	return hooks
}

// TreeMutated reports a committed initialize, expand or collapse.
func TreeMutated(op string, nodes, edges int) {
	if f := current().TreeMutated; f != nil {
		f(op, nodes, edges)
	}
}

// TreeLaidOut reports a full layout run.
func TreeLaidOut(nodes int, took time.Duration, err error) {
	if f := current().TreeLaidOut; f != nil {
		f(nodes, took, err)
	}
}

// CacheLookup reports a result cache read.
func CacheLookup(ctx context.Context, hit bool) {
	if f := current().CacheLookup; f != nil {
		f(ctx, hit)
	}
}

// CacheStored reports a result cache write of size bytes.
func CacheStored(ctx context.Context, size int) {
	if f := current().CacheStored; f != nil {
		f(ctx, size)
	}
}

// QueryCall reports a finished request to the query service.
func QueryCall(ctx context.Context, c Call) {
	if f := current().QueryCall; f != nil {
		f(ctx, c)
	}
}

// Counters tallies events. The zero value is ready to use.
type Counters struct {
	mutations   atomic.Int64
	layouts     atomic.Int64
	layoutFails atomic.Int64
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
	queryCalls  atomic.Int64
	queryFails  atomic.Int64
}

// Hooks returns hooks that feed c.
func (c *Counters) Hooks() Hooks {
	return Hooks{
		TreeMutated: func(string, int, int) { c.mutations.Add(1) },
		TreeLaidOut: func(_ int, _ time.Duration, err error) {
			c.layouts.Add(1)
			if err != nil {
				c.layoutFails.Add(1)
			}
		},
		CacheLookup: func(_ context.Context, hit bool) {
			if hit {
				c.cacheHits.Add(1)
			} else {
				c.cacheMisses.Add(1)
			}
		},
		QueryCall: func(_ context.Context, call Call) {
			c.queryCalls.Add(1)
			if call.Err != nil || call.Status >= 400 {
				c.queryFails.Add(1)
			}
		},
	}
}

// Snapshot returns the current counts keyed by event name.
func (c *Counters) Snapshot() map[string]int64 {
	return map[string]int64{
		"tree_mutations":      c.mutations.Load(),
		"layouts":             c.layouts.Load(),
		"layout_failures":     c.layoutFails.Load(),
		"cache_hits":          c.cacheHits.Load(),
		"cache_misses":        c.cacheMisses.Load(),
		"query_calls":         c.queryCalls.Load(),
		"query_call_failures": c.queryFails.Load(),
	}
}
