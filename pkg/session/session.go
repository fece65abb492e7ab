// Package session keeps the explorers behind the HTTP API.
//
// Every client that creates a session gets its own [explorer.Explorer],
// addressed by a random UUID. Sessions expire after a period without use;
// each successful lookup pushes the expiry out again.
//
// Sessions live in memory only. A restarted server forgets them and clients
// create a new one from their query.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/lineage/pkg/explorer"
)

var (
	// ErrNotFound is returned when a session does not exist.
	ErrNotFound = errors.New("session not found")

	// ErrExpired is returned when a session exists but has expired.
	ErrExpired = errors.New("session expired")
)

// DefaultTTL is the default idle time after which a session expires.
const DefaultTTL = 2 * time.Hour

// Session is one client's explorer.
type Session struct {
	ID        string
	Explorer  *explorer.Explorer
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsExpired reports whether the session has expired at now.
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// GenerateID returns a new random session ID.
func GenerateID() string {
	return uuid.NewString()
}

// New creates a session for ex that expires after ttl.
func New(ex *explorer.Explorer, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:        GenerateID(),
		Explorer:  ex,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID and extends its expiry.
	// Returns ErrNotFound or ErrExpired when there is no usable session.
	Get(ctx context.Context, id string) (*Session, error)

	// Set stores a session.
	Set(ctx context.Context, s *Session) error

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// Cleanup removes expired sessions and returns how many were removed.
	Cleanup(ctx context.Context) (int, error)
}

// MemoryStore is an in-process [Store].
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore creates an empty store. Lookups extend a session's expiry
// by ttl; a non-positive ttl means [DefaultTTL].
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// TTL returns the idle timeout of the store.
func (m *MemoryStore) TTL() time.Duration { return m.ttl }

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	now := m.now()
	if s.IsExpired(now) {
		delete(m.sessions, id)
		return nil, ErrExpired
	}
	s.ExpiresAt = now.Add(m.ttl)
	return s, nil
}

func (m *MemoryStore) Set(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MemoryStore) Cleanup(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for id, s := range m.sessions {
		if s.IsExpired(now) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// RunCleanup calls Cleanup every interval until ctx is done.
func RunCleanup(ctx context.Context, s Store, interval time.Duration, onRemoved func(int)) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := s.Cleanup(ctx)
			if err == nil && n > 0 && onRemoved != nil {
				onRemoved(n)
			}
		}
	}
}
