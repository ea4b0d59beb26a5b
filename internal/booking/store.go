package booking

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionStore keeps encoded form snapshots between requests. Get returns
// nil data and no error when the session does not exist or has expired.
type SessionStore interface {
	Get(ctx context.Context, id uuid.UUID) ([]byte, error)
	Set(ctx context.Context, id uuid.UUID, data []byte, ttl time.Duration) error
	Del(ctx context.Context, id uuid.UUID) error
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore is a single-process SessionStore. Expired entries are dropped
// on read and by Sweep.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[uuid.UUID]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[uuid.UUID]memoryEntry), now: time.Now}
}

func (m *MemoryStore) Get(_ context.Context, id uuid.UUID) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return nil, nil
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		delete(m.entries, id)
		return nil, nil
	}
	return append([]byte(nil), e.data...), nil
}

func (m *MemoryStore) Set(_ context.Context, id uuid.UUID, data []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := memoryEntry{data: append([]byte(nil), data...)}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.entries[id] = e
	return nil
}

func (m *MemoryStore) Del(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

// Sweep drops every expired session and reports how many were removed.
func (m *MemoryStore) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, e := range m.entries {
		if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
			delete(m.entries, id)
			removed++
		}
	}
	return removed
}

// Len is the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
