package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for single-node runs and tests.
type MemoryStore struct {
	mu        sync.Mutex
	ttl       time.Duration
	now       func() time.Time
	entries   map[string]memoryEntry
	nextSweep time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryStore returns a store whose keys expire ttl after their last use. A zero ttl never expires.
// Expired keys are dropped when read and swept at most once per ttl on write.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (m *MemoryStore) Get(_ context.Context, sessionID, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := sessionKey(sessionID, key)
	e, ok := m.lookup(k)
	if !ok {
		return nil, ErrNotFound
	}
	m.refresh(k, e)

	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

func (m *MemoryStore) Set(_ context.Context, sessionID, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweep()
	v := make([]byte, len(value))
	copy(v, value)
	m.refresh(sessionKey(sessionID, key), memoryEntry{value: v})
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, sessionID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, sessionKey(sessionID, key))
	return nil
}

func (m *MemoryStore) Touch(_ context.Context, sessionID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := sessionKey(sessionID, key)
	e, ok := m.lookup(k)
	if !ok {
		return ErrNotFound
	}
	m.refresh(k, e)
	return nil
}

// Len counts stored entries, including expired ones not yet swept.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// lookup requires m.mu. An expired entry is deleted on the way out.
func (m *MemoryStore) lookup(k string) (memoryEntry, bool) {
	e, ok := m.entries[k]
	if !ok {
		return memoryEntry{}, false
	}
	if m.expired(e) {
		delete(m.entries, k)
		return memoryEntry{}, false
	}
	return e, true
}

// refresh requires m.mu.
func (m *MemoryStore) refresh(k string, e memoryEntry) {
	if m.ttl > 0 {
		e.expiresAt = m.now().Add(m.ttl)
	}
	m.entries[k] = e
}

// sweep requires m.mu.
func (m *MemoryStore) sweep() {
	if m.ttl <= 0 {
		return
	}
	now := m.now()
	if now.Before(m.nextSweep) {
		return
	}
	for k, e := range m.entries {
		if m.expired(e) {
			delete(m.entries, k)
		}
	}
	m.nextSweep = now.Add(m.ttl)
}

func (m *MemoryStore) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt)
}
