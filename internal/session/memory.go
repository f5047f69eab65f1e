package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// MemoryStore keeps drafts in process.  It backs the editor when Redis is
// unavailable and in tests.  Sessions are stored encoded so that callers
// never share a *Session with the store.
type MemoryStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]memoryEntry
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// NewMemoryStore returns an empty store.  A non-positive ttl falls back to
// DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{ttl: ttl, now: time.Now, items: map[string]memoryEntry{}}
}

func (m *MemoryStore) Create(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()
	if _, ok := m.items[s.ID]; ok {
		return fmt.Errorf("layout session %s already exists", s.ID)
	}
	s.Version = 1
	return m.put(s)
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(id)
}

// Update holds the lock across fn, so writers never race and no retry is
// needed.
func (m *MemoryStore) Update(_ context.Context, id string, fn func(*Session) error) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.get(id)
	if err != nil {
		return nil, err
	}
	if err := fn(s); err != nil {
		return nil, err
	}
	s.Version++
	s.UpdatedAt = m.now().UTC()
	if err := m.put(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

// Len reports the number of live sessions.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()
	return len(m.items)
}

func (m *MemoryStore) get(id string) (*Session, error) {
	e, ok := m.items[id]
	if !ok || !m.now().Before(e.expires) {
		delete(m.items, id)
		return nil, ErrNotFound
	}
	var s Session
	if err := json.Unmarshal(e.data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *MemoryStore) put(s *Session) error {
	bs, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.items[s.ID] = memoryEntry{data: bs, expires: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryStore) sweep() {
	now := m.now()
	for id, e := range m.items {
		if !now.Before(e.expires) {
			delete(m.items, id)
		}
	}
}
