package storage

import (
	"sync"
	"time"
)

// memoryStore is an in-process seen-set with the same TTL semantics as boltStore.
type memoryStore struct {
	mu              sync.Mutex
	expiry          map[string]time.Time
	lastCleanup     time.Time
	itemTTL         time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
}

func newMemoryStore(opts Options) *memoryStore {
	return &memoryStore{
		expiry:          make(map[string]time.Time),
		lastCleanup:     time.Now(),
		itemTTL:         opts.ItemTTL,
		cleanupInterval: opts.CleanupInterval,
		now:             time.Now,
	}
}

func (m *memoryStore) Close() error {
	m.mu.Lock()
	m.expiry = make(map[string]time.Time)
	m.mu.Unlock()
	return nil
}

func (m *memoryStore) SeenItem(id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.cleanupLocked(now)
	exp, ok := m.expiry[id]
	if !ok {
		return false, nil
	}
	if !exp.After(now) {
		delete(m.expiry, id)
		return false, nil
	}
	return true, nil
}

func (m *memoryStore) MarkItem(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.cleanupLocked(now)
	m.expiry[id] = now.Add(m.itemTTL)
	return nil
}

func (m *memoryStore) cleanupLocked(now time.Time) {
	if now.Sub(m.lastCleanup) < m.cleanupInterval {
		return
	}
	for id, exp := range m.expiry {
		if !exp.After(now) {
			delete(m.expiry, id)
		}
	}
	m.lastCleanup = now
}
