package kvstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/communityboard/board-client/internal/core/domain"
	"github.com/communityboard/board-client/internal/core/ports"
)

type entry struct {
	value     string
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryStore is a process-local KVStore. Sessions sharing one MemoryStore
// behave like tabs sharing browser storage.
type MemoryStore struct {
	mu     sync.Mutex
	data   map[string]entry
	now    func() time.Time
	events *broadcaster
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:   make(map[string]entry),
		now:    time.Now,
		events: newBroadcaster(),
	}
}

// Get returns the value under key.
func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.data[key]
	if !ok {
		return "", domain.ErrKeyNotFound
	}
	if e.expired(m.now()) {
		delete(m.data, key)
		return "", domain.ErrKeyNotFound
	}
	return e.value, nil
}

// Set stores value under key.
func (m *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.data[key] = e
	m.mu.Unlock()

	m.events.publish(ports.ChangeEvent{Keys: []string{key}})
	return nil
}

// SetMany stores all values under one lock.
func (m *MemoryStore) SetMany(_ context.Context, values map[string]string) error {
	keys := make([]string, 0, len(values))

	m.mu.Lock()
	for k, v := range values {
		m.data[k] = entry{value: v}
		keys = append(keys, k)
	}
	m.mu.Unlock()

	sort.Strings(keys)
	m.events.publish(ports.ChangeEvent{Keys: keys})
	return nil
}

// Delete removes keys.
func (m *MemoryStore) Delete(_ context.Context, keys ...string) error {
	removed := make([]string, 0, len(keys))

	m.mu.Lock()
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			removed = append(removed, k)
		}
	}
	m.mu.Unlock()

	m.events.publish(ports.ChangeEvent{Keys: removed, Deleted: true})
	return nil
}

// Subscribe streams every write made through this store.
func (m *MemoryStore) Subscribe(ctx context.Context) (<-chan ports.ChangeEvent, error) {
	return m.events.subscribe(ctx), nil
}
