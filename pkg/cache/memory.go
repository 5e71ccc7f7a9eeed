package cache

import (
	"context"
	"sync"
)

// MemoryCache keeps entries for the lifetime of the process
type MemoryCache struct {
	entries map[string]*Entry
	mu      sync.RWMutex
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]*Entry)}
}

func (m *MemoryCache) Get(ctx context.Context, id string) (*Entry, error) {
	m.mu.RLock()
	entry, ok := m.entries[Key(id)]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrCacheMiss
	}
	if entry.IsExpired() {
		m.mu.Lock()
		delete(m.entries, Key(id))
		m.mu.Unlock()
		return nil, ErrCacheMiss
	}
	return entry, nil
}

func (m *MemoryCache) Set(ctx context.Context, id string, entry *Entry) error {
	if entry == nil || entry.TTL() <= 0 {
		return nil
	}
	m.mu.Lock()
	m.entries[Key(id)] = entry
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included
func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *MemoryCache) Close() error {
	return nil
}
