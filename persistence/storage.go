// Package persistence keeps the durable copy of the cart in a key-value store.
package persistence

import (
	"context"
	"sync"
)

// Storage is a durable key-value store holding serialized carts.
type Storage interface {
	// Load returns the value stored under key. found is false when nothing was saved yet.
	Load(ctx context.Context, key string) (data []byte, found bool, err error)
	// Save replaces the value stored under key.
	Save(ctx context.Context, key string, data []byte) error
}

var _ Storage = (*MemoryStorage)(nil)

// MemoryStorage keeps values in process memory. It backs local runs and tests.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string][]byte)}
}

func (m *MemoryStorage) Load(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true, nil
}

func (m *MemoryStorage) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	m.values[key] = stored
	return nil
}
