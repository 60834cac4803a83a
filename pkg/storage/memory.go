package storage

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// MemoryStore implements Store with an in-process map. State is lost on
// restart; the reconciler rebuilds it from remote truth on the next poll.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
	logger *zap.Logger
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	logger.Info("memory-store-initialized")
	return &MemoryStore{
		values: make(map[string][]byte),
		logger: logger,
	}
}

// Get returns the value stored under key.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}

	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

// Put stores value under key.
func (m *MemoryStore) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	m.values[key] = stored

	return nil
}

// Close is a no-op for memory storage.
func (m *MemoryStore) Close() error {
	m.logger.Info("closing-memory-store")
	return nil
}
