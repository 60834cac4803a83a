package storage

import (
	"context"
)

// Store is the interface for persisting ledger state as JSON documents
// keyed by name. Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value stored under key. The second return value
	// reports whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put stores value under key, replacing any existing value.
	Put(ctx context.Context, key string, value []byte) error

	// Close closes the storage connection.
	Close() error
}

// Well-known ledger document keys.
const (
	KeyOrders    = "orders"
	KeyPositions = "positions"
	KeyLastCycle = "last_cycle"
)
