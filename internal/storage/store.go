// Package storage provides the key-value abstraction bills are persisted in.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a key does not exist.
	ErrNotFound = errors.New("storage: key not found")

	// ErrConflict is returned by conditional writes when the stored value
	// no longer matches what the caller read.
	ErrConflict = errors.New("storage: value changed concurrently")
)

// Store defines the key-value operations the ledger needs.
// This abstraction allows swapping storage backends (Redis, SQLite)
// without changing the ledger.
type Store interface {
	// Get returns the value stored at key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value at key unconditionally.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// CompareAndSwap stores next at key only if the current value equals prev.
	// A nil prev requires the key to be absent. Returns ErrConflict otherwise.
	CompareAndSwap(ctx context.Context, key string, prev, next []byte) error

	// CompareAndDelete removes key only if the current value equals prev.
	// Returns ErrConflict if the value changed and ErrNotFound if it is gone.
	CompareAndDelete(ctx context.Context, key string, prev []byte) error

	// AddToSet adds member to the set at key.
	AddToSet(ctx context.Context, key, member string) error

	// RemoveFromSet removes member from the set at key.
	RemoveFromSet(ctx context.Context, key, member string) error

	// Members returns every member of the set at key, in no particular order.
	Members(ctx context.Context, key string) ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}
