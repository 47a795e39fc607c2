package kvstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no value exists under the key.
// Records whose stored envelope fails to decode are also reported as
// not found, so a shape change never surfaces as a decode error.
var ErrNotFound = errors.New("kvstore: record not found")

// Store is a flat namespaced key-value store. Writes are last-write-wins;
// there is exactly one writer per user by construction, so no store-level
// locking is provided. Delete is idempotent.
type Store interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
