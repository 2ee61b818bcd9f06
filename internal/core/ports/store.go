package ports

import (
	"context"
	"time"
)

// ChangeEvent reports keys written or deleted in a KVStore, possibly by
// another client sharing the same store.
type ChangeEvent struct {
	Keys    []string
	Deleted bool
}

// KVStore is the persisted client-side key-value namespace. It may be shared
// by several sessions (tabs, processes) at once; concurrent writers follow a
// last-writer-wins policy and there is no locking across sharers.
type KVStore interface {
	// Get returns domain.ErrKeyNotFound for absent or expired keys.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key. A ttl <= 0 never expires.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// SetMany stores all values in one write.
	SetMany(ctx context.Context, values map[string]string) error
	// Delete removes keys in one write. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
	// Subscribe streams change events until ctx is done.
	Subscribe(ctx context.Context) (<-chan ChangeEvent, error)
}
