/*
Package store defines the key-value surface the search engine is built on,
plus the adapters that implement it.

The engine needs very little from its store: plain get/put for serialized
records, idempotent set membership for the name and prefix indexes, and a
batch primitive so the bulk loader can flush thousands of writes in one
round trip. Redis covers all of that natively; the in-memory adapter mirrors
the same semantics for tests and single-process setups.
*/
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has no value.
// Absence is an expected outcome, not a transport failure.
var ErrNotFound = errors.New("store: key not found")

// KV is the minimal key-value contract shared by all adapters.
// All methods are safe for concurrent use.
type KV interface {
	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// MGet fetches many keys in one round trip. The result has one slot per
	// requested key, in order; missing keys yield a nil slot.
	MGet(ctx context.Context, keys ...string) ([][]byte, error)

	// SAdd adds members to the set stored under key. Adding an existing
	// member is a no-op.
	SAdd(ctx context.Context, key string, members ...string) error

	// SMembers returns every member of the set under key. An unknown key
	// yields an empty set, not an error. Order is unspecified.
	SMembers(ctx context.Context, key string) ([]string, error)

	// NewBatch returns an empty write batch bound to this store.
	NewBatch() Batch

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// DBSize reports the total number of keys, for diagnostics only.
	DBSize(ctx context.Context) (int64, error)

	// Close releases the underlying transport.
	Close() error
}

// Batch accumulates writes and applies them in a single flush. A batch is
// not safe for concurrent use; the loader owns one at a time.
type Batch interface {
	// Put queues a value write.
	Put(key string, value []byte)

	// SAdd queues a set-membership write.
	SAdd(key string, members ...string)

	// Len reports the number of queued writes.
	Len() int

	// Flush applies every queued write. After Flush the batch must not be
	// reused; callers obtain a fresh one from KV.NewBatch.
	Flush(ctx context.Context) error
}
