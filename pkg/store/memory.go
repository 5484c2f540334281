package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-process KV implementation with the same semantics as
// the Redis adapter. It backs tests and single-process deployments where an
// external store is not worth running.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
	sets   map[string]map[string]struct{}
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string][]byte),
		sets:   make(map[string]map[string]struct{}),
	}
}

func (s *MemoryStore) Put(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(key, value)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (s *MemoryStore) MGet(ctx context.Context, keys ...string) ([][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([][]byte, len(keys))
	for i, key := range keys {
		if value, ok := s.values[key]; ok {
			out[i] = make([]byte, len(value))
			copy(out[i], value)
		}
	}
	return out, nil
}

func (s *MemoryStore) SAdd(ctx context.Context, key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sadd(key, members)
	return nil
}

func (s *MemoryStore) SMembers(ctx context.Context, key string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.sets[key]
	if !ok {
		return nil, nil
	}
	members := make([]string, 0, len(set))
	for m := range set {
		members = append(members, m)
	}
	return members, nil
}

func (s *MemoryStore) NewBatch() Batch {
	return &memoryBatch{store: s}
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) DBSize(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.values) + len(s.sets)), nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// callers hold s.mu
func (s *MemoryStore) put(key string, value []byte) {
	stored := make([]byte, len(value))
	copy(stored, value)
	s.values[key] = stored
}

func (s *MemoryStore) sadd(key string, members []string) {
	set, ok := s.sets[key]
	if !ok {
		set = make(map[string]struct{})
		s.sets[key] = set
	}
	for _, m := range members {
		set[m] = struct{}{}
	}
}

type batchOp struct {
	set     bool
	key     string
	value   []byte
	members []string
}

// memoryBatch applies all queued writes under a single lock acquisition, so
// a flush is atomic with respect to concurrent readers.
type memoryBatch struct {
	store *MemoryStore
	ops   []batchOp
}

func (b *memoryBatch) Put(key string, value []byte) {
	stored := make([]byte, len(value))
	copy(stored, value)
	b.ops = append(b.ops, batchOp{key: key, value: stored})
}

func (b *memoryBatch) SAdd(key string, members ...string) {
	if len(members) == 0 {
		return
	}
	b.ops = append(b.ops, batchOp{set: true, key: key, members: members})
}

func (b *memoryBatch) Len() int {
	return len(b.ops)
}

func (b *memoryBatch) Flush(ctx context.Context) error {
	if len(b.ops) == 0 {
		return nil
	}
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	for _, op := range b.ops {
		if op.set {
			b.store.sadd(op.key, op.members)
		} else {
			b.store.values[op.key] = op.value
		}
	}
	b.ops = b.ops[:0]
	return nil
}
