package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorePutGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, "city:1", []byte(`{"id":1}`)))

	got, err := s.Get(ctx, "city:1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"id":1}`), got)

	_, err = s.Get(ctx, "city:2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStorePutOverwrites(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, "k", []byte("old")))
	require.NoError(t, s.Put(ctx, "k", []byte("new")))

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got)
}

func TestMemoryStoreMGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, "a", []byte("1")))
	require.NoError(t, s.Put(ctx, "c", []byte("3")))

	values, err := s.MGet(ctx, "a", "b", "c")
	require.NoError(t, err)
	require.Len(t, values, 3)
	assert.Equal(t, []byte("1"), values[0])
	assert.Nil(t, values[1])
	assert.Equal(t, []byte("3"), values[2])
}

func TestMemoryStoreSetMembership(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.SAdd(ctx, "search:sh", "1", "2"))
	require.NoError(t, s.SAdd(ctx, "search:sh", "2")) // duplicate add is a no-op

	members, err := s.SMembers(ctx, "search:sh")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1", "2"}, members)

	empty, err := s.SMembers(ctx, "search:zz")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryStoreBatch(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	batch := s.NewBatch()
	batch.Put("city:1", []byte(`{"id":1}`))
	batch.SAdd("name:x", "1")
	batch.SAdd("search:x", "1")
	assert.Equal(t, 3, batch.Len())

	// Nothing visible before the flush.
	_, err := s.Get(ctx, "city:1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, batch.Flush(ctx))

	got, err := s.Get(ctx, "city:1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"id":1}`), got)

	members, err := s.SMembers(ctx, "search:x")
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, members)
}

func TestMemoryStoreEmptyBatchFlush(t *testing.T) {
	s := NewMemoryStore()
	batch := s.NewBatch()
	assert.Equal(t, 0, batch.Len())
	assert.NoError(t, batch.Flush(context.Background()))
}

func TestMemoryStoreDBSize(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, "city:1", []byte("x")))
	require.NoError(t, s.SAdd(ctx, "name:a", "1"))
	require.NoError(t, s.SAdd(ctx, "search:a", "1"))

	n, err := s.DBSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, "k", []byte("abc")))

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	got[0] = 'z'

	again, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}

func TestKeyNamespaces(t *testing.T) {
	assert.Equal(t, "city:1796236", RecordKey(1796236))
	assert.Equal(t, "city:42", RecordKeyFor("42"))
	assert.Equal(t, "name:shanghai", NameKey("shanghai"))
	assert.Equal(t, "search:sh", PrefixKey("sh"))
}
