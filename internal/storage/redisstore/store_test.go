package redisstore

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/sharethebill/internal/storage"
)

// newTestStore connects to the Redis named by REDIS_TEST_ADDR and skips
// the test when it is not set.
func newTestStore(t *testing.T) (*RedisStore, string) {
	t.Helper()

	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set; skipping Redis integration test")
	}

	store, err := New(context.Background(), Options{Addr: addr, DB: 15})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	// Namespace keys so parallel runs don't collide
	return store, "test:" + uuid.NewString() + ":"
}

func TestRedisStore_Documents(t *testing.T) {
	store, ns := newTestStore(t)
	ctx := context.Background()
	key := ns + "doc"
	t.Cleanup(func() { store.Delete(ctx, key) })

	_, err := store.Get(ctx, key)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.CompareAndSwap(ctx, key, nil, []byte("v1")))
	assert.ErrorIs(t, store.CompareAndSwap(ctx, key, nil, []byte("v1")), storage.ErrConflict)

	require.NoError(t, store.CompareAndSwap(ctx, key, []byte("v1"), []byte("v2")))
	assert.ErrorIs(t, store.CompareAndSwap(ctx, key, []byte("v1"), []byte("v3")), storage.ErrConflict)

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(got))

	assert.ErrorIs(t, store.CompareAndDelete(ctx, key, []byte("v1")), storage.ErrConflict)
	require.NoError(t, store.CompareAndDelete(ctx, key, []byte("v2")))
	assert.ErrorIs(t, store.CompareAndDelete(ctx, key, []byte("v2")), storage.ErrNotFound)
}

func TestRedisStore_Sets(t *testing.T) {
	store, ns := newTestStore(t)
	ctx := context.Background()
	key := ns + "set"
	t.Cleanup(func() { store.Delete(ctx, key) })

	require.NoError(t, store.AddToSet(ctx, key, "a"))
	require.NoError(t, store.AddToSet(ctx, key, "b"))
	require.NoError(t, store.AddToSet(ctx, key, "a"))
	require.NoError(t, store.RemoveFromSet(ctx, key, "b"))

	members, err := store.Members(ctx, key)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a"}, members)
}

func TestRedisStore_ConnectFailure(t *testing.T) {
	_, err := New(context.Background(), Options{Addr: "127.0.0.1:1"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, storage.ErrNotFound))
}
