package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/field-service/pkg/apperr"
)

func setupRedisStore(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisStore(client, "test")
}

func TestRedisStore_Lifecycle(t *testing.T) {
	mr, store := setupRedisStore(t)
	ctx := context.Background()

	result, err := store.Begin(ctx, "issue-1")
	require.NoError(t, err)
	assert.Nil(t, result)

	_, err = store.Begin(ctx, "issue-1")
	assert.ErrorIs(t, err, apperr.ErrConcurrentModification)

	require.NoError(t, store.Complete(ctx, "issue-1", []byte(`{"id":9}`)))

	result, err = store.Begin(ctx, "issue-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":9}`, string(result))

	ttl := mr.TTL("test:issue-1")
	assert.True(t, ttl > time.Hour)
}

func TestRedisStore_ReleaseAllowsRetry(t *testing.T) {
	_, store := setupRedisStore(t)
	ctx := context.Background()

	_, err := store.Begin(ctx, "issue-2")
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, "issue-2"))

	result, err := store.Begin(ctx, "issue-2")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestRedisStore_PendingKeyExpires(t *testing.T) {
	mr, store := setupRedisStore(t)
	ctx := context.Background()

	_, err := store.Begin(ctx, "issue-3")
	require.NoError(t, err)

	mr.FastForward(DefaultLockTTL + time.Second)

	result, err := store.Begin(ctx, "issue-3")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestMemoryStore_Lifecycle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Begin(ctx, "k")
	require.NoError(t, err)
	_, err = store.Begin(ctx, "k")
	assert.ErrorIs(t, err, apperr.ErrConcurrentModification)

	require.NoError(t, store.Complete(ctx, "k", []byte("done")))
	result, err := store.Begin(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "done", string(result))
}
