package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStateStore(t *testing.T) (*AlertStateStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewAlertStateStore(client), mr
}

func TestAlertStateStore(t *testing.T) {
	ctx := context.Background()

	t.Run("alert marker round trip", func(t *testing.T) {
		store, _ := newTestStateStore(t)

		has, err := store.HasAlert(ctx, "r1")
		require.NoError(t, err)
		assert.False(t, has)

		require.NoError(t, store.SetAlert(ctx, "r1", 300))

		has, err = store.HasAlert(ctx, "r1")
		require.NoError(t, err)
		assert.True(t, has)
	})

	t.Run("recovery marker is independent of alert marker", func(t *testing.T) {
		store, _ := newTestStateStore(t)

		require.NoError(t, store.SetRecovery(ctx, "r1", 120))

		has, err := store.HasRecovery(ctx, "r1")
		require.NoError(t, err)
		assert.True(t, has)

		has, err = store.HasAlert(ctx, "r1")
		require.NoError(t, err)
		assert.False(t, has)
	})

	t.Run("marker expires after its TTL", func(t *testing.T) {
		store, mr := newTestStateStore(t)

		require.NoError(t, store.SetAlert(ctx, "r1", 300))
		mr.FastForward(301 * time.Second)

		has, err := store.HasAlert(ctx, "r1")
		require.NoError(t, err)
		assert.False(t, has)
	})

	t.Run("short TTLs are floored to a minute", func(t *testing.T) {
		store, mr := newTestStateStore(t)

		require.NoError(t, store.SetAlert(ctx, "r1", 5))
		mr.FastForward(30 * time.Second)

		has, err := store.HasAlert(ctx, "r1")
		require.NoError(t, err)
		assert.True(t, has)

		mr.FastForward(31 * time.Second)
		has, err = store.HasAlert(ctx, "r1")
		require.NoError(t, err)
		assert.False(t, has)
	})

	t.Run("zero TTL is floored as well", func(t *testing.T) {
		store, mr := newTestStateStore(t)

		require.NoError(t, store.SetRecovery(ctx, "r1", 0))
		mr.FastForward(59 * time.Second)

		has, err := store.HasRecovery(ctx, "r1")
		require.NoError(t, err)
		assert.True(t, has)
	})
}
