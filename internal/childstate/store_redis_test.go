package childstate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodia/pkg/domain"
)

func setupRedisStore(t *testing.T, opts ...RedisStoreOption) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewRedisStore(client, opts...)
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	t.Run("round trip", func(t *testing.T) {
		_, store := setupRedisStore(t)
		childID := domain.NewChildID()

		_, ok, err := store.Get(ctx, childID)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, store.SetLocation(ctx, childID, -17.39, -66.15, 72, "Pixel 7", now))

		state, ok, err := store.Get(ctx, childID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, -17.39, state.Latitude)
		assert.Equal(t, -66.15, state.Longitude)
		assert.Equal(t, 72, state.Battery)
		assert.Equal(t, "Pixel 7", state.Device)
		assert.True(t, state.LastUpdateAt.Equal(now))
		assert.Equal(t, StatusOutside, state.Status)
	})

	t.Run("evaluation status round trip", func(t *testing.T) {
		_, store := setupRedisStore(t)
		childID := domain.NewChildID()
		zoneID := domain.NewZoneID()

		require.NoError(t, store.SetLocation(ctx, childID, 1, 2, 90, "dev", now))
		require.NoError(t, store.ApplyEvaluation(ctx, childID, true, zoneID, now))

		state, ok, err := store.Get(ctx, childID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, StatusInside, state.Status)
		assert.Equal(t, zoneID, state.CurrentZoneID)

		require.NoError(t, store.ApplyEvaluation(ctx, childID, false, domain.ZoneID{}, now))
		state, _, err = store.Get(ctx, childID)
		require.NoError(t, err)
		assert.Equal(t, StatusOutside, state.Status)
		assert.True(t, state.CurrentZoneID.IsNil())
	})

	t.Run("ttl expires stale state", func(t *testing.T) {
		mr, store := setupRedisStore(t, WithTTL(time.Minute))
		childID := domain.NewChildID()

		require.NoError(t, store.SetLocation(ctx, childID, 1, 2, 90, "dev", now))
		mr.FastForward(2 * time.Minute)

		_, ok, err := store.Get(ctx, childID)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
