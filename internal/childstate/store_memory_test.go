package childstate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodia/pkg/domain"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	childID := domain.NewChildID()
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	t.Run("unknown child reports not found", func(t *testing.T) {
		_, ok, err := store.Get(ctx, domain.NewChildID())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("set location writes raw fields only", func(t *testing.T) {
		require.NoError(t, store.SetLocation(ctx, childID, -17.39, -66.15, 84, "Pixel 7", now))

		state, ok, err := store.Get(ctx, childID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, -17.39, state.Latitude)
		assert.Equal(t, -66.15, state.Longitude)
		assert.Equal(t, 84, state.Battery)
		assert.Equal(t, "Pixel 7", state.Device)
		assert.Equal(t, now, state.LastUpdateAt)
		assert.Equal(t, StatusOutside, state.Status)
		assert.True(t, state.CurrentZoneID.IsNil())
	})

	t.Run("apply evaluation is the sole writer of zone status", func(t *testing.T) {
		zoneID := domain.NewZoneID()
		require.NoError(t, store.ApplyEvaluation(ctx, childID, true, zoneID, now))

		state, _, err := store.Get(ctx, childID)
		require.NoError(t, err)
		assert.Equal(t, StatusInside, state.Status)
		assert.Equal(t, zoneID, state.CurrentZoneID)
		assert.Equal(t, now, state.LastEvaluatedAt)

		require.NoError(t, store.ApplyEvaluation(ctx, childID, false, domain.ZoneID{}, now.Add(time.Minute)))
		state, _, err = store.Get(ctx, childID)
		require.NoError(t, err)
		assert.Equal(t, StatusOutside, state.Status)
		assert.True(t, state.CurrentZoneID.IsNil())
	})

	t.Run("concurrent writers for different children do not interfere", func(t *testing.T) {
		const writers = 16
		children := make([]domain.ChildID, writers)
		for i := range children {
			children[i] = domain.NewChildID()
		}

		var wg sync.WaitGroup
		for i, id := range children {
			i, id := i, id
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					_ = store.SetLocation(ctx, id, float64(i), float64(j), 50, "dev", now)
				}
			}()
		}
		wg.Wait()

		for i, id := range children {
			state, ok, err := store.Get(ctx, id)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, float64(i), state.Latitude)
			assert.Equal(t, 99.0, state.Longitude)
		}
	})
}
