package history

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodia/internal/guardian"
	"custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

func newTestService(t *testing.T) (*Service, *guardian.InMemoryStore) {
	t.Helper()
	guardians := guardian.NewInMemoryStore()
	svc, err := NewService(NewInMemoryStore(), guardians, slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithClock(func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC) }),
	)
	require.NoError(t, err)
	return svc, guardians
}

func sampleAt(recorded time.Time) Sample {
	return Sample{Latitude: -17.39, Longitude: -66.15, Battery: 80, RecordedAt: recorded}
}

func TestSyncBatch(t *testing.T) {
	ctx := context.Background()
	child := domain.NewChildID()
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	t.Run("persists every valid sample", func(t *testing.T) {
		svc, guardians := newTestService(t)
		g := domain.NewGuardianID()
		guardians.Link(g, child)

		accepted, err := svc.SyncBatch(ctx, child, []Sample{
			sampleAt(base),
			sampleAt(base.Add(time.Minute)),
			sampleAt(base.Add(2 * time.Minute)),
		})
		require.NoError(t, err)
		assert.Equal(t, 3, accepted)

		entries, err := svc.List(ctx, g, child, Query{})
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.True(t, entries[0].RecordedAt.After(entries[1].RecordedAt), "newest first")
		assert.Equal(t, time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC), entries[0].SyncedAt)
	})

	t.Run("one invalid coordinate rejects the whole batch", func(t *testing.T) {
		svc, guardians := newTestService(t)
		g := domain.NewGuardianID()
		guardians.Link(g, child)

		bad := sampleAt(base)
		bad.Latitude = 123.4
		_, err := svc.SyncBatch(ctx, child, []Sample{sampleAt(base), bad})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

		entries, err := svc.List(ctx, g, child, Query{})
		require.NoError(t, err)
		assert.Empty(t, entries, "nothing from the batch persisted")
	})

	t.Run("rejects an empty batch", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.SyncBatch(ctx, child, nil)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("rejects an oversized batch", func(t *testing.T) {
		svc, _ := newTestService(t)
		samples := make([]Sample, maxBatchSize+1)
		for i := range samples {
			samples[i] = sampleAt(base.Add(time.Duration(i) * time.Second))
		}
		_, err := svc.SyncBatch(ctx, child, samples)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("rejects a sample without a capture time", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.SyncBatch(ctx, child, []Sample{{Latitude: 1, Longitude: 2}})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestList(t *testing.T) {
	ctx := context.Background()
	child := domain.NewChildID()
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	t.Run("rejects unlinked guardians", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.List(ctx, domain.NewGuardianID(), child, Query{})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("narrows by time window and limit", func(t *testing.T) {
		svc, guardians := newTestService(t)
		g := domain.NewGuardianID()
		guardians.Link(g, child)

		var samples []Sample
		for i := 0; i < 10; i++ {
			samples = append(samples, sampleAt(base.Add(time.Duration(i)*time.Minute)))
		}
		_, err := svc.SyncBatch(ctx, child, samples)
		require.NoError(t, err)

		entries, err := svc.List(ctx, g, child, Query{
			From:  base.Add(2 * time.Minute),
			To:    base.Add(8 * time.Minute),
			Limit: 4,
		})
		require.NoError(t, err)
		require.Len(t, entries, 4)
		assert.Equal(t, base.Add(8*time.Minute), entries[0].RecordedAt)
	})
}
