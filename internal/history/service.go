package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"custodia/internal/geofence"
	"custodia/internal/guardian"
	"custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

// maxBatchSize bounds one sync upload. Devices chunk larger backlogs.
const maxBatchSize = 500

// Sample is one device-captured location awaiting sync.
type Sample struct {
	Latitude   float64
	Longitude  float64
	Battery    int
	RecordedAt time.Time
}

// Service accepts batched history uploads from children and serves listings
// to linked guardians.
type Service struct {
	store     Store
	guardians guardian.Store
	logger    *slog.Logger
	now       func() time.Time
}

type ServiceOption func(*Service)

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(store Store, guardians guardian.Store, logger *slog.Logger, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("history store is required")
	}
	if guardians == nil {
		return nil, fmt.Errorf("guardian store is required")
	}
	s := &Service{store: store, guardians: guardians, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SyncBatch validates and persists one upload atomically. A single invalid
// sample rejects the whole batch so the device can fix and resend it.
func (s *Service) SyncBatch(ctx context.Context, childID domain.ChildID, samples []Sample) (int, error) {
	if len(samples) == 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "at least one sample is required")
	}
	if len(samples) > maxBatchSize {
		return 0, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("batch exceeds %d samples", maxBatchSize))
	}

	syncedAt := s.now()
	entries := make([]Entry, 0, len(samples))
	for i, sm := range samples {
		if !geofence.ValidCoordinate(sm.Latitude, sm.Longitude) {
			return 0, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("sample %d has an invalid coordinate", i))
		}
		if sm.RecordedAt.IsZero() {
			return 0, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("sample %d is missing a capture time", i))
		}
		entries = append(entries, Entry{
			ID:         uuid.New(),
			ChildID:    childID,
			Latitude:   sm.Latitude,
			Longitude:  sm.Longitude,
			Battery:    sm.Battery,
			RecordedAt: sm.RecordedAt,
			SyncedAt:   syncedAt,
		})
	}

	if err := s.store.Append(ctx, entries); err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "persist history batch")
	}
	s.logger.InfoContext(ctx, "history batch synced",
		"child_id", childID.String(),
		"samples", len(entries),
	)
	return len(entries), nil
}

// List returns a child's history for a linked guardian.
func (s *Service) List(ctx context.Context, guardianID domain.GuardianID, childID domain.ChildID, q Query) ([]Entry, error) {
	linked, err := s.guardians.IsLinked(ctx, guardianID, childID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "check guardian link")
	}
	if !linked {
		return nil, dErrors.New(dErrors.CodeForbidden, "guardian is not linked to this child")
	}

	if q.Limit <= 0 {
		q.Limit = 100
	}
	if q.Limit > 1000 {
		q.Limit = 1000
	}
	entries, err := s.store.List(ctx, childID, q)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list history")
	}
	return entries, nil
}
