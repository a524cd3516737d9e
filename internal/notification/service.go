package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

// Service exposes the guardian-facing notification query surface on top of
// the store, with ownership checks.
type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

type ServiceOption func(*Service)

func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(store Store, logger *slog.Logger, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("notification store is required")
	}
	s := &Service{store: store, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ListResult is the listing payload: a page, the total match count, and the
// guardian's unread count.
type ListResult struct {
	Notifications []Record
	Total         int
	UnreadCount   int
}

func (s *Service) List(ctx context.Context, guardianID domain.GuardianID, f ListFilter) (ListResult, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Limit > 200 {
		f.Limit = 200
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	records, total, err := s.store.List(ctx, guardianID, f)
	if err != nil {
		return ListResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "list notifications")
	}
	unread, err := s.store.UnreadCount(ctx, guardianID)
	if err != nil {
		return ListResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "count unread notifications")
	}
	return ListResult{Notifications: records, Total: total, UnreadCount: unread}, nil
}

func (s *Service) UnreadCount(ctx context.Context, guardianID domain.GuardianID) (int, error) {
	count, err := s.store.UnreadCount(ctx, guardianID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "count unread notifications")
	}
	return count, nil
}

// MarkRead marks the given notifications as read. Every id must belong to the
// calling guardian or the whole call is rejected.
func (s *Service) MarkRead(ctx context.Context, guardianID domain.GuardianID, ids []domain.NotificationID) (int, error) {
	if len(ids) == 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "at least one notification id is required")
	}
	if err := s.requireOwned(ctx, guardianID, ids); err != nil {
		return 0, err
	}
	updated, err := s.store.MarkRead(ctx, guardianID, ids)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "mark notifications read")
	}
	return updated, nil
}

func (s *Service) MarkAllRead(ctx context.Context, guardianID domain.GuardianID) (int, error) {
	updated, err := s.store.MarkAllRead(ctx, guardianID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "mark all notifications read")
	}
	return updated, nil
}

// Delete removes the given notifications. Every id must belong to the calling
// guardian or the whole call is rejected.
func (s *Service) Delete(ctx context.Context, guardianID domain.GuardianID, ids []domain.NotificationID) (int, error) {
	if len(ids) == 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "at least one notification id is required")
	}
	if err := s.requireOwned(ctx, guardianID, ids); err != nil {
		return 0, err
	}
	deleted, err := s.store.Delete(ctx, guardianID, ids)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "delete notifications")
	}
	return deleted, nil
}

// PurgeRead deletes read notifications older than the retention window.
// Intended for a periodic maintenance job.
func (s *Service) PurgeRead(ctx context.Context, retention time.Duration) (int, error) {
	cutoff := s.now().Add(-retention)
	deleted, err := s.store.PurgeRead(ctx, cutoff)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "purge notifications")
	}
	if deleted > 0 {
		s.logger.InfoContext(ctx, "purged old notifications", "deleted", deleted)
	}
	return deleted, nil
}

func (s *Service) requireOwned(ctx context.Context, guardianID domain.GuardianID, ids []domain.NotificationID) error {
	owned, err := s.store.CountOwned(ctx, guardianID, ids)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "check notification ownership")
	}
	if owned != len(ids) {
		return dErrors.New(dErrors.CodeForbidden, "some notifications do not belong to this guardian")
	}
	return nil
}
