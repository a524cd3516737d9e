package notification

import (
	"context"
	"time"

	"custodia/pkg/domain"
)

// ListFilter narrows a guardian's notification listing. Nil fields match
// everything.
type ListFilter struct {
	Category *Category
	Read     *bool
	Limit    int
	Offset   int
}

// Store persists notification records. All queries are scoped to one
// guardian; records are never visible across guardians.
type Store interface {
	Create(ctx context.Context, rec Record) error

	// List returns a page of the guardian's notifications, newest first,
	// plus the total matching count.
	List(ctx context.Context, guardianID domain.GuardianID, f ListFilter) ([]Record, int, error)

	UnreadCount(ctx context.Context, guardianID domain.GuardianID) (int, error)

	// CountOwned reports how many of the given ids belong to the guardian.
	CountOwned(ctx context.Context, guardianID domain.GuardianID, ids []domain.NotificationID) (int, error)

	// MarkRead marks the guardian's unread notifications among ids as read
	// and returns how many were updated.
	MarkRead(ctx context.Context, guardianID domain.GuardianID, ids []domain.NotificationID) (int, error)

	// MarkAllRead marks all of the guardian's unread notifications as read.
	MarkAllRead(ctx context.Context, guardianID domain.GuardianID) (int, error)

	// Delete removes the guardian's notifications among ids and returns how
	// many were deleted.
	Delete(ctx context.Context, guardianID domain.GuardianID, ids []domain.NotificationID) (int, error)

	// PurgeRead deletes read notifications created before cutoff, across
	// all guardians. Returns how many were deleted.
	PurgeRead(ctx context.Context, cutoff time.Time) (int, error)
}
