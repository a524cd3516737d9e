package history

import (
	"context"

	"custodia/pkg/domain"
)

// Store persists archived location samples.
type Store interface {
	// Append inserts a batch of entries atomically.
	Append(ctx context.Context, entries []Entry) error
	// List returns a child's entries newest first, narrowed by the query.
	List(ctx context.Context, childID domain.ChildID, q Query) ([]Entry, error)
}
