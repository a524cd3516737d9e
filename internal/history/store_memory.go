package history

import (
	"context"
	"sort"
	"sync"

	"custodia/pkg/domain"
)

// InMemoryStore holds history entries in memory. For tests and local
// development.
type InMemoryStore struct {
	mu      sync.RWMutex
	byChild map[domain.ChildID][]Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byChild: make(map[domain.ChildID][]Entry)}
}

func (s *InMemoryStore) Append(ctx context.Context, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.byChild[e.ChildID] = append(s.byChild[e.ChildID], e)
	}
	return nil
}

func (s *InMemoryStore) List(ctx context.Context, childID domain.ChildID, q Query) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entry
	for _, e := range s.byChild[childID] {
		if !q.From.IsZero() && e.RecordedAt.Before(q.From) {
			continue
		}
		if !q.To.IsZero() && e.RecordedAt.After(q.To) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.After(out[j].RecordedAt) })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}
