package notification

import (
	"context"
	"sort"
	"sync"
	"time"

	"custodia/pkg/domain"
)

// InMemoryStore keeps notification records in memory.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[domain.NotificationID]Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[domain.NotificationID]Record)}
}

func (s *InMemoryStore) Create(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec
	return nil
}

func (s *InMemoryStore) List(ctx context.Context, guardianID domain.GuardianID, f ListFilter) ([]Record, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []Record
	for _, rec := range s.records {
		if rec.RecipientGuardianID != guardianID {
			continue
		}
		if f.Category != nil && rec.Category != *f.Category {
			continue
		}
		if f.Read != nil && rec.Read != *f.Read {
			continue
		}
		matched = append(matched, rec)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if f.Offset > 0 {
		if f.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[f.Offset:]
		}
	}
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched, total, nil
}

func (s *InMemoryStore) UnreadCount(ctx context.Context, guardianID domain.GuardianID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, rec := range s.records {
		if rec.RecipientGuardianID == guardianID && !rec.Read {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryStore) CountOwned(ctx context.Context, guardianID domain.GuardianID, ids []domain.NotificationID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, id := range ids {
		if rec, ok := s.records[id]; ok && rec.RecipientGuardianID == guardianID {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryStore) MarkRead(ctx context.Context, guardianID domain.GuardianID, ids []domain.NotificationID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	updated := 0
	for _, id := range ids {
		rec, ok := s.records[id]
		if !ok || rec.RecipientGuardianID != guardianID || rec.Read {
			continue
		}
		rec.Read = true
		s.records[id] = rec
		updated++
	}
	return updated, nil
}

func (s *InMemoryStore) MarkAllRead(ctx context.Context, guardianID domain.GuardianID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	updated := 0
	for id, rec := range s.records {
		if rec.RecipientGuardianID == guardianID && !rec.Read {
			rec.Read = true
			s.records[id] = rec
			updated++
		}
	}
	return updated, nil
}

func (s *InMemoryStore) Delete(ctx context.Context, guardianID domain.GuardianID, ids []domain.NotificationID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for _, id := range ids {
		if rec, ok := s.records[id]; ok && rec.RecipientGuardianID == guardianID {
			delete(s.records, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *InMemoryStore) PurgeRead(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for id, rec := range s.records {
		if rec.Read && rec.CreatedAt.Before(cutoff) {
			delete(s.records, id)
			deleted++
		}
	}
	return deleted, nil
}
