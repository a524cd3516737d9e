package guardian

import (
	"context"
	"sync"

	"custodia/pkg/domain"
)

type link struct {
	guardianID domain.GuardianID
	childID    domain.ChildID
}

// InMemoryStore holds links and push addresses in memory.
type InMemoryStore struct {
	mu        sync.RWMutex
	links     map[link]struct{}
	addresses map[domain.GuardianID]string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		links:     make(map[link]struct{}),
		addresses: make(map[domain.GuardianID]string),
	}
}

// Link associates a guardian with a child. Idempotent.
func (s *InMemoryStore) Link(guardianID domain.GuardianID, childID domain.ChildID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links[link{guardianID, childID}] = struct{}{}
}

// Unlink removes an association. Idempotent.
func (s *InMemoryStore) Unlink(guardianID domain.GuardianID, childID domain.ChildID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.links, link{guardianID, childID})
}

func (s *InMemoryStore) GuardiansOf(ctx context.Context, childID domain.ChildID) ([]domain.GuardianID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.GuardianID
	for l := range s.links {
		if l.childID == childID {
			out = append(out, l.guardianID)
		}
	}
	return out, nil
}

func (s *InMemoryStore) IsLinked(ctx context.Context, guardianID domain.GuardianID, childID domain.ChildID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.links[link{guardianID, childID}]
	return ok, nil
}

func (s *InMemoryStore) PushAddress(ctx context.Context, guardianID domain.GuardianID) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	addr, ok := s.addresses[guardianID]
	return addr, ok && addr != "", nil
}

func (s *InMemoryStore) SetPushAddress(ctx context.Context, guardianID domain.GuardianID, addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addresses[guardianID] = addr
	return nil
}

func (s *InMemoryStore) ClearPushAddress(ctx context.Context, guardianID domain.GuardianID, addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addresses[guardianID] == addr {
		delete(s.addresses, guardianID)
	}
	return nil
}
