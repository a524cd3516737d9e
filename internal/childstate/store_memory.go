package childstate

import (
	"context"
	"sync"
	"time"

	"custodia/pkg/domain"
)

// InMemoryStore keeps child state in process memory. Each child has its own
// entry lock so concurrent updates for different children never contend.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[domain.ChildID]*entry
}

type entry struct {
	mu    sync.Mutex
	state State
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[domain.ChildID]*entry)}
}

func (s *InMemoryStore) Get(ctx context.Context, childID domain.ChildID) (State, bool, error) {
	s.mu.RLock()
	e := s.entries[childID]
	s.mu.RUnlock()
	if e == nil {
		return State{}, false, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state, true, nil
}

func (s *InMemoryStore) SetLocation(ctx context.Context, childID domain.ChildID, lat, lng float64, battery int, device string, at time.Time) error {
	e := s.getOrCreate(childID)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Latitude = lat
	e.state.Longitude = lng
	e.state.Battery = battery
	e.state.Device = device
	e.state.LastUpdateAt = at
	return nil
}

func (s *InMemoryStore) ApplyEvaluation(ctx context.Context, childID domain.ChildID, inside bool, zoneID domain.ZoneID, at time.Time) error {
	e := s.getOrCreate(childID)
	e.mu.Lock()
	defer e.mu.Unlock()
	if inside {
		e.state.Status = StatusInside
		e.state.CurrentZoneID = zoneID
	} else {
		e.state.Status = StatusOutside
		e.state.CurrentZoneID = domain.ZoneID{}
	}
	e.state.LastEvaluatedAt = at
	return nil
}

func (s *InMemoryStore) getOrCreate(childID domain.ChildID) *entry {
	s.mu.RLock()
	e := s.entries[childID]
	s.mu.RUnlock()
	if e != nil {
		return e
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e = s.entries[childID]; e == nil {
		e = &entry{state: State{ChildID: childID, Status: StatusOutside}}
		s.entries[childID] = e
	}
	return e
}
