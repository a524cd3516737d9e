package store

import (
	"context"
	"sync"

	"custodia/internal/geofence"
	"custodia/pkg/domain"
)

// InMemoryZoneStore holds zones in memory. Used in tests and single-node
// development; production reads from postgres.
type InMemoryZoneStore struct {
	mu    sync.RWMutex
	zones map[domain.ZoneID]geofence.Zone
}

func NewInMemoryZoneStore() *InMemoryZoneStore {
	return &InMemoryZoneStore{zones: make(map[domain.ZoneID]geofence.Zone)}
}

// Put inserts or replaces a zone definition.
func (s *InMemoryZoneStore) Put(zone geofence.Zone) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zones[zone.ID] = zone
}

// Remove deletes a zone. Idempotent.
func (s *InMemoryZoneStore) Remove(id domain.ZoneID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.zones, id)
}

func (s *InMemoryZoneStore) AssignedTo(ctx context.Context, childID domain.ChildID) ([]geofence.Zone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []geofence.Zone
	for _, z := range s.zones {
		if z.AssignedTo(childID) {
			out = append(out, z)
		}
	}
	return out, nil
}
