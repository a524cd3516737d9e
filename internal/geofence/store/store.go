// Package store provides read access to zone definitions.
//
// Zone CRUD belongs to the zone-management service; the engine only queries
// assignments, so the interface is deliberately read-only.
package store

import (
	"context"

	"custodia/internal/geofence"
	"custodia/pkg/domain"
)

// ZoneStore answers "which zones is this child assigned to".
type ZoneStore interface {
	// AssignedTo returns every zone assigned to the child. An empty slice
	// (not an error) means the child has no zones.
	AssignedTo(ctx context.Context, childID domain.ChildID) ([]geofence.Zone, error)
}
