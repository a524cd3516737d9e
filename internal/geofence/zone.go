package geofence

import (
	"time"

	"custodia/pkg/domain"
)

// Zone is a named polygonal safe area owned by a guardian and assigned to a
// set of children. Zones are created and edited by the zone-management
// service; this engine only reads them.
type Zone struct {
	ID               domain.ZoneID
	Name             string
	Description      string
	OwnerGuardianID  domain.GuardianID
	Boundary         Polygon
	AssignedChildren []domain.ChildID
	CreatedAt        time.Time
}

// AssignedTo reports whether the zone is assigned to the given child.
func (z Zone) AssignedTo(childID domain.ChildID) bool {
	for _, id := range z.AssignedChildren {
		if id == childID {
			return true
		}
	}
	return false
}
