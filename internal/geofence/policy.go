package geofence

import "sort"

// ZonePolicy selects the single authoritative "current zone" when a point is
// contained by several assigned zones at once. Only one zone is tracked as
// current state at a time; which one wins is a policy choice, not a derived
// fact, so alternate policies can be swapped in without touching the state
// machine.
type ZonePolicy interface {
	// Select picks the current zone from a non-empty contained set.
	Select(contained []Zone) Zone
	// Name identifies the policy in logs.
	Name() string
}

// LowestIDPolicy picks the first zone by ascending zone id. This is the
// default, mirroring the upstream single-active-zone model.
type LowestIDPolicy struct{}

func (LowestIDPolicy) Select(contained []Zone) Zone {
	best := contained[0]
	for _, z := range contained[1:] {
		if z.ID.String() < best.ID.String() {
			best = z
		}
	}
	return best
}

func (LowestIDPolicy) Name() string { return "lowest_id" }

// SmallestAreaPolicy picks the most specific zone: the one with the smallest
// boundary area, with id order as the tiebreak.
type SmallestAreaPolicy struct{}

func (SmallestAreaPolicy) Select(contained []Zone) Zone {
	best := contained[0]
	bestArea := best.Boundary.Area()
	for _, z := range contained[1:] {
		area := z.Boundary.Area()
		if area < bestArea || (area == bestArea && z.ID.String() < best.ID.String()) {
			best = z
			bestArea = area
		}
	}
	return best
}

func (SmallestAreaPolicy) Name() string { return "smallest_area" }

// sortByID orders zones by ascending id so the contained set is deterministic.
func sortByID(zones []Zone) {
	sort.Slice(zones, func(i, j int) bool {
		return zones[i].ID.String() < zones[j].ID.String()
	})
}
