// Package childstate holds the authoritative last-known state per child and
// the pipeline that mutates it.
//
// Invariant: Status == StatusInside iff CurrentZoneID is set and the zone
// contained the last evaluated coordinate. The evaluation pipeline is the
// sole writer of Status/CurrentZoneID; clients never set them.
package childstate

import (
	"time"

	"custodia/internal/geofence"
	"custodia/pkg/domain"
)

// Status is the geofence side of a child's state.
type Status string

const (
	StatusInside  Status = "INSIDE"
	StatusOutside Status = "OUTSIDE"
)

// State is the last-known location and zone status of one child.
type State struct {
	ChildID       domain.ChildID
	Latitude      float64
	Longitude     float64
	Battery       int
	Device        string
	LastUpdateAt  time.Time
	Status        Status
	CurrentZoneID domain.ZoneID
	// LastEvaluatedAt stamps the coordinate the Status reflects; it trails
	// LastUpdateAt while evaluations are queued.
	LastEvaluatedAt time.Time
}

// Snapshot converts the zone side of the state for the evaluator.
func (s State) Snapshot() geofence.Snapshot {
	return geofence.Snapshot{
		Inside: s.Status == StatusInside,
		ZoneID: s.CurrentZoneID,
	}
}

// Point returns the last raw coordinate.
func (s State) Point() geofence.Point {
	return geofence.Point{Lat: s.Latitude, Lng: s.Longitude}
}
