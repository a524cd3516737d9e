package childstate

import (
	"context"
	"time"

	"custodia/pkg/domain"
)

// Store is the single authority for per-child state. SetLocation writes the
// raw fields on the realtime path; ApplyEvaluation writes the zone status and
// is called only by the pipeline.
type Store interface {
	// Get returns the child's state. ok is false when the child has never
	// reported a location.
	Get(ctx context.Context, childID domain.ChildID) (State, bool, error)

	// SetLocation updates the raw coordinate fields and LastUpdateAt.
	SetLocation(ctx context.Context, childID domain.ChildID, lat, lng float64, battery int, device string, at time.Time) error

	// ApplyEvaluation persists the evaluator's outcome for the coordinate
	// stamped at. Passing a nil-zone id with inside=false marks the child
	// outside all zones.
	ApplyEvaluation(ctx context.Context, childID domain.ChildID, inside bool, zoneID domain.ZoneID, at time.Time) error
}
