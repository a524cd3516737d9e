package geofence

import (
	"time"

	"custodia/pkg/domain"
)

// TransitionKind discriminates boundary crossings.
type TransitionKind string

const (
	TransitionEnter TransitionKind = "ENTER"
	TransitionExit  TransitionKind = "EXIT"
)

// TransitionEvent records a detected crossing of one zone's boundary.
// Produced by the Evaluator, consumed once by the notification dispatcher.
type TransitionEvent struct {
	ChildID    domain.ChildID
	ZoneID     domain.ZoneID
	ZoneName   string
	Kind       TransitionKind
	OccurredAt time.Time
}

// Snapshot is the previous (status, current zone) pair the evaluator compares
// against. The zero Snapshot means "outside everything".
type Snapshot struct {
	Inside bool
	ZoneID domain.ZoneID
}

// Result is the outcome of evaluating one coordinate against a child's
// assigned zones.
type Result struct {
	// Contained is every assigned zone containing the point, ordered by
	// ascending zone id.
	Contained []Zone
	// Current is the zone selected by the policy, nil when outside all zones.
	Current *Zone
	// Previous echoes the snapshot the transitions were computed from.
	Previous Snapshot
	// Transitions holds zero, one, or two events (a zone switch emits EXIT
	// then ENTER).
	Transitions []TransitionEvent
}

// Evaluator is the pure containment and transition-detection component. It
// performs no I/O; the caller supplies the child's assigned zones and the
// previous snapshot, and persists the outcome.
type Evaluator struct {
	policy ZonePolicy
	now    func() time.Time
}

type EvaluatorOption func(*Evaluator)

// WithPolicy overrides the current-zone selection policy.
func WithPolicy(p ZonePolicy) EvaluatorOption {
	return func(e *Evaluator) {
		if p != nil {
			e.policy = p
		}
	}
}

// WithClock sets the clock used to stamp transitions. For tests.
func WithClock(now func() time.Time) EvaluatorOption {
	return func(e *Evaluator) {
		if now != nil {
			e.now = now
		}
	}
}

func NewEvaluator(opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		policy: LowestIDPolicy{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate decides containment of pt against the child's assigned zones and
// detects state transitions relative to prev.
//
// Transition rules:
//
//	outside -> inside(Z):        ENTER Z
//	inside(Z) -> outside:        EXIT Z
//	inside(Z) -> inside(Z):      nothing
//	inside(A) -> inside(B), A!=B: EXIT A then ENTER B
func (e *Evaluator) Evaluate(childID domain.ChildID, pt Point, prev Snapshot, zones []Zone) Result {
	contained := make([]Zone, 0, len(zones))
	for _, z := range zones {
		if z.Boundary.Contains(pt) {
			contained = append(contained, z)
		}
	}
	sortByID(contained)

	res := Result{Contained: contained, Previous: prev}
	if len(contained) > 0 {
		current := e.policy.Select(contained)
		res.Current = &current
	}

	now := e.now()
	switch {
	case !prev.Inside && res.Current != nil:
		res.Transitions = append(res.Transitions, TransitionEvent{
			ChildID:    childID,
			ZoneID:     res.Current.ID,
			ZoneName:   res.Current.Name,
			Kind:       TransitionEnter,
			OccurredAt: now,
		})
	case prev.Inside && res.Current == nil:
		res.Transitions = append(res.Transitions, TransitionEvent{
			ChildID:    childID,
			ZoneID:     prev.ZoneID,
			ZoneName:   zoneName(zones, prev.ZoneID),
			Kind:       TransitionExit,
			OccurredAt: now,
		})
	case prev.Inside && res.Current != nil && res.Current.ID != prev.ZoneID:
		res.Transitions = append(res.Transitions,
			TransitionEvent{
				ChildID:    childID,
				ZoneID:     prev.ZoneID,
				ZoneName:   zoneName(zones, prev.ZoneID),
				Kind:       TransitionExit,
				OccurredAt: now,
			},
			TransitionEvent{
				ChildID:    childID,
				ZoneID:     res.Current.ID,
				ZoneName:   res.Current.Name,
				Kind:       TransitionEnter,
				OccurredAt: now,
			},
		)
	}
	return res
}

// zoneName resolves a zone's display name from the assigned set. The zone may
// have been unassigned since the child entered it; the exit event still fires,
// just without a name.
func zoneName(zones []Zone, id domain.ZoneID) string {
	for _, z := range zones {
		if z.ID == id {
			return z.Name
		}
	}
	return ""
}
