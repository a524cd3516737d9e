package notification

import (
	"strconv"

	"custodia/internal/geofence"
	"custodia/pkg/domain"
)

// Payload is one of a closed set of tagged variants, one per category. Each
// variant carries its own required fields instead of an open string map; the
// "type" key in PushData is the stable discriminator clients branch on.
type Payload interface {
	Category() Category
	// PushData flattens the payload for the push transport's data field.
	PushData() map[string]string
}

// ZoneTransitionPayload accompanies zone_enter and zone_exit notifications.
type ZoneTransitionPayload struct {
	Kind     geofence.TransitionKind
	ChildID  domain.ChildID
	ZoneID   domain.ZoneID
	ZoneName string
}

func (p ZoneTransitionPayload) Category() Category {
	if p.Kind == geofence.TransitionEnter {
		return CategoryZoneEnter
	}
	return CategoryZoneExit
}

func (p ZoneTransitionPayload) PushData() map[string]string {
	return map[string]string{
		"type":     string(p.Category()),
		"childId":  p.ChildID.String(),
		"zoneId":   p.ZoneID.String(),
		"zoneName": p.ZoneName,
	}
}

// DistressPayload accompanies distress notifications. LocationKnown is false
// when the child has never reported a coordinate; the payload then carries an
// explicit unavailable marker instead of fabricated zeros.
type DistressPayload struct {
	ChildID       domain.ChildID
	Lat           float64
	Lng           float64
	LocationKnown bool
}

func (DistressPayload) Category() Category { return CategoryDistress }

func (p DistressPayload) PushData() map[string]string {
	data := map[string]string{
		"type":    string(CategoryDistress),
		"childId": p.ChildID.String(),
	}
	if p.LocationKnown {
		data["lat"] = strconv.FormatFloat(p.Lat, 'f', -1, 64)
		data["lng"] = strconv.FormatFloat(p.Lng, 'f', -1, 64)
	} else {
		data["location"] = "unavailable"
	}
	return data
}

// AdHocPayload carries a caller-supplied category for notifications created
// outside the geofence pipeline.
type AdHocPayload struct {
	Cat Category
}

func (p AdHocPayload) Category() Category {
	if p.Cat == "" {
		return CategoryInfo
	}
	return p.Cat
}

func (p AdHocPayload) PushData() map[string]string {
	return map[string]string{"type": string(p.Category())}
}
