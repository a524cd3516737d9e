// Package realtime is the websocket front end: it authenticates connections,
// tracks room membership and presence, and routes inbound events to the child
// state pipeline and the notification dispatcher.
package realtime

import (
	"encoding/json"
	"fmt"
	"time"

	"custodia/pkg/domain"
)

// Inbound event names.
const (
	EventJoinChildRoom   = "joinChildRoom"
	EventLeaveChildRoom  = "leaveChildRoom"
	EventUpdateLocation  = "updateLocation"
	EventChildOnline     = "childOnline"
	EventChildOffline    = "childOffline"
	EventRequestLocation = "requestLocation"
	EventDistressSignal  = "distressSignal"
)

// Outbound event names. Clients branch on these; renaming breaks them.
const (
	EventJoined             = "joined"
	EventLeft               = "left"
	EventLocationUpdated    = "locationUpdated"
	EventChildStatusChanged = "childStatusChanged"
	EventLocationRequested  = "locationRequested"
	EventDistressAlert      = "distressAlert"
	EventError              = "error"
)

// Envelope is the wire frame: a named event plus its payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode marshals an event frame once, for delivery to any number of
// sessions.
func Encode(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

// RoomFor is the broadcast channel scoped to one child.
func RoomFor(childID domain.ChildID) string {
	return "child:" + childID.String()
}

type roomRequest struct {
	ChildID string `json:"childId"`
}

type updateLocationRequest struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Battery int     `json:"battery"`
	Status  string  `json:"status"`
	Device  string  `json:"device,omitempty"`
}

type distressSignalRequest struct {
	Lat       float64    `json:"lat"`
	Lng       float64    `json:"lng"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

type joinedPayload struct {
	Room    string `json:"room"`
	ChildID string `json:"childId"`
}

type locationUpdatedPayload struct {
	ChildID   string  `json:"childId"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Battery   int     `json:"battery"`
	Status    string  `json:"status"`
	Device    string  `json:"device"`
	Timestamp string  `json:"timestamp"`
}

type childStatusChangedPayload struct {
	ChildID   string `json:"childId"`
	Online    bool   `json:"online"`
	Device    string `json:"device,omitempty"`
	Timestamp string `json:"timestamp"`
}

type locationRequestedPayload struct {
	RequestedBy string `json:"requestedBy"`
	ChildID     string `json:"childId"`
}

type distressAlertPayload struct {
	ChildID   string  `json:"childId"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Timestamp string  `json:"timestamp"`
}

type errorPayload struct {
	Message string `json:"message"`
}
