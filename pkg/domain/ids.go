package domain

import (
	"github.com/google/uuid"

	dErrors "custodia/pkg/domain-errors"
)

// Typed IDs keep guardian, child, zone, and notification identifiers from
// being mixed up at compile time. Construct from external input via the
// Parse* functions; direct casting bypasses validation.
type (
	GuardianID     uuid.UUID
	ChildID        uuid.UUID
	ZoneID         uuid.UUID
	NotificationID uuid.UUID
)

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return u, nil
}

func ParseGuardianID(s string) (GuardianID, error) {
	u, err := parseUUID(s, "guardian id")
	return GuardianID(u), err
}

func ParseChildID(s string) (ChildID, error) {
	u, err := parseUUID(s, "child id")
	return ChildID(u), err
}

func ParseZoneID(s string) (ZoneID, error) {
	u, err := parseUUID(s, "zone id")
	return ZoneID(u), err
}

func ParseNotificationID(s string) (NotificationID, error) {
	u, err := parseUUID(s, "notification id")
	return NotificationID(u), err
}

func NewGuardianID() GuardianID         { return GuardianID(uuid.New()) }
func NewChildID() ChildID               { return ChildID(uuid.New()) }
func NewZoneID() ZoneID                 { return ZoneID(uuid.New()) }
func NewNotificationID() NotificationID { return NotificationID(uuid.New()) }

func (id GuardianID) String() string     { return uuid.UUID(id).String() }
func (id ChildID) String() string        { return uuid.UUID(id).String() }
func (id ZoneID) String() string         { return uuid.UUID(id).String() }
func (id NotificationID) String() string { return uuid.UUID(id).String() }

func (id GuardianID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id ChildID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id ZoneID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id NotificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
