package notification

import (
	"time"

	"custodia/pkg/domain"
)

// Category discriminates notification payloads. Downstream clients branch on
// it, so the values are part of the wire contract and must stay stable.
type Category string

const (
	CategoryZoneEnter Category = "zone_enter"
	CategoryZoneExit  Category = "zone_exit"
	CategoryDistress  Category = "distress"
	// CategoryInfo is the default for ad-hoc notifications created outside
	// the geofence pipeline.
	CategoryInfo Category = "info"
)

// Record is the persisted form of a notification, owned by one guardian.
type Record struct {
	ID                  domain.NotificationID
	RecipientGuardianID domain.GuardianID
	Message             string
	Category            Category
	Read                bool
	CreatedAt           time.Time
}
