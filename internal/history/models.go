package history

import (
	"time"

	"github.com/google/uuid"

	"custodia/pkg/domain"
)

// Entry is one archived location sample. Children buffer samples while
// offline and upload them in batches; RecordedAt is the device-side capture
// time, SyncedAt is when the server accepted the batch.
type Entry struct {
	ID         uuid.UUID
	ChildID    domain.ChildID
	Latitude   float64
	Longitude  float64
	Battery    int
	RecordedAt time.Time
	SyncedAt   time.Time
}

// Query narrows a history listing. Zero From/To mean unbounded on that side.
type Query struct {
	From  time.Time
	To    time.Time
	Limit int
}
