package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"custodia/internal/geofence"
	"custodia/pkg/domain"
)

// PostgresZoneStore reads zone definitions written by the zone-management
// service. Boundaries are stored as a jsonb array of {lat,lng} vertices.
type PostgresZoneStore struct {
	db *sql.DB
}

func NewPostgresZoneStore(db *sql.DB) *PostgresZoneStore {
	return &PostgresZoneStore{db: db}
}

func (s *PostgresZoneStore) AssignedTo(ctx context.Context, childID domain.ChildID) ([]geofence.Zone, error) {
	query := `
		SELECT z.id, z.name, COALESCE(z.description, ''), z.owner_guardian_id, z.boundary, z.created_at
		FROM zones z
		JOIN zone_children zc ON zc.zone_id = z.id
		WHERE zc.child_id = $1
		ORDER BY z.id
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(childID))
	if err != nil {
		return nil, fmt.Errorf("query assigned zones: %w", err)
	}
	defer rows.Close()

	var zones []geofence.Zone
	for rows.Next() {
		var (
			id       uuid.UUID
			ownerID  uuid.UUID
			name     string
			desc     string
			boundary []byte
			created  time.Time
		)
		if err := rows.Scan(&id, &name, &desc, &ownerID, &boundary, &created); err != nil {
			return nil, fmt.Errorf("scan zone: %w", err)
		}
		var ring geofence.Polygon
		if err := json.Unmarshal(boundary, &ring); err != nil {
			return nil, fmt.Errorf("decode zone %s boundary: %w", id, err)
		}
		zones = append(zones, geofence.Zone{
			ID:               domain.ZoneID(id),
			Name:             name,
			Description:      desc,
			OwnerGuardianID:  domain.GuardianID(ownerID),
			Boundary:         ring,
			AssignedChildren: []domain.ChildID{childID},
			CreatedAt:        created,
		})
	}
	return zones, rows.Err()
}
