package history

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"custodia/pkg/domain"
)

// PostgresStore persists history entries in the location_history table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history batch: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO location_history (id, child_id, latitude, longitude, battery, recorded_at, synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`)
	if err != nil {
		return fmt.Errorf("prepare history insert: %w", err)
	}
	defer stmt.Close() //nolint:errcheck

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx,
			e.ID, uuid.UUID(e.ChildID), e.Latitude, e.Longitude, e.Battery, e.RecordedAt, e.SyncedAt,
		); err != nil {
			return fmt.Errorf("insert history entry: %w", err)
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) List(ctx context.Context, childID domain.ChildID, q Query) ([]Entry, error) {
	query := `
		SELECT id, child_id, latitude, longitude, battery, recorded_at, synced_at
		FROM location_history
		WHERE child_id = $1`
	args := []any{uuid.UUID(childID)}

	if !q.From.IsZero() {
		args = append(args, q.From)
		query += fmt.Sprintf(" AND recorded_at >= $%d", len(args))
	}
	if !q.To.IsZero() {
		args = append(args, q.To)
		query += fmt.Sprintf(" AND recorded_at <= $%d", len(args))
	}
	query += " ORDER BY recorded_at DESC"
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []Entry
	for rows.Next() {
		var e Entry
		var childRaw uuid.UUID
		if err := rows.Scan(&e.ID, &childRaw, &e.Latitude, &e.Longitude, &e.Battery, &e.RecordedAt, &e.SyncedAt); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		e.ChildID = domain.ChildID(childRaw)
		out = append(out, e)
	}
	return out, rows.Err()
}
