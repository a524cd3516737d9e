package guardian

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"custodia/pkg/domain"
)

// PostgresStore reads the guardian_children association table maintained by
// the accounts service and owns the push_address column on guardians.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GuardiansOf(ctx context.Context, childID domain.ChildID) ([]domain.GuardianID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT guardian_id FROM guardian_children WHERE child_id = $1 ORDER BY guardian_id`,
		uuid.UUID(childID),
	)
	if err != nil {
		return nil, fmt.Errorf("query guardians of child: %w", err)
	}
	defer rows.Close()

	var out []domain.GuardianID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan guardian id: %w", err)
		}
		out = append(out, domain.GuardianID(id))
	}
	return out, rows.Err()
}

func (s *PostgresStore) IsLinked(ctx context.Context, guardianID domain.GuardianID, childID domain.ChildID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM guardian_children WHERE guardian_id = $1 AND child_id = $2)`,
		uuid.UUID(guardianID), uuid.UUID(childID),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query guardian link: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) PushAddress(ctx context.Context, guardianID domain.GuardianID) (string, bool, error) {
	var addr sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT push_address FROM guardians WHERE id = $1`,
		uuid.UUID(guardianID),
	).Scan(&addr)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query push address: %w", err)
	}
	return addr.String, addr.Valid && addr.String != "", nil
}

func (s *PostgresStore) SetPushAddress(ctx context.Context, guardianID domain.GuardianID, addr string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE guardians SET push_address = $2 WHERE id = $1`,
		uuid.UUID(guardianID), addr,
	)
	if err != nil {
		return fmt.Errorf("set push address: %w", err)
	}
	return nil
}

// ClearPushAddress performs a compare-and-clear in one statement, so a
// concurrent re-registration is never wiped.
func (s *PostgresStore) ClearPushAddress(ctx context.Context, guardianID domain.GuardianID, addr string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE guardians SET push_address = NULL WHERE id = $1 AND push_address = $2`,
		uuid.UUID(guardianID), addr,
	)
	if err != nil {
		return fmt.Errorf("clear push address: %w", err)
	}
	return nil
}
