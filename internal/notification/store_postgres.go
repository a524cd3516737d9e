package notification

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"custodia/pkg/domain"
)

// PostgresStore persists notification records in the notifications table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, recipient_guardian_id, message, category, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.UUID(rec.ID), uuid.UUID(rec.RecipientGuardianID), rec.Message, string(rec.Category), rec.Read, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, guardianID domain.GuardianID, f ListFilter) ([]Record, int, error) {
	where := `WHERE recipient_guardian_id = $1`
	args := []any{uuid.UUID(guardianID)}
	if f.Category != nil {
		args = append(args, string(*f.Category))
		where += fmt.Sprintf(` AND category = $%d`, len(args))
	}
	if f.Read != nil {
		args = append(args, *f.Read)
		where += fmt.Sprintf(` AND read = $%d`, len(args))
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, f.Offset)
	query := fmt.Sprintf(`
		SELECT id, recipient_guardian_id, message, category, read, created_at
		FROM notifications %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			id        uuid.UUID
			recipient uuid.UUID
			message   string
			category  string
			read      bool
			createdAt time.Time
		)
		if err := rows.Scan(&id, &recipient, &message, &category, &read, &createdAt); err != nil {
			return nil, 0, fmt.Errorf("scan notification: %w", err)
		}
		records = append(records, Record{
			ID:                  domain.NotificationID(id),
			RecipientGuardianID: domain.GuardianID(recipient),
			Message:             message,
			Category:            Category(category),
			Read:                read,
			CreatedAt:           createdAt,
		})
	}
	return records, total, rows.Err()
}

func (s *PostgresStore) UnreadCount(ctx context.Context, guardianID domain.GuardianID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_guardian_id = $1 AND read = FALSE`,
		uuid.UUID(guardianID),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) CountOwned(ctx context.Context, guardianID domain.GuardianID, ids []domain.NotificationID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_guardian_id = $1 AND id = ANY($2)`,
		uuid.UUID(guardianID), pq.Array(rawIDs(ids)),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count owned notifications: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) MarkRead(ctx context.Context, guardianID domain.GuardianID, ids []domain.NotificationID) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET read = TRUE
		 WHERE recipient_guardian_id = $1 AND id = ANY($2) AND read = FALSE`,
		uuid.UUID(guardianID), pq.Array(rawIDs(ids)),
	)
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	return rowsAffected(res), nil
}

func (s *PostgresStore) MarkAllRead(ctx context.Context, guardianID domain.GuardianID) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET read = TRUE WHERE recipient_guardian_id = $1 AND read = FALSE`,
		uuid.UUID(guardianID),
	)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return rowsAffected(res), nil
}

func (s *PostgresStore) Delete(ctx context.Context, guardianID domain.GuardianID, ids []domain.NotificationID) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE recipient_guardian_id = $1 AND id = ANY($2)`,
		uuid.UUID(guardianID), pq.Array(rawIDs(ids)),
	)
	if err != nil {
		return 0, fmt.Errorf("delete notifications: %w", err)
	}
	return rowsAffected(res), nil
}

func (s *PostgresStore) PurgeRead(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE read = TRUE AND created_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("purge read notifications: %w", err)
	}
	return rowsAffected(res), nil
}

func rawIDs(ids []domain.NotificationID) []uuid.UUID {
	out := make([]uuid.UUID, len(ids))
	for i, id := range ids {
		out[i] = uuid.UUID(id)
	}
	return out
}

func rowsAffected(res sql.Result) int {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return int(n)
}
