package repositories

import (
	"context"
	"database/sql"

	"github.com/brewbracket/tournament-system/models"
)

type AdminLogRepository interface {
	// Append writes one immutable audit row.
	Append(ctx context.Context, entry *models.AdminActionLog) error
	List(ctx context.Context, limit, offset int) ([]*models.AdminActionLog, error)
}

type postgresAdminLogRepository struct {
	db *sql.DB
}

func NewPostgresAdminLogRepository(db *sql.DB) AdminLogRepository {
	return &postgresAdminLogRepository{db: db}
}

func (r *postgresAdminLogRepository) Append(ctx context.Context, entry *models.AdminActionLog) error {
	query := `
		INSERT INTO admin_action_logs (admin_id, action, target_type, target_id, reason, detail)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		entry.AdminID,
		entry.Action,
		entry.TargetType,
		entry.TargetID,
		entry.Reason,
		entry.Detail,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *postgresAdminLogRepository) List(ctx context.Context, limit, offset int) ([]*models.AdminActionLog, error) {
	query := `
		SELECT id, admin_id, action, target_type, target_id, reason, detail, created_at
		FROM admin_action_logs
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*models.AdminActionLog, 0)
	for rows.Next() {
		var entry models.AdminActionLog
		if scanErr := rows.Scan(
			&entry.ID,
			&entry.AdminID,
			&entry.Action,
			&entry.TargetType,
			&entry.TargetID,
			&entry.Reason,
			&entry.Detail,
			&entry.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		entries = append(entries, &entry)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
