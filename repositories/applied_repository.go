package repositories

import (
	"context"
	"database/sql"

	"github.com/brewbracket/tournament-system/models"
)

type AppliedUpdateRepository interface {
	// TryMark records that an aggregate update ran for a match. Returns
	// false when the marker already exists, so an at-least-once retry of
	// the confirmation fan-out skips work it has already done.
	TryMark(ctx context.Context, matchID int, kind models.AggregateKind) (bool, error)
}

type postgresAppliedUpdateRepository struct {
	db *sql.DB
}

func NewPostgresAppliedUpdateRepository(db *sql.DB) AppliedUpdateRepository {
	return &postgresAppliedUpdateRepository{db: db}
}

func (r *postgresAppliedUpdateRepository) TryMark(ctx context.Context, matchID int, kind models.AggregateKind) (bool, error) {
	query := `
		INSERT INTO applied_aggregate_updates (match_id, aggregate_kind)
		VALUES ($1, $2)
		ON CONFLICT (match_id, aggregate_kind) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query, matchID, kind)
	if err != nil {
		return false, err
	}
	rowsAffected, checkErr := checkRowsAffected(result)
	if checkErr != nil {
		return false, checkErr
	}
	return rowsAffected == 1, nil
}
