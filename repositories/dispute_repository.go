package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/brewbracket/tournament-system/models"
)

var (
	ErrDisputeNotFound = errors.New("dispute not found")
	// ErrDisputeAlreadyResolved: the open→resolved compare-and-swap matched
	// zero rows; another adjudicator got there first.
	ErrDisputeAlreadyResolved = errors.New("dispute is already resolved")
)

type DisputeRepository interface {
	Create(ctx context.Context, dispute *models.Dispute) error
	GetByID(ctx context.Context, id string) (*models.Dispute, error)
	ListByTournament(ctx context.Context, tournamentID int, status *models.DisputeStatus) ([]*models.Dispute, error)
	// MarkResolved claims the dispute exactly once (CAS on status=open).
	MarkResolved(ctx context.Context, id string, resolution models.DisputeResolution, resolvedBy int, resolvedAt time.Time) error
}

type postgresDisputeRepository struct {
	db *sql.DB
}

func NewPostgresDisputeRepository(db *sql.DB) DisputeRepository {
	return &postgresDisputeRepository{db: db}
}

const disputeColumns = `id, submission_id, match_id, tournament_id, disputed_by, reason, status, resolution, resolved_by, resolved_at, created_at`

func (r *postgresDisputeRepository) Create(ctx context.Context, dispute *models.Dispute) error {
	query := `
		INSERT INTO disputes
			(id, submission_id, match_id, tournament_id, disputed_by, reason, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		dispute.ID,
		dispute.SubmissionID,
		dispute.MatchID,
		dispute.TournamentID,
		dispute.DisputedBy,
		dispute.Reason,
		models.DisputeOpen,
	).Scan(&dispute.CreatedAt)
	if err != nil {
		return err
	}
	dispute.Status = models.DisputeOpen
	return nil
}

func scanDispute(scanner interface{ Scan(...interface{}) error }, d *models.Dispute) error {
	return scanner.Scan(
		&d.ID,
		&d.SubmissionID,
		&d.MatchID,
		&d.TournamentID,
		&d.DisputedBy,
		&d.Reason,
		&d.Status,
		&d.Resolution,
		&d.ResolvedBy,
		&d.ResolvedAt,
		&d.CreatedAt,
	)
}

func (r *postgresDisputeRepository) GetByID(ctx context.Context, id string) (*models.Dispute, error) {
	query := `SELECT ` + disputeColumns + ` FROM disputes WHERE id = $1`

	dispute := &models.Dispute{}
	err := scanDispute(r.db.QueryRowContext(ctx, query, id), dispute)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDisputeNotFound
		}
		return nil, err
	}
	return dispute, nil
}

func (r *postgresDisputeRepository) ListByTournament(ctx context.Context, tournamentID int, statusFilter *models.DisputeStatus) ([]*models.Dispute, error) {
	query := `SELECT ` + disputeColumns + ` FROM disputes WHERE tournament_id = $1`
	args := []interface{}{tournamentID}
	if statusFilter != nil {
		query += ` AND status = $2`
		args = append(args, *statusFilter)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	disputes := make([]*models.Dispute, 0)
	for rows.Next() {
		var dispute models.Dispute
		if scanErr := scanDispute(rows, &dispute); scanErr != nil {
			return nil, scanErr
		}
		disputes = append(disputes, &dispute)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return disputes, nil
}

func (r *postgresDisputeRepository) MarkResolved(ctx context.Context, id string, resolution models.DisputeResolution, resolvedBy int, resolvedAt time.Time) error {
	query := `
		UPDATE disputes
		SET status = $1, resolution = $2, resolved_by = $3, resolved_at = $4
		WHERE id = $5 AND status = $6`

	result, err := r.db.ExecContext(ctx, query, models.DisputeResolved, resolution, resolvedBy, resolvedAt, id, models.DisputeOpen)
	if err != nil {
		return err
	}

	rowsAffected, checkErr := checkRowsAffected(result)
	if checkErr != nil {
		return checkErr
	}
	if rowsAffected == 0 {
		return ErrDisputeAlreadyResolved
	}
	return nil
}
