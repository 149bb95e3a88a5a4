package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/brewbracket/tournament-system/models"
	"github.com/lib/pq"
)

var (
	ErrSubmissionNotFound = errors.New("score submission not found")
	// ErrSubmissionPendingExists: another pending submission already exists
	// for the match. Raised by the conditional insert, backed by the
	// uq_submissions_pending_match partial unique index, so two racing
	// submitters cannot both get a pending row.
	ErrSubmissionPendingExists = errors.New("a pending submission already exists for this match")
	// ErrSubmissionNotInStatus: a guarded status transition matched zero
	// rows, meaning another caller already settled the submission.
	ErrSubmissionNotInStatus = errors.New("submission is not in the expected status")
)

type SubmissionRepository interface {
	// Create inserts a pending submission only if the match has no other
	// pending submission. The check and the insert are a single statement.
	Create(ctx context.Context, sub *models.ScoreSubmission) error
	GetByID(ctx context.Context, id string) (*models.ScoreSubmission, error)
	ListByMatch(ctx context.Context, matchID int) ([]*models.ScoreSubmission, error)
	// ListDueAutoConfirm returns pending submissions whose auto-confirm due
	// time has passed. The scheduler feeds these to the idempotent confirm.
	ListDueAutoConfirm(ctx context.Context, now time.Time, limit int) ([]*models.ScoreSubmission, error)
	// MarkConfirmed performs the pending→confirmed (or disputed→confirmed,
	// for adjudication) compare-and-swap. ErrSubmissionNotInStatus means the
	// caller lost the race and must treat the operation as a no-op.
	MarkConfirmed(ctx context.Context, id string, from models.SubmissionStatus, confirmedAt time.Time) error
	// MarkDisputed performs the pending→disputed compare-and-swap.
	MarkDisputed(ctx context.Context, id string, disputedBy int, disputedAt time.Time) error
	// UpdateProposedResult rewrites winner/score on a disputed submission
	// ahead of an override_score confirmation.
	UpdateProposedResult(ctx context.Context, id string, winnerTeamID, scoreA, scoreB int) error
}

type postgresSubmissionRepository struct {
	db *sql.DB
}

func NewPostgresSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &postgresSubmissionRepository{db: db}
}

const submissionColumns = `id, match_id, tournament_id, reporter_id, winner_team_id, score_a, score_b, status, disputed_by, disputed_at, confirmed_at, auto_confirm_at, created_at`

func (r *postgresSubmissionRepository) Create(ctx context.Context, sub *models.ScoreSubmission) error {
	// INSERT ... WHERE NOT EXISTS keeps the existence check and the insert
	// in one statement; the partial unique index covers the remaining
	// serialization window between two concurrent inserts.
	query := `
		INSERT INTO score_submissions
			(id, match_id, tournament_id, reporter_id, winner_team_id, score_a, score_b, status, auto_confirm_at)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9
		WHERE NOT EXISTS (
			SELECT 1 FROM score_submissions
			WHERE match_id = $2 AND status = $8
		)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		sub.ID,
		sub.MatchID,
		sub.TournamentID,
		sub.ReporterID,
		sub.WinnerTeamID,
		sub.ScoreA,
		sub.ScoreB,
		models.SubmissionPending,
		sub.AutoConfirmAt,
	).Scan(&sub.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSubmissionPendingExists
		}
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" && pqErr.Constraint == "uq_submissions_pending_match" {
				return ErrSubmissionPendingExists
			}
		}
		return err
	}
	sub.Status = models.SubmissionPending
	return nil
}

func scanSubmission(scanner interface{ Scan(...interface{}) error }, sub *models.ScoreSubmission) error {
	return scanner.Scan(
		&sub.ID,
		&sub.MatchID,
		&sub.TournamentID,
		&sub.ReporterID,
		&sub.WinnerTeamID,
		&sub.ScoreA,
		&sub.ScoreB,
		&sub.Status,
		&sub.DisputedBy,
		&sub.DisputedAt,
		&sub.ConfirmedAt,
		&sub.AutoConfirmAt,
		&sub.CreatedAt,
	)
}

func (r *postgresSubmissionRepository) GetByID(ctx context.Context, id string) (*models.ScoreSubmission, error) {
	query := `SELECT ` + submissionColumns + ` FROM score_submissions WHERE id = $1`

	sub := &models.ScoreSubmission{}
	err := scanSubmission(r.db.QueryRowContext(ctx, query, id), sub)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	return sub, nil
}

func (r *postgresSubmissionRepository) ListByMatch(ctx context.Context, matchID int) ([]*models.ScoreSubmission, error) {
	query := `SELECT ` + submissionColumns + ` FROM score_submissions WHERE match_id = $1 ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := make([]*models.ScoreSubmission, 0)
	for rows.Next() {
		var sub models.ScoreSubmission
		if scanErr := scanSubmission(rows, &sub); scanErr != nil {
			return nil, scanErr
		}
		subs = append(subs, &sub)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *postgresSubmissionRepository) ListDueAutoConfirm(ctx context.Context, now time.Time, limit int) ([]*models.ScoreSubmission, error) {
	query := `
		SELECT ` + submissionColumns + `
		FROM score_submissions
		WHERE status = $1 AND auto_confirm_at <= $2
		ORDER BY auto_confirm_at ASC
		LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, models.SubmissionPending, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := make([]*models.ScoreSubmission, 0)
	for rows.Next() {
		var sub models.ScoreSubmission
		if scanErr := scanSubmission(rows, &sub); scanErr != nil {
			return nil, scanErr
		}
		subs = append(subs, &sub)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *postgresSubmissionRepository) MarkConfirmed(ctx context.Context, id string, from models.SubmissionStatus, confirmedAt time.Time) error {
	query := `
		UPDATE score_submissions
		SET status = $1, confirmed_at = $2
		WHERE id = $3 AND status = $4`

	result, err := r.db.ExecContext(ctx, query, models.SubmissionConfirmed, confirmedAt, id, from)
	if err != nil {
		return err
	}

	rowsAffected, checkErr := checkRowsAffected(result)
	if checkErr != nil {
		return checkErr
	}
	if rowsAffected == 0 {
		return ErrSubmissionNotInStatus
	}
	return nil
}

func (r *postgresSubmissionRepository) MarkDisputed(ctx context.Context, id string, disputedBy int, disputedAt time.Time) error {
	query := `
		UPDATE score_submissions
		SET status = $1, disputed_by = $2, disputed_at = $3
		WHERE id = $4 AND status = $5`

	result, err := r.db.ExecContext(ctx, query, models.SubmissionDisputed, disputedBy, disputedAt, id, models.SubmissionPending)
	if err != nil {
		return err
	}

	rowsAffected, checkErr := checkRowsAffected(result)
	if checkErr != nil {
		return checkErr
	}
	if rowsAffected == 0 {
		return ErrSubmissionNotInStatus
	}
	return nil
}

func (r *postgresSubmissionRepository) UpdateProposedResult(ctx context.Context, id string, winnerTeamID, scoreA, scoreB int) error {
	query := `
		UPDATE score_submissions
		SET winner_team_id = $1, score_a = $2, score_b = $3
		WHERE id = $4`

	result, err := r.db.ExecContext(ctx, query, winnerTeamID, scoreA, scoreB, id)
	if err != nil {
		return err
	}

	rowsAffected, checkErr := checkRowsAffected(result)
	if checkErr != nil {
		return checkErr
	}
	if rowsAffected == 0 {
		return ErrSubmissionNotFound
	}
	return nil
}
