package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/brewbracket/tournament-system/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound          = errors.New("match not found")
	ErrMatchTournamentInvalid = errors.New("match tournament conflict or invalid")
	ErrMatchTeamInvalid       = errors.New("match team conflict or invalid")
)

type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int, round *int, complete *bool) ([]*models.Match, error)
	// SetResult writes the confirmed outcome on the match. The caller owns
	// arbitration; this is a plain single-document write.
	SetResult(ctx context.Context, id int, winnerTeamID, scoreA, scoreB int, endTime time.Time) error
	// Void marks a match complete-with-note so a rematch can supersede it.
	Void(ctx context.Context, id int, note string) error
	// SetAdminOverride forces an outcome and stores the pre-override
	// annotation produced by the adjudication service.
	SetAdminOverride(ctx context.Context, id int, winnerTeamID, scoreA, scoreB int, annotation string, endTime time.Time) error
	AppendMediaKey(ctx context.Context, id int, key string) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `id, tournament_id, event_id, round, team_a_id, team_b_id, winner_team_id, score_a, score_b, is_complete, start_time, end_time, bracket_uid, media_keys, note, admin_override, created_at`

func (r *postgresMatchRepository) Create(ctx context.Context, match *models.Match) error {
	query := `
		INSERT INTO matches
			(tournament_id, event_id, round, team_a_id, team_b_id, start_time, bracket_uid, media_keys)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	if match.MediaKeys == nil {
		match.MediaKeys = pq.StringArray{}
	}
	err := r.db.QueryRowContext(ctx, query,
		match.TournamentID,
		match.EventID,
		match.Round,
		match.TeamAID,
		match.TeamBID,
		match.StartTime,
		match.BracketUID,
		match.MediaKeys,
	).Scan(&match.ID, &match.CreatedAt)

	return r.handleMatchError(err)
}

func scanMatch(scanner interface{ Scan(...interface{}) error }, match *models.Match) error {
	return scanner.Scan(
		&match.ID,
		&match.TournamentID,
		&match.EventID,
		&match.Round,
		&match.TeamAID,
		&match.TeamBID,
		&match.WinnerTeamID,
		&match.ScoreA,
		&match.ScoreB,
		&match.IsComplete,
		&match.StartTime,
		&match.EndTime,
		&match.BracketUID,
		&match.MediaKeys,
		&match.Note,
		&match.AdminOverride,
		&match.CreatedAt,
	)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	match := &models.Match{}
	err := scanMatch(r.db.QueryRowContext(ctx, query, id), match)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID int, roundFilter *int, completeFilter *bool) ([]*models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1`)

	args := []interface{}{tournamentID}
	placeholderIndex := 2

	if roundFilter != nil {
		queryBuilder.WriteString(" AND round = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *roundFilter)
		placeholderIndex++
	}

	if completeFilter != nil {
		queryBuilder.WriteString(" AND is_complete = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *completeFilter)
		placeholderIndex++
	}

	queryBuilder.WriteString(" ORDER BY round ASC, id ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		var match models.Match
		if scanErr := scanMatch(rows, &match); scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, &match)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *postgresMatchRepository) SetResult(ctx context.Context, id int, winnerTeamID, scoreA, scoreB int, endTime time.Time) error {
	query := `
		UPDATE matches
		SET winner_team_id = $1, score_a = $2, score_b = $3, is_complete = TRUE, end_time = $4
		WHERE id = $5`

	result, err := r.db.ExecContext(ctx, query, winnerTeamID, scoreA, scoreB, endTime, id)
	if err != nil {
		return r.handleMatchError(err)
	}

	rowsAffected, checkErr := checkRowsAffected(result)
	if checkErr != nil {
		return checkErr
	}
	if rowsAffected == 0 {
		return ErrMatchNotFound
	}
	return nil
}

func (r *postgresMatchRepository) Void(ctx context.Context, id int, note string) error {
	query := `
		UPDATE matches
		SET is_complete = TRUE, note = $1
		WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, note, id)
	if err != nil {
		return err
	}

	rowsAffected, checkErr := checkRowsAffected(result)
	if checkErr != nil {
		return checkErr
	}
	if rowsAffected == 0 {
		return ErrMatchNotFound
	}
	return nil
}

func (r *postgresMatchRepository) SetAdminOverride(ctx context.Context, id int, winnerTeamID, scoreA, scoreB int, annotation string, endTime time.Time) error {
	query := `
		UPDATE matches
		SET winner_team_id = $1, score_a = $2, score_b = $3, is_complete = TRUE, end_time = $4, admin_override = $5
		WHERE id = $6`

	result, err := r.db.ExecContext(ctx, query, winnerTeamID, scoreA, scoreB, endTime, annotation, id)
	if err != nil {
		return r.handleMatchError(err)
	}

	rowsAffected, checkErr := checkRowsAffected(result)
	if checkErr != nil {
		return checkErr
	}
	if rowsAffected == 0 {
		return ErrMatchNotFound
	}
	return nil
}

func (r *postgresMatchRepository) AppendMediaKey(ctx context.Context, id int, key string) error {
	query := `
		UPDATE matches
		SET media_keys = array_append(media_keys, $1)
		WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, key, id)
	if err != nil {
		return err
	}

	rowsAffected, checkErr := checkRowsAffected(result)
	if checkErr != nil {
		return checkErr
	}
	if rowsAffected == 0 {
		return ErrMatchNotFound
	}
	return nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		if pqErr.Code == "23503" { // foreign_key_violation
			switch pqErr.Constraint {
			case "matches_tournament_id_fkey":
				return ErrMatchTournamentInvalid
			case "matches_team_a_id_fkey", "matches_team_b_id_fkey", "matches_winner_team_id_fkey":
				return ErrMatchTeamInvalid
			}
		}
	}
	return err
}
