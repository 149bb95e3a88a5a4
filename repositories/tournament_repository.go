package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/brewbracket/tournament-system/models"
	"github.com/lib/pq"
)

var (
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrTournamentNameConflict = errors.New("tournament name already exists")
)

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, limit, offset int) ([]*models.Tournament, error)
	ListByParent(ctx context.Context, parentID int) ([]*models.Tournament, error)
	UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) error
	// UpdateBracketState persists the opaque engine state together with the
	// round counter the pipeline derived from it.
	UpdateBracketState(ctx context.Context, id int, state string, currentRound int) error
	RegisterTeam(ctx context.Context, tournamentID, teamID int) error
	// ListTeamIDs returns registered team ids in registration order; the
	// bracket engine seeds from this ordering.
	ListTeamIDs(ctx context.Context, tournamentID int) ([]int, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

const tournamentColumns = `id, name, event_id, organizer_id, parent_id, bracket_type, status, current_round, bracket_state, start_date, created_at`

func (r *postgresTournamentRepository) Create(ctx context.Context, tournament *models.Tournament) error {
	query := `
		INSERT INTO tournaments
			(name, event_id, organizer_id, parent_id, bracket_type, status, current_round, start_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		tournament.Name,
		tournament.EventID,
		tournament.OrganizerID,
		tournament.ParentID,
		tournament.BracketType,
		tournament.Status,
		tournament.CurrentRound,
		tournament.StartDate,
	).Scan(&tournament.ID, &tournament.CreatedAt)

	if pqErr, ok := err.(*pq.Error); ok {
		if pqErr.Code == "23505" && pqErr.Constraint == "tournaments_name_key" {
			return ErrTournamentNameConflict
		}
	}
	return err
}

func scanTournament(scanner interface{ Scan(...interface{}) error }, t *models.Tournament) error {
	return scanner.Scan(
		&t.ID,
		&t.Name,
		&t.EventID,
		&t.OrganizerID,
		&t.ParentID,
		&t.BracketType,
		&t.Status,
		&t.CurrentRound,
		&t.BracketState,
		&t.StartDate,
		&t.CreatedAt,
	)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`

	tournament := &models.Tournament{}
	err := scanTournament(r.db.QueryRowContext(ctx, query, id), tournament)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return tournament, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, limit, offset int) ([]*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	return r.queryTournaments(ctx, query, limit, offset)
}

func (r *postgresTournamentRepository) ListByParent(ctx context.Context, parentID int) ([]*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE parent_id = $1 ORDER BY created_at ASC`
	return r.queryTournaments(ctx, query, parentID)
}

func (r *postgresTournamentRepository) queryTournaments(ctx context.Context, query string, args ...interface{}) ([]*models.Tournament, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		var tournament models.Tournament
		if scanErr := scanTournament(rows, &tournament); scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, &tournament)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) error {
	query := `UPDATE tournaments SET status = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	rowsAffected, checkErr := checkRowsAffected(result)
	if checkErr != nil {
		return checkErr
	}
	if rowsAffected == 0 {
		return ErrTournamentNotFound
	}
	return nil
}

func (r *postgresTournamentRepository) RegisterTeam(ctx context.Context, tournamentID, teamID int) error {
	query := `INSERT INTO tournament_teams (tournament_id, team_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`

	_, err := r.db.ExecContext(ctx, query, tournamentID, teamID)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
		return ErrTournamentNotFound
	}
	return err
}

func (r *postgresTournamentRepository) ListTeamIDs(ctx context.Context, tournamentID int) ([]int, error) {
	query := `SELECT team_id FROM tournament_teams WHERE tournament_id = $1 ORDER BY created_at ASC, team_id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, scanErr
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *postgresTournamentRepository) UpdateBracketState(ctx context.Context, id int, state string, currentRound int) error {
	query := `UPDATE tournaments SET bracket_state = $1, current_round = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, state, currentRound, id)
	if err != nil {
		return err
	}
	rowsAffected, checkErr := checkRowsAffected(result)
	if checkErr != nil {
		return checkErr
	}
	if rowsAffected == 0 {
		return ErrTournamentNotFound
	}
	return nil
}
