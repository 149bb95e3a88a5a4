package repositories

import (
	"context"
	"database/sql"

	"github.com/brewbracket/tournament-system/models"
)

type MegaScoreRepository interface {
	// ApplyResult accumulates a team's points into the mega-tournament
	// standings (upsert keyed by parent tournament + team).
	ApplyResult(ctx context.Context, megaTournamentID, teamID, points int, won bool) error
	ListStandings(ctx context.Context, megaTournamentID int) ([]*models.MegaTournamentScore, error)
}

type postgresMegaScoreRepository struct {
	db *sql.DB
}

func NewPostgresMegaScoreRepository(db *sql.DB) MegaScoreRepository {
	return &postgresMegaScoreRepository{db: db}
}

func (r *postgresMegaScoreRepository) ApplyResult(ctx context.Context, megaTournamentID, teamID, points int, won bool) error {
	winInc := 0
	if won {
		winInc = 1
	}

	query := `
		INSERT INTO mega_tournament_scores (mega_tournament_id, team_id, points, wins, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (mega_tournament_id, team_id) DO UPDATE SET
			points = mega_tournament_scores.points + $3,
			wins = mega_tournament_scores.wins + $4,
			updated_at = NOW()`

	_, err := r.db.ExecContext(ctx, query, megaTournamentID, teamID, points, winInc)
	return err
}

func (r *postgresMegaScoreRepository) ListStandings(ctx context.Context, megaTournamentID int) ([]*models.MegaTournamentScore, error) {
	query := `
		SELECT mega_tournament_id, team_id, points, wins, updated_at
		FROM mega_tournament_scores
		WHERE mega_tournament_id = $1
		ORDER BY points DESC, wins DESC, team_id ASC`

	rows, err := r.db.QueryContext(ctx, query, megaTournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scores := make([]*models.MegaTournamentScore, 0)
	for rows.Next() {
		var score models.MegaTournamentScore
		if scanErr := rows.Scan(
			&score.MegaTournamentID,
			&score.TeamID,
			&score.Points,
			&score.Wins,
			&score.UpdatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		scores = append(scores, &score)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return scores, nil
}
