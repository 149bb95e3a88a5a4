package repositories

import (
	"context"
	"database/sql"

	"github.com/brewbracket/tournament-system/models"
)

type LedgerRepository interface {
	// Append writes one point-ledger row. The ledger is append-only; there
	// is no update or delete path.
	Append(ctx context.Context, entry *models.PointLedgerEntry) error
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.PointLedgerEntry, error)
}

type postgresLedgerRepository struct {
	db *sql.DB
}

func NewPostgresLedgerRepository(db *sql.DB) LedgerRepository {
	return &postgresLedgerRepository{db: db}
}

func (r *postgresLedgerRepository) Append(ctx context.Context, entry *models.PointLedgerEntry) error {
	query := `
		INSERT INTO point_ledger_entries (tournament_id, match_id, team_id, points, outcome)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		entry.TournamentID,
		entry.MatchID,
		entry.TeamID,
		entry.Points,
		entry.Outcome,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *postgresLedgerRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.PointLedgerEntry, error) {
	query := `
		SELECT id, tournament_id, match_id, team_id, points, outcome, created_at
		FROM point_ledger_entries
		WHERE tournament_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*models.PointLedgerEntry, 0)
	for rows.Next() {
		var entry models.PointLedgerEntry
		if scanErr := rows.Scan(
			&entry.ID,
			&entry.TournamentID,
			&entry.MatchID,
			&entry.TeamID,
			&entry.Points,
			&entry.Outcome,
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
