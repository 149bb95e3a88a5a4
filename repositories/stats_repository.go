package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/brewbracket/tournament-system/models"
)

var ErrProfileNotFound = errors.New("player profile not found")

type StatsRepository interface {
	GetProfile(ctx context.Context, userID int) (*models.PlayerProfile, error)
	// ApplyMatchResult upserts one player's incremental stat delta for a
	// confirmed match. Concurrent confirmations of different matches
	// touching the same profile may interleave; accepted best-effort.
	ApplyMatchResult(ctx context.Context, userID int, won bool, cupsFor, cupsAgainst int) error
}

type postgresStatsRepository struct {
	db *sql.DB
}

func NewPostgresStatsRepository(db *sql.DB) StatsRepository {
	return &postgresStatsRepository{db: db}
}

func (r *postgresStatsRepository) GetProfile(ctx context.Context, userID int) (*models.PlayerProfile, error) {
	query := `
		SELECT user_id, games_played, wins, losses, cups_for, cups_against, updated_at
		FROM player_profiles
		WHERE user_id = $1`

	profile := &models.PlayerProfile{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.GamesPlayed,
		&profile.Wins,
		&profile.Losses,
		&profile.CupsFor,
		&profile.CupsAgainst,
		&profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return profile, nil
}

func (r *postgresStatsRepository) ApplyMatchResult(ctx context.Context, userID int, won bool, cupsFor, cupsAgainst int) error {
	winInc := 0
	lossInc := 0
	if won {
		winInc = 1
	} else {
		lossInc = 1
	}

	query := `
		INSERT INTO player_profiles (user_id, games_played, wins, losses, cups_for, cups_against, updated_at)
		VALUES ($1, 1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			games_played = player_profiles.games_played + 1,
			wins = player_profiles.wins + $2,
			losses = player_profiles.losses + $3,
			cups_for = player_profiles.cups_for + $4,
			cups_against = player_profiles.cups_against + $5,
			updated_at = NOW()`

	_, err := r.db.ExecContext(ctx, query, userID, winInc, lossInc, cupsFor, cupsAgainst)
	return err
}
