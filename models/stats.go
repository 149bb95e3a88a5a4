package models

import "time"

// PlayerProfile is a derived aggregate, recomputed incrementally on each
// confirmed match. Never the source of truth; eventually consistent.
type PlayerProfile struct {
	UserID      int       `json:"user_id" db:"user_id"`
	GamesPlayed int       `json:"games_played" db:"games_played"`
	Wins        int       `json:"wins" db:"wins"`
	Losses      int       `json:"losses" db:"losses"`
	CupsFor     int       `json:"cups_for" db:"cups_for"`
	CupsAgainst int       `json:"cups_against" db:"cups_against"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// MegaTournamentScore accumulates a team's combined points across the
// sub-tournaments of a mega-tournament.
type MegaTournamentScore struct {
	MegaTournamentID int       `json:"mega_tournament_id" db:"mega_tournament_id"`
	TeamID           int       `json:"team_id" db:"team_id"`
	Points           int       `json:"points" db:"points"`
	Wins             int       `json:"wins" db:"wins"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// AggregateKind keys the idempotency markers written by the confirmation
// fan-out so retries never double-apply an aggregate update.
type AggregateKind string

const (
	AggregatePlayerStats AggregateKind = "player_stats"
	AggregateMegaScore   AggregateKind = "mega_score"
	AggregatePointLedger AggregateKind = "point_ledger"
)
