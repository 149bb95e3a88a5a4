package models

import "time"

type LedgerOutcome string

const (
	LedgerWin  LedgerOutcome = "win"
	LedgerLoss LedgerOutcome = "loss"
)

// PointLedgerEntry is an append-only record of points awarded to a team
// for one confirmed match.
type PointLedgerEntry struct {
	ID           int           `json:"id" db:"id"`
	TournamentID int           `json:"tournament_id" db:"tournament_id"`
	MatchID      int           `json:"match_id" db:"match_id"`
	TeamID       int           `json:"team_id" db:"team_id"`
	Points       int           `json:"points" db:"points"`
	Outcome      LedgerOutcome `json:"outcome" db:"outcome"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
}
