package models

import "time"

type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionConfirmed SubmissionStatus = "confirmed"
	SubmissionDisputed  SubmissionStatus = "disputed"
)

// ScoreSubmission proposes a result for exactly one match. At most one
// pending submission may exist per match; the repository enforces this
// atomically. AutoConfirmAt is the durable due time for the auto-confirm
// job, so pending confirmations survive a process restart.
type ScoreSubmission struct {
	ID            string           `json:"id" db:"id"`
	MatchID       int              `json:"match_id" db:"match_id"`
	TournamentID  int              `json:"tournament_id" db:"tournament_id"`
	ReporterID    int              `json:"reporter_id" db:"reporter_id"`
	WinnerTeamID  int              `json:"winner_team_id" db:"winner_team_id"`
	ScoreA        int              `json:"score_a" db:"score_a"`
	ScoreB        int              `json:"score_b" db:"score_b"`
	Status        SubmissionStatus `json:"status" db:"status"`
	DisputedBy    *int             `json:"disputed_by,omitempty" db:"disputed_by"`
	DisputedAt    *time.Time       `json:"disputed_at,omitempty" db:"disputed_at"`
	ConfirmedAt   *time.Time       `json:"confirmed_at,omitempty" db:"confirmed_at"`
	AutoConfirmAt time.Time        `json:"auto_confirm_at" db:"auto_confirm_at"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
}
