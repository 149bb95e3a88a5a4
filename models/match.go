package models

import (
	"time"

	"github.com/lib/pq"
)

// Match is a single contest between two teams within a tournament round.
// Team slots may be nil until the previous round resolves.
//
// A match is complete iff winner and both scores are set. A voided match
// (rematch resolution) is complete with a Note and is no longer
// authoritative; it is never deleted.
type Match struct {
	ID           int  `json:"id" db:"id"`
	TournamentID int  `json:"tournament_id" db:"tournament_id"`
	EventID      int  `json:"event_id" db:"event_id"`
	Round        int  `json:"round" db:"round"`
	TeamAID      *int `json:"team_a_id,omitempty" db:"team_a_id"`
	TeamBID      *int `json:"team_b_id,omitempty" db:"team_b_id"`

	WinnerTeamID *int `json:"winner_team_id,omitempty" db:"winner_team_id"`
	ScoreA       *int `json:"score_a,omitempty" db:"score_a"`
	ScoreB       *int `json:"score_b,omitempty" db:"score_b"`
	IsComplete   bool `json:"is_complete" db:"is_complete"`

	StartTime *time.Time `json:"start_time,omitempty" db:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty" db:"end_time"`

	// BracketUID correlates the match with the bracket engine's node.
	BracketUID *string        `json:"bracket_uid,omitempty" db:"bracket_uid"`
	MediaKeys  pq.StringArray `json:"media_keys" db:"media_keys"`

	// Note marks a voided match (superseded by a rematch).
	Note *string `json:"note,omitempty" db:"note"`
	// AdminOverride holds a JSON annotation with the pre-override values
	// when an admin forced the outcome directly.
	AdminOverride *string `json:"admin_override,omitempty" db:"admin_override"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`

	TeamA  *Team `json:"team_a,omitempty" db:"-"`
	TeamB  *Team `json:"team_b,omitempty" db:"-"`
	Winner *Team `json:"winner,omitempty" db:"-"`
}

// HasTeam reports whether teamID occupies one of the match's slots.
func (m *Match) HasTeam(teamID int) bool {
	if m.TeamAID != nil && *m.TeamAID == teamID {
		return true
	}
	if m.TeamBID != nil && *m.TeamBID == teamID {
		return true
	}
	return false
}

// OpposingTeam returns the other slot relative to teamID, nil if teamID
// is not in the match or the other slot is unresolved.
func (m *Match) OpposingTeam(teamID int) *int {
	if m.TeamAID != nil && *m.TeamAID == teamID {
		return m.TeamBID
	}
	if m.TeamBID != nil && *m.TeamBID == teamID {
		return m.TeamAID
	}
	return nil
}
