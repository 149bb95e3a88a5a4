package models

import "time"

type DisputeStatus string

const (
	DisputeOpen     DisputeStatus = "open"
	DisputeResolved DisputeStatus = "resolved"
)

// DisputeResolution is the closed set of adjudication outcomes. Dispatch
// happens in a single switch with an invalid-argument default; adding a
// kind means extending that switch.
type DisputeResolution string

const (
	ResolutionAcceptOriginal DisputeResolution = "accept_original"
	ResolutionOverrideScore  DisputeResolution = "override_score"
	ResolutionRematch        DisputeResolution = "rematch"
)

func (r DisputeResolution) Valid() bool {
	switch r {
	case ResolutionAcceptOriginal, ResolutionOverrideScore, ResolutionRematch:
		return true
	}
	return false
}

type Dispute struct {
	ID           string             `json:"id" db:"id"`
	SubmissionID string             `json:"submission_id" db:"submission_id"`
	MatchID      int                `json:"match_id" db:"match_id"`
	TournamentID int                `json:"tournament_id" db:"tournament_id"`
	DisputedBy   int                `json:"disputed_by" db:"disputed_by"`
	Reason       string             `json:"reason" db:"reason"`
	Status       DisputeStatus      `json:"status" db:"status"`
	Resolution   *DisputeResolution `json:"resolution,omitempty" db:"resolution"`
	ResolvedBy   *int               `json:"resolved_by,omitempty" db:"resolved_by"`
	ResolvedAt   *time.Time         `json:"resolved_at,omitempty" db:"resolved_at"`
	CreatedAt    time.Time          `json:"created_at" db:"created_at"`
}
