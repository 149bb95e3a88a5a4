package models

import "time"

type TournamentStatus string

const (
	TournamentStatusRegistration TournamentStatus = "registration"
	TournamentStatusActive       TournamentStatus = "active"
	TournamentStatusCompleted    TournamentStatus = "completed"
	TournamentStatusCanceled     TournamentStatus = "canceled"
)

type BracketType string

const (
	BracketSingleElimination BracketType = "single_elimination"
	BracketRoundRobin        BracketType = "round_robin"
)

type Tournament struct {
	ID          int              `json:"id" db:"id"`
	Name        string           `json:"name" db:"name"`
	EventID     int              `json:"event_id" db:"event_id"`
	OrganizerID int              `json:"organizer_id" db:"organizer_id"`
	// ParentID links a sub-tournament to its mega-tournament.
	ParentID     *int             `json:"parent_id,omitempty" db:"parent_id"`
	BracketType  BracketType      `json:"bracket_type" db:"bracket_type"`
	Status       TournamentStatus `json:"status" db:"status"`
	CurrentRound int              `json:"current_round" db:"current_round"`
	// BracketState is the opaque serialized bracket engine state.
	BracketState *string   `json:"-" db:"bracket_state"`
	StartDate    time.Time `json:"start_date" db:"start_date"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`

	Event     *Event  `json:"event,omitempty" db:"-"`
	Organizer *User   `json:"organizer,omitempty" db:"-"`
	Matches   []Match `json:"matches,omitempty" db:"-"`
}
