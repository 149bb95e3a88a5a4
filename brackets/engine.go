package brackets

import (
	"errors"
	"fmt"

	"github.com/brewbracket/tournament-system/models"
)

var (
	ErrMatchUIDUnknown     = errors.New("bracket match uid not found in engine state")
	ErrWinnerNotInBracket  = errors.New("winner is not a participant of the bracket match")
	ErrMatchAlreadyDecided = errors.New("bracket match already has a recorded result")
)

// Outcome is the result vector fed into the engine for one match.
type Outcome struct {
	WinnerTeamID int
	ScoreA       int
	ScoreB       int
}

// EngineMatch is the engine's view of one bracket node.
type EngineMatch struct {
	UID          string `json:"uid"`
	Round        int    `json:"round"`
	OrderInRound int    `json:"order_in_round"`
	TeamAID      *int   `json:"team_a_id,omitempty"`
	TeamBID      *int   `json:"team_b_id,omitempty"`
	WinnerTeamID *int   `json:"winner_team_id,omitempty"`
}

// Pairing describes a bracket match whose participants just became fully
// determined, so the caller can schedule a real match document for it.
type Pairing struct {
	UID     string
	Round   int
	TeamAID int
	TeamBID int
}

// Engine owns tournament progression. State is opaque to callers: they
// persist whatever ExportState returns on the tournament document and feed
// it back through the factory.
type Engine interface {
	// RecordResult applies a confirmed outcome and returns any next-round
	// pairings that became determined by it.
	RecordResult(matchUID string, outcome Outcome) ([]Pairing, error)
	CurrentRound() int
	CurrentRoundMatches() []EngineMatch
	// InitialPairings lists the matches that are determined before any
	// result is recorded (the opening round, plus bye beneficiaries).
	InitialPairings() []Pairing
	IsComplete() bool
	ExportState() (string, error)
	GetName() string
}

// NewEngine builds a fresh engine seeding teamIDs in the given order.
func NewEngine(kind models.BracketType, teamIDs []int) (Engine, error) {
	switch kind {
	case models.BracketSingleElimination:
		return NewSingleEliminationEngine(teamIDs)
	case models.BracketRoundRobin:
		return NewRoundRobinEngine(teamIDs)
	default:
		return nil, fmt.Errorf("unsupported bracket type '%s'", kind)
	}
}

// NewEngineFromState restores an engine from its serialized form.
func NewEngineFromState(kind models.BracketType, state string) (Engine, error) {
	switch kind {
	case models.BracketSingleElimination:
		return restoreSingleElimination(state)
	case models.BracketRoundRobin:
		return restoreRoundRobin(state)
	default:
		return nil, fmt.Errorf("unsupported bracket type '%s'", kind)
	}
}
