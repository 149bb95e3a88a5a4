package brackets

import (
	"encoding/json"
	"errors"
	"fmt"
)

type rrState struct {
	Nodes []*seNode `json:"nodes"`
}

// RoundRobinEngine tracks a league phase where every team plays every
// other team once. All pairings are determined up front, so RecordResult
// never yields new ones; completion means every pairing has a winner.
type RoundRobinEngine struct {
	state rrState
	byUID map[string]*seNode
}

func NewRoundRobinEngine(teamIDs []int) (*RoundRobinEngine, error) {
	if len(teamIDs) < 2 {
		return nil, errors.New("not enough teams for a round robin (minimum 2)")
	}

	e := &RoundRobinEngine{byUID: make(map[string]*seNode)}
	order := 0
	for i := 0; i < len(teamIDs); i++ {
		for j := i + 1; j < len(teamIDs); j++ {
			order++
			teamA := teamIDs[i]
			teamB := teamIDs[j]
			node := &seNode{
				UID:          fmt.Sprintf("RRM%d", order),
				Round:        1,
				OrderInRound: order,
				TeamAID:      &teamA,
				TeamBID:      &teamB,
			}
			e.state.Nodes = append(e.state.Nodes, node)
			e.byUID[node.UID] = node
		}
	}
	return e, nil
}

func restoreRoundRobin(serialized string) (*RoundRobinEngine, error) {
	var state rrState
	if err := json.Unmarshal([]byte(serialized), &state); err != nil {
		return nil, fmt.Errorf("failed to decode round robin state: %w", err)
	}
	e := &RoundRobinEngine{state: state, byUID: make(map[string]*seNode, len(state.Nodes))}
	for _, node := range state.Nodes {
		e.byUID[node.UID] = node
	}
	return e, nil
}

func (e *RoundRobinEngine) GetName() string { return "RoundRobin" }

func (e *RoundRobinEngine) RecordResult(matchUID string, outcome Outcome) ([]Pairing, error) {
	node, ok := e.byUID[matchUID]
	if !ok {
		return nil, ErrMatchUIDUnknown
	}
	if node.WinnerTeamID != nil {
		return nil, ErrMatchAlreadyDecided
	}
	if (node.TeamAID == nil || *node.TeamAID != outcome.WinnerTeamID) &&
		(node.TeamBID == nil || *node.TeamBID != outcome.WinnerTeamID) {
		return nil, ErrWinnerNotInBracket
	}
	winner := outcome.WinnerTeamID
	node.WinnerTeamID = &winner
	return nil, nil
}

// CurrentRound is always 1: the league phase is one conceptual round.
func (e *RoundRobinEngine) CurrentRound() int { return 1 }

func (e *RoundRobinEngine) CurrentRoundMatches() []EngineMatch {
	matches := make([]EngineMatch, 0, len(e.state.Nodes))
	for _, node := range e.state.Nodes {
		matches = append(matches, EngineMatch{
			UID:          node.UID,
			Round:        node.Round,
			OrderInRound: node.OrderInRound,
			TeamAID:      node.TeamAID,
			TeamBID:      node.TeamBID,
			WinnerTeamID: node.WinnerTeamID,
		})
	}
	return matches
}

func (e *RoundRobinEngine) InitialPairings() []Pairing {
	pairings := make([]Pairing, 0, len(e.state.Nodes))
	for _, node := range e.state.Nodes {
		pairings = append(pairings, Pairing{
			UID:     node.UID,
			Round:   node.Round,
			TeamAID: *node.TeamAID,
			TeamBID: *node.TeamBID,
		})
	}
	return pairings
}

func (e *RoundRobinEngine) IsComplete() bool {
	for _, node := range e.state.Nodes {
		if node.WinnerTeamID == nil {
			return false
		}
	}
	return true
}

func (e *RoundRobinEngine) ExportState() (string, error) {
	data, err := json.Marshal(e.state)
	if err != nil {
		return "", fmt.Errorf("failed to encode round robin state: %w", err)
	}
	return string(data), nil
}
