package brackets

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

type seNode struct {
	UID          string  `json:"uid"`
	Round        int     `json:"round"`
	OrderInRound int     `json:"order_in_round"`
	TeamAID      *int    `json:"team_a_id,omitempty"`
	TeamBID      *int    `json:"team_b_id,omitempty"`
	WinnerTeamID *int    `json:"winner_team_id,omitempty"`
	NextUID      *string `json:"next_uid,omitempty"`
	// NextSlot is 1 for the A slot of the next match, 2 for the B slot.
	NextSlot int  `json:"next_slot,omitempty"`
	IsBye    bool `json:"is_bye,omitempty"`
}

type seState struct {
	Nodes     []*seNode `json:"nodes"`
	NumRounds int       `json:"num_rounds"`
}

// SingleEliminationEngine tracks progression through a knockout bracket.
// Byes are resolved at construction time and auto-advance their team.
type SingleEliminationEngine struct {
	state seState
	byUID map[string]*seNode
}

func NewSingleEliminationEngine(teamIDs []int) (*SingleEliminationEngine, error) {
	n := len(teamIDs)
	if n < 2 {
		return nil, errors.New("not enough teams for a single elimination bracket (minimum 2)")
	}

	numRounds := int(math.Ceil(math.Log2(float64(n))))
	bracketSize := 1 << uint(numRounds)

	e := &SingleEliminationEngine{
		state: seState{NumRounds: numRounds},
		byUID: make(map[string]*seNode),
	}

	// Build the full bracket shell round by round; round r has
	// bracketSize/2^r matches and match i of round r feeds slot i%2+1 of
	// match i/2 in round r+1.
	for r := 1; r <= numRounds; r++ {
		matchesInRound := bracketSize >> uint(r)
		for i := 0; i < matchesInRound; i++ {
			node := &seNode{
				UID:          fmt.Sprintf("R%dM%d", r, i+1),
				Round:        r,
				OrderInRound: i + 1,
			}
			if r < numRounds {
				nextUID := fmt.Sprintf("R%dM%d", r+1, i/2+1)
				node.NextUID = &nextUID
				node.NextSlot = i%2 + 1
			}
			e.state.Nodes = append(e.state.Nodes, node)
			e.byUID[node.UID] = node
		}
	}

	// Seed round one. Slots past the team count are byes.
	for i := 0; i < bracketSize/2; i++ {
		node := e.byUID[fmt.Sprintf("R1M%d", i+1)]
		if 2*i < n {
			teamA := teamIDs[2*i]
			node.TeamAID = &teamA
		}
		if 2*i+1 < n {
			teamB := teamIDs[2*i+1]
			node.TeamBID = &teamB
		}
		if node.TeamAID != nil && node.TeamBID == nil {
			node.IsBye = true
			node.WinnerTeamID = node.TeamAID
		}
		if node.TeamAID == nil && node.TeamBID == nil {
			// Dead slot pair: nobody ever emerges from here.
			node.IsBye = true
		}
	}

	// Advance bye winners, repeating in case two byes feed one node.
	for changed := true; changed; {
		changed = false
		for _, node := range e.state.Nodes {
			if !node.IsBye || node.WinnerTeamID == nil || node.NextUID == nil {
				continue
			}
			next := e.byUID[*node.NextUID]
			if e.placeWinner(next, node.NextSlot, *node.WinnerTeamID) {
				changed = true
			}
			if next.WinnerTeamID == nil && !next.IsBye {
				if next.TeamAID != nil && next.TeamBID == nil && e.onlyByeFeeds(next, 2) {
					next.IsBye = true
					next.WinnerTeamID = next.TeamAID
					changed = true
				} else if next.TeamBID != nil && next.TeamAID == nil && e.onlyByeFeeds(next, 1) {
					next.IsBye = true
					next.WinnerTeamID = next.TeamBID
					changed = true
				}
			}
		}
	}

	return e, nil
}

func restoreSingleElimination(serialized string) (*SingleEliminationEngine, error) {
	var state seState
	if err := json.Unmarshal([]byte(serialized), &state); err != nil {
		return nil, fmt.Errorf("failed to decode single elimination state: %w", err)
	}
	e := &SingleEliminationEngine{state: state, byUID: make(map[string]*seNode, len(state.Nodes))}
	for _, node := range state.Nodes {
		e.byUID[node.UID] = node
	}
	return e, nil
}

func (e *SingleEliminationEngine) GetName() string { return "SingleElimination" }

// placeWinner puts teamID into the given slot unless it is already there.
func (e *SingleEliminationEngine) placeWinner(node *seNode, slot int, teamID int) bool {
	if slot == 1 {
		if node.TeamAID != nil && *node.TeamAID == teamID {
			return false
		}
		node.TeamAID = &teamID
		return true
	}
	if node.TeamBID != nil && *node.TeamBID == teamID {
		return false
	}
	node.TeamBID = &teamID
	return true
}

// onlyByeFeeds reports whether the feeder of the given slot is a bye (or
// absent), meaning the slot will never be filled by a played match.
func (e *SingleEliminationEngine) onlyByeFeeds(node *seNode, slot int) bool {
	for _, candidate := range e.state.Nodes {
		if candidate.NextUID != nil && *candidate.NextUID == node.UID && candidate.NextSlot == slot {
			return candidate.IsBye && candidate.WinnerTeamID == nil
		}
	}
	return false
}

func (e *SingleEliminationEngine) RecordResult(matchUID string, outcome Outcome) ([]Pairing, error) {
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

	if node.NextUID == nil {
		return nil, nil
	}
	next := e.byUID[*node.NextUID]
	e.placeWinner(next, node.NextSlot, winner)

	if next.TeamAID != nil && next.TeamBID != nil && next.WinnerTeamID == nil {
		return []Pairing{{
			UID:     next.UID,
			Round:   next.Round,
			TeamAID: *next.TeamAID,
			TeamBID: *next.TeamBID,
		}}, nil
	}
	return nil, nil
}

// CurrentRound is the earliest round that still has an undecided match.
func (e *SingleEliminationEngine) CurrentRound() int {
	for r := 1; r <= e.state.NumRounds; r++ {
		for _, node := range e.state.Nodes {
			if node.Round == r && !node.IsBye && node.WinnerTeamID == nil {
				return r
			}
		}
	}
	return e.state.NumRounds
}

func (e *SingleEliminationEngine) CurrentRoundMatches() []EngineMatch {
	round := e.CurrentRound()
	matches := make([]EngineMatch, 0)
	for _, node := range e.state.Nodes {
		if node.Round != round || node.IsBye {
			continue
		}
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

func (e *SingleEliminationEngine) InitialPairings() []Pairing {
	pairings := make([]Pairing, 0)
	for _, node := range e.state.Nodes {
		if node.IsBye || node.WinnerTeamID != nil {
			continue
		}
		if node.TeamAID != nil && node.TeamBID != nil {
			pairings = append(pairings, Pairing{
				UID:     node.UID,
				Round:   node.Round,
				TeamAID: *node.TeamAID,
				TeamBID: *node.TeamBID,
			})
		}
	}
	return pairings
}

func (e *SingleEliminationEngine) IsComplete() bool {
	for _, node := range e.state.Nodes {
		if node.Round == e.state.NumRounds {
			return node.WinnerTeamID != nil
		}
	}
	return false
}

func (e *SingleEliminationEngine) ExportState() (string, error) {
	data, err := json.Marshal(e.state)
	if err != nil {
		return "", fmt.Errorf("failed to encode single elimination state: %w", err)
	}
	return string(data), nil
}
