package brackets

import (
	"testing"

	"github.com/brewbracket/tournament-system/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundRobinPairsEveryone(t *testing.T) {
	engine, err := NewRoundRobinEngine([]int{1, 2, 3, 4})
	require.NoError(t, err)

	initial := engine.InitialPairings()
	require.Len(t, initial, 6) // C(4,2)

	seen := make(map[[2]int]bool)
	for _, p := range initial {
		seen[[2]int{p.TeamAID, p.TeamBID}] = true
	}
	assert.Len(t, seen, 6)
	assert.Equal(t, 1, engine.CurrentRound())
}

func TestRoundRobinCompletion(t *testing.T) {
	engine, err := NewRoundRobinEngine([]int{1, 2, 3})
	require.NoError(t, err)

	for _, p := range engine.InitialPairings() {
		assert.False(t, engine.IsComplete())
		pairings, err := engine.RecordResult(p.UID, Outcome{WinnerTeamID: p.TeamAID, ScoreA: 10, ScoreB: 3})
		require.NoError(t, err)
		// League pairings are fixed up front; results never add matches.
		assert.Empty(t, pairings)
	}
	assert.True(t, engine.IsComplete())

	_, err = engine.RecordResult("RRM1", Outcome{WinnerTeamID: 1})
	assert.ErrorIs(t, err, ErrMatchAlreadyDecided)
}

func TestRoundRobinStateRoundTrip(t *testing.T) {
	engine, err := NewRoundRobinEngine([]int{7, 8, 9})
	require.NoError(t, err)
	_, err = engine.RecordResult("RRM1", Outcome{WinnerTeamID: 7, ScoreA: 10, ScoreB: 1})
	require.NoError(t, err)

	serialized, err := engine.ExportState()
	require.NoError(t, err)

	restored, err := NewEngineFromState(models.BracketRoundRobin, serialized)
	require.NoError(t, err)
	assert.False(t, restored.IsComplete())

	_, err = restored.RecordResult("RRM1", Outcome{WinnerTeamID: 8})
	assert.ErrorIs(t, err, ErrMatchAlreadyDecided)
}
