package brackets

import (
	"testing"

	"github.com/brewbracket/tournament-system/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingleEliminationFourTeams(t *testing.T) {
	engine, err := NewSingleEliminationEngine([]int{11, 22, 33, 44})
	require.NoError(t, err)

	initial := engine.InitialPairings()
	require.Len(t, initial, 2)
	assert.Equal(t, 1, engine.CurrentRound())
	assert.False(t, engine.IsComplete())

	// First semi decides nothing downstream yet.
	pairings, err := engine.RecordResult("R1M1", Outcome{WinnerTeamID: 11, ScoreA: 10, ScoreB: 4})
	require.NoError(t, err)
	assert.Empty(t, pairings)

	// Second semi completes the final's participants.
	pairings, err = engine.RecordResult("R1M2", Outcome{WinnerTeamID: 44, ScoreA: 6, ScoreB: 10})
	require.NoError(t, err)
	require.Len(t, pairings, 1)
	assert.Equal(t, "R2M1", pairings[0].UID)
	assert.Equal(t, 2, pairings[0].Round)
	assert.Equal(t, 11, pairings[0].TeamAID)
	assert.Equal(t, 44, pairings[0].TeamBID)
	assert.Equal(t, 2, engine.CurrentRound())

	pairings, err = engine.RecordResult("R2M1", Outcome{WinnerTeamID: 44, ScoreA: 8, ScoreB: 10})
	require.NoError(t, err)
	assert.Empty(t, pairings)
	assert.True(t, engine.IsComplete())
}

func TestSingleEliminationByeAdvancesAutomatically(t *testing.T) {
	// Three teams in a four slot bracket: team 33 gets the bye.
	engine, err := NewSingleEliminationEngine([]int{11, 22, 33})
	require.NoError(t, err)

	initial := engine.InitialPairings()
	require.Len(t, initial, 1)
	assert.Equal(t, "R1M1", initial[0].UID)

	// The played semifinal immediately determines the final.
	pairings, err := engine.RecordResult("R1M1", Outcome{WinnerTeamID: 22, ScoreA: 5, ScoreB: 10})
	require.NoError(t, err)
	require.Len(t, pairings, 1)
	assert.Equal(t, "R2M1", pairings[0].UID)
	assert.ElementsMatch(t, []int{22, 33}, []int{pairings[0].TeamAID, pairings[0].TeamBID})
}

func TestSingleEliminationDeepByeChain(t *testing.T) {
	// Five teams in an eight slot bracket: three byes, and the winner of
	// the dead quarter of the draw is produced entirely by byes.
	engine, err := NewSingleEliminationEngine([]int{1, 2, 3, 4, 5})
	require.NoError(t, err)

	initial := engine.InitialPairings()
	uids := make([]string, 0, len(initial))
	for _, p := range initial {
		uids = append(uids, p.UID)
	}
	// Only R1M1 (1v2) and R1M2 (3v4) are playable; 5 advances on byes.
	assert.ElementsMatch(t, []string{"R1M1", "R1M2"}, uids)
	assert.Equal(t, 1, engine.CurrentRound())
	assert.False(t, engine.IsComplete())
}

func TestSingleEliminationRejectsBadResults(t *testing.T) {
	engine, err := NewSingleEliminationEngine([]int{11, 22, 33, 44})
	require.NoError(t, err)

	_, err = engine.RecordResult("R9M9", Outcome{WinnerTeamID: 11})
	assert.ErrorIs(t, err, ErrMatchUIDUnknown)

	_, err = engine.RecordResult("R1M1", Outcome{WinnerTeamID: 33})
	assert.ErrorIs(t, err, ErrWinnerNotInBracket)

	_, err = engine.RecordResult("R1M1", Outcome{WinnerTeamID: 11})
	require.NoError(t, err)
	_, err = engine.RecordResult("R1M1", Outcome{WinnerTeamID: 22})
	assert.ErrorIs(t, err, ErrMatchAlreadyDecided)
}

func TestSingleEliminationStateRoundTrip(t *testing.T) {
	engine, err := NewSingleEliminationEngine([]int{11, 22, 33, 44})
	require.NoError(t, err)
	_, err = engine.RecordResult("R1M1", Outcome{WinnerTeamID: 22, ScoreA: 4, ScoreB: 10})
	require.NoError(t, err)

	serialized, err := engine.ExportState()
	require.NoError(t, err)

	restored, err := NewEngineFromState(models.BracketSingleElimination, serialized)
	require.NoError(t, err)
	assert.Equal(t, 1, restored.CurrentRound())

	// Progression continues seamlessly on the restored engine.
	pairings, err := restored.RecordResult("R1M2", Outcome{WinnerTeamID: 33, ScoreA: 10, ScoreB: 9})
	require.NoError(t, err)
	require.Len(t, pairings, 1)
	assert.Equal(t, 22, pairings[0].TeamAID)
	assert.Equal(t, 33, pairings[0].TeamBID)
}

func TestNewEngineUnknownKind(t *testing.T) {
	_, err := NewEngine(models.BracketType("ladder"), []int{1, 2})
	assert.Error(t, err)

	_, err = NewSingleEliminationEngine([]int{1})
	assert.Error(t, err)
}
