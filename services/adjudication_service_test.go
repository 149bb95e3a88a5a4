package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/brewbracket/tournament-system/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// disputedFixture submits a result as team A and disputes it as team B.
func disputedFixture(t *testing.T, env *testEnv, f *fixture) (submissionID, disputeID string) {
	t.Helper()
	ctx := context.Background()

	subID, err := env.resolution.SubmitResult(ctx, f.match.ID, f.playerA, f.teamA, 10, 4)
	require.NoError(t, err)
	require.NoError(t, env.resolution.RequestDispute(ctx, subID, f.playerB, "it was 10-8 at worst"))

	disputes, err := env.disputeRepo.ListByTournament(ctx, f.tournament.ID, nil)
	require.NoError(t, err)
	require.Len(t, disputes, 1)
	return subID, disputes[0].ID
}

func TestResolveDisputeAcceptOriginal(t *testing.T) {
	env := newTestEnv(5 * time.Minute)
	f := seedFixture(t, env)
	ctx := context.Background()
	subID, disputeID := disputedFixture(t, env, f)

	require.NoError(t, env.adjudication.ResolveDispute(ctx, disputeID, f.organizerID, models.ResolutionAcceptOriginal, nil))

	sub, err := env.submissionRepo.GetByID(ctx, subID)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionConfirmed, sub.Status)

	match, err := env.matchRepo.GetByID(ctx, f.match.ID)
	require.NoError(t, err)
	require.True(t, match.IsComplete)
	assert.Equal(t, f.teamA, *match.WinnerTeamID)
	assert.Equal(t, 10, *match.ScoreA)
	assert.Equal(t, 4, *match.ScoreB)
	requireMatchInvariant(t, env, f.match.ID)

	// The normal confirmation fan-out ran.
	entries, err := env.ledgerRepo.ListByTournament(ctx, f.tournament.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	actions, err := env.adminLogRepo.List(ctx, 50, 0)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, models.ActionResolveDispute, actions[0].Action)
	assert.Equal(t, f.organizerID, actions[0].AdminID)
	assert.Equal(t, disputeID, actions[0].TargetID)
}

func TestResolveDisputeOverrideScore(t *testing.T) {
	env := newTestEnv(5 * time.Minute)
	f := seedFixture(t, env)
	ctx := context.Background()
	subID, disputeID := disputedFixture(t, env, f)

	override := &OverridePayload{WinnerTeamID: f.teamB, ScoreA: 8, ScoreB: 10}
	require.NoError(t, env.adjudication.ResolveDispute(ctx, disputeID, f.adminID, models.ResolutionOverrideScore, override))

	match, err := env.matchRepo.GetByID(ctx, f.match.ID)
	require.NoError(t, err)
	require.True(t, match.IsComplete)
	assert.Equal(t, f.teamB, *match.WinnerTeamID)
	assert.Equal(t, 8, *match.ScoreA)
	assert.Equal(t, 10, *match.ScoreB)
	requireMatchInvariant(t, env, f.match.ID)

	sub, err := env.submissionRepo.GetByID(ctx, subID)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionConfirmed, sub.Status)
	assert.Equal(t, f.teamB, sub.WinnerTeamID)

	// The audit row keeps the pre-override proposal.
	actions, err := env.adminLogRepo.List(ctx, 50, 0)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	require.NotNil(t, actions[0].Detail)
	var detail map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(*actions[0].Detail), &detail))
	assert.Contains(t, detail, "original")
	assert.Contains(t, detail, "override")
}

func TestResolveDisputeOverrideScoreRequiresPayload(t *testing.T) {
	env := newTestEnv(5 * time.Minute)
	f := seedFixture(t, env)
	ctx := context.Background()
	_, disputeID := disputedFixture(t, env, f)

	err := env.adjudication.ResolveDispute(ctx, disputeID, f.adminID, models.ResolutionOverrideScore, nil)
	assert.ErrorIs(t, err, ErrOverridePayloadRequired)

	// Invalid payloads are rejected before the dispute is claimed.
	bad := &OverridePayload{WinnerTeamID: f.teamB, ScoreA: 10, ScoreB: 10}
	err = env.adjudication.ResolveDispute(ctx, disputeID, f.adminID, models.ResolutionOverrideScore, bad)
	assert.ErrorIs(t, err, ErrScoreWinnerInconsistent)

	dispute, err := env.disputeRepo.GetByID(ctx, disputeID)
	require.NoError(t, err)
	assert.Equal(t, models.DisputeOpen, dispute.Status)
}

func TestResolveDisputeRematch(t *testing.T) {
	env := newTestEnv(5 * time.Minute)
	f := seedFixture(t, env)
	ctx := context.Background()
	subID, disputeID := disputedFixture(t, env, f)

	require.NoError(t, env.adjudication.ResolveDispute(ctx, disputeID, f.organizerID, models.ResolutionRematch, nil))

	// The original is voided, complete-with-note, never deleted.
	original, err := env.matchRepo.GetByID(ctx, f.match.ID)
	require.NoError(t, err)
	assert.True(t, original.IsComplete)
	require.NotNil(t, original.Note)
	assert.Nil(t, original.WinnerTeamID)

	// Exactly one incomplete clone with the same participants.
	matches, err := env.matchRepo.ListByTournament(ctx, f.tournament.ID, nil, nil)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	var clone *models.Match
	for _, match := range matches {
		if match.ID != f.match.ID {
			clone = match
		}
	}
	require.NotNil(t, clone)
	assert.False(t, clone.IsComplete)
	assert.Equal(t, f.match.Round, clone.Round)
	assert.Equal(t, f.teamA, *clone.TeamAID)
	assert.Equal(t, f.teamB, *clone.TeamBID)
	assert.Empty(t, clone.MediaKeys)

	// The disputed submission stays disputed; that is its terminal state.
	sub, err := env.submissionRepo.GetByID(ctx, subID)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionDisputed, sub.Status)

	// The clone re-enters the normal reporting flow.
	newSubID, err := env.resolution.SubmitResult(ctx, clone.ID, f.playerB, f.teamB, 10, 7)
	require.NoError(t, err)
	require.NoError(t, env.resolution.ConfirmResult(ctx, newSubID))
	requireMatchInvariant(t, env, clone.ID)
}

func TestResolveDisputeExactlyOnce(t *testing.T) {
	env := newTestEnv(5 * time.Minute)
	f := seedFixture(t, env)
	ctx := context.Background()
	_, disputeID := disputedFixture(t, env, f)

	require.NoError(t, env.adjudication.ResolveDispute(ctx, disputeID, f.organizerID, models.ResolutionRematch, nil))
	err := env.adjudication.ResolveDispute(ctx, disputeID, f.organizerID, models.ResolutionRematch, nil)
	assert.ErrorIs(t, err, ErrDisputeAlreadyResolved)

	// No second clone.
	matches, err := env.matchRepo.ListByTournament(ctx, f.tournament.ID, nil, nil)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestResolveDisputeAuthorization(t *testing.T) {
	env := newTestEnv(5 * time.Minute)
	f := seedFixture(t, env)
	ctx := context.Background()
	_, disputeID := disputedFixture(t, env, f)

	err := env.adjudication.ResolveDispute(ctx, disputeID, f.playerA, models.ResolutionAcceptOriginal, nil)
	assert.ErrorIs(t, err, ErrNotTournamentOwner)

	err = env.adjudication.ResolveDispute(ctx, disputeID, f.organizerID, models.DisputeResolution("coin_flip"), nil)
	assert.ErrorIs(t, err, ErrInvalidResolution)

	err = env.adjudication.ResolveDispute(ctx, "dsp_missing", f.organizerID, models.ResolutionAcceptOriginal, nil)
	assert.ErrorIs(t, err, ErrDisputeNotFound)
}

func TestOverrideMatchBypassesPipeline(t *testing.T) {
	env := newTestEnv(5 * time.Minute)
	f := seedFixture(t, env)
	ctx := context.Background()

	payload := OverridePayload{WinnerTeamID: f.teamB, ScoreA: 3, ScoreB: 10}
	require.NoError(t, env.adjudication.OverrideMatch(ctx, f.match.ID, f.adminID, payload, "table ruling"))

	match, err := env.matchRepo.GetByID(ctx, f.match.ID)
	require.NoError(t, err)
	require.True(t, match.IsComplete)
	assert.Equal(t, f.teamB, *match.WinnerTeamID)
	require.NotNil(t, match.AdminOverride)

	var annotation map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(*match.AdminOverride), &annotation))
	assert.Equal(t, "table ruling", annotation["reason"])
	assert.Contains(t, annotation, "previous")

	// Direct overrides run no aggregate fan-out.
	entries, err := env.ledgerRepo.ListByTournament(ctx, f.tournament.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	actions, err := env.adminLogRepo.List(ctx, 50, 0)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, models.ActionOverrideMatch, actions[0].Action)
}

func TestOverrideMatchValidation(t *testing.T) {
	env := newTestEnv(5 * time.Minute)
	f := seedFixture(t, env)
	ctx := context.Background()

	payload := OverridePayload{WinnerTeamID: f.teamB, ScoreA: 3, ScoreB: 10}

	err := env.adjudication.OverrideMatch(ctx, f.match.ID, f.adminID, payload, "")
	assert.ErrorIs(t, err, ErrReasonRequired)

	err = env.adjudication.OverrideMatch(ctx, f.match.ID, f.outsiderID, payload, "because")
	assert.ErrorIs(t, err, ErrNotTournamentOwner)

	err = env.adjudication.OverrideMatch(ctx, f.match.ID, f.adminID, OverridePayload{WinnerTeamID: 9999, ScoreA: 10, ScoreB: 2}, "bad winner")
	assert.ErrorIs(t, err, ErrWinnerNotInMatch)
}
