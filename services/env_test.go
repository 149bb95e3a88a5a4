package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/brewbracket/tournament-system/live"
	"github.com/brewbracket/tournament-system/models"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	matchRepo      *fakeMatchRepo
	submissionRepo *fakeSubmissionRepo
	disputeRepo    *fakeDisputeRepo
	tournamentRepo *fakeTournamentRepo
	teamRepo       *fakeTeamRepo
	userRepo       *fakeUserRepo
	eventRepo      *fakeEventRepo
	statsRepo      *fakeStatsRepo
	megaRepo       *fakeMegaScoreRepo
	ledgerRepo     *fakeLedgerRepo
	adminLogRepo   *fakeAdminLogRepo
	appliedRepo    *fakeAppliedRepo

	resolution   ResolutionService
	adjudication AdjudicationService
	tournaments  TournamentService
}

func newTestEnv(gracePeriod time.Duration) *testEnv {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := live.NewHub(logger)

	env := &testEnv{
		matchRepo:      newFakeMatchRepo(),
		submissionRepo: newFakeSubmissionRepo(),
		disputeRepo:    newFakeDisputeRepo(),
		tournamentRepo: newFakeTournamentRepo(),
		teamRepo:       newFakeTeamRepo(),
		userRepo:       newFakeUserRepo(),
		eventRepo:      newFakeEventRepo(),
		statsRepo:      newFakeStatsRepo(),
		megaRepo:       newFakeMegaScoreRepo(),
		ledgerRepo:     newFakeLedgerRepo(),
		adminLogRepo:   newFakeAdminLogRepo(),
		appliedRepo:    newFakeAppliedRepo(),
	}

	aggregates := NewAggregateUpdater(env.teamRepo, env.statsRepo, env.megaRepo, env.ledgerRepo, env.appliedRepo, logger)
	env.resolution = NewResolutionService(
		env.matchRepo, env.submissionRepo, env.disputeRepo, env.tournamentRepo,
		env.teamRepo, env.eventRepo, env.userRepo, aggregates, hub, logger, gracePeriod,
	)
	env.adjudication = NewAdjudicationService(
		env.disputeRepo, env.submissionRepo, env.matchRepo, env.tournamentRepo,
		env.userRepo, env.adminLogRepo, env.resolution, hub, logger,
	)
	env.tournaments = NewTournamentService(
		env.tournamentRepo, env.matchRepo, env.teamRepo, env.eventRepo, env.userRepo, logger,
	)
	return env
}

// fixture is a ready-to-report tournament: two rostered teams, an active
// tournament and one scheduled match between them.
type fixture struct {
	organizerID int
	playerA     int
	playerB     int
	adminID     int
	outsiderID  int
	teamA       int
	teamB       int
	eventID     int
	tournament  *models.Tournament
	match       *models.Match
}

func seedFixture(t *testing.T, env *testEnv) *fixture {
	t.Helper()
	ctx := context.Background()

	newUser := func(name string, role models.UserRole) int {
		user := &models.User{FirstName: name, Email: name + "@example.com", Role: role}
		require.NoError(t, env.userRepo.Create(ctx, user))
		return user.ID
	}
	f := &fixture{
		organizerID: newUser("organizer", models.RolePlayer),
		playerA:     newUser("alice", models.RolePlayer),
		playerB:     newUser("bob", models.RolePlayer),
		adminID:     newUser("admin", models.RoleAdmin),
		outsiderID:  newUser("mallory", models.RolePlayer),
	}

	teamA := &models.Team{Name: "Brew Crew", CaptainID: f.playerA}
	require.NoError(t, env.teamRepo.Create(ctx, teamA))
	require.NoError(t, env.teamRepo.AddMember(ctx, teamA.ID, f.playerA))
	teamB := &models.Team{Name: "Cup Snakes", CaptainID: f.playerB}
	require.NoError(t, env.teamRepo.Create(ctx, teamB))
	require.NoError(t, env.teamRepo.AddMember(ctx, teamB.ID, f.playerB))
	f.teamA = teamA.ID
	f.teamB = teamB.ID

	event := &models.Event{Name: "Beer Pong", WinPoints: models.DefaultWinPoints, LossPoints: models.DefaultLossPoints}
	require.NoError(t, env.eventRepo.Create(ctx, event))
	f.eventID = event.ID

	tournament := &models.Tournament{
		Name:        "Friday Night Open",
		EventID:     event.ID,
		OrganizerID: f.organizerID,
		BracketType: models.BracketSingleElimination,
		Status:      models.TournamentStatusActive,
		StartDate:   time.Now(),
	}
	require.NoError(t, env.tournamentRepo.Create(ctx, tournament))
	f.tournament = tournament

	match := &models.Match{
		TournamentID: tournament.ID,
		EventID:      event.ID,
		Round:        1,
		TeamAID:      &f.teamA,
		TeamBID:      &f.teamB,
	}
	require.NoError(t, env.matchRepo.Create(ctx, match))
	f.match = match

	return f
}

// requireMatchInvariant asserts the completeness invariant: complete means
// winner and both scores are present, unless the match was voided.
func requireMatchInvariant(t *testing.T, env *testEnv, matchID int) {
	t.Helper()
	match, err := env.matchRepo.GetByID(context.Background(), matchID)
	require.NoError(t, err)
	if match.IsComplete && match.Note == nil {
		require.NotNil(t, match.WinnerTeamID)
		require.NotNil(t, match.ScoreA)
		require.NotNil(t, match.ScoreB)
	}
	if !match.IsComplete {
		require.Nil(t, match.WinnerTeamID)
	}
}
