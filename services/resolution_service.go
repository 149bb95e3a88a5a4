package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/brewbracket/tournament-system/brackets"
	"github.com/brewbracket/tournament-system/live"
	"github.com/brewbracket/tournament-system/models"
	"github.com/brewbracket/tournament-system/repositories"
	"github.com/google/uuid"
)

// DefaultConfirmGracePeriod is how long a pending submission waits before
// the scheduler confirms it automatically.
const DefaultConfirmGracePeriod = 5 * time.Minute

const autoConfirmBatchSize = 100

// ResolutionService is the match result confirmation pipeline: a reported
// outcome is provisionally accepted, auto-confirmed after the grace period
// unless contested, and on confirmation fanned out to the bracket engine,
// player stats, mega-tournament scores and the point ledger.
type ResolutionService interface {
	SubmitResult(ctx context.Context, matchID, reporterID, winnerTeamID, scoreA, scoreB int) (string, error)
	// ConfirmResult is idempotent: it no-ops unless it wins the
	// pending→confirmed compare-and-swap. Safe to call from a human, the
	// auto-confirm scheduler and dispute adjudication concurrently.
	ConfirmResult(ctx context.Context, submissionID string) error
	RequestDispute(ctx context.Context, submissionID string, disputerID int, reason string) error
	// ConfirmDisputedSubmission settles a disputed submission as confirmed
	// and runs the same fan-out as a normal confirmation. Only dispute
	// adjudication calls this.
	ConfirmDisputedSubmission(ctx context.Context, submissionID string) error
	// RunDueAutoConfirms confirms every pending submission whose grace
	// period has elapsed. At-least-once: the due time is persisted on the
	// submission row, so restarts never drop a confirmation.
	RunDueAutoConfirms(ctx context.Context) error
}

type resolutionService struct {
	matchRepo      repositories.MatchRepository
	submissionRepo repositories.SubmissionRepository
	disputeRepo    repositories.DisputeRepository
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	eventRepo      repositories.EventRepository
	userRepo       repositories.UserRepository
	aggregates     *AggregateUpdater
	hub            *live.Hub
	logger         *slog.Logger
	gracePeriod    time.Duration
}

func NewResolutionService(
	matchRepo repositories.MatchRepository,
	submissionRepo repositories.SubmissionRepository,
	disputeRepo repositories.DisputeRepository,
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	eventRepo repositories.EventRepository,
	userRepo repositories.UserRepository,
	aggregates *AggregateUpdater,
	hub *live.Hub,
	logger *slog.Logger,
	gracePeriod time.Duration,
) ResolutionService {
	if gracePeriod <= 0 {
		gracePeriod = DefaultConfirmGracePeriod
	}
	return &resolutionService{
		matchRepo:      matchRepo,
		submissionRepo: submissionRepo,
		disputeRepo:    disputeRepo,
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		eventRepo:      eventRepo,
		userRepo:       userRepo,
		aggregates:     aggregates,
		hub:            hub,
		logger:         logger,
		gracePeriod:    gracePeriod,
	}
}

func (s *resolutionService) SubmitResult(ctx context.Context, matchID, reporterID, winnerTeamID, scoreA, scoreB int) (string, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return "", ErrMatchNotFound
		}
		return "", fmt.Errorf("failed to load match %d: %w", matchID, err)
	}
	if match.IsComplete {
		return "", ErrMatchAlreadyComplete
	}
	if err := validateProposedResult(match, winnerTeamID, scoreA, scoreB); err != nil {
		return "", err
	}

	allowed, err := s.canReport(ctx, match, reporterID)
	if err != nil {
		return "", err
	}
	if !allowed {
		return "", ErrNotMatchParticipant
	}

	sub := &models.ScoreSubmission{
		ID:            "sub_" + uuid.NewString(),
		MatchID:       match.ID,
		TournamentID:  match.TournamentID,
		ReporterID:    reporterID,
		WinnerTeamID:  winnerTeamID,
		ScoreA:        scoreA,
		ScoreB:        scoreB,
		AutoConfirmAt: time.Now().UTC().Add(s.gracePeriod),
	}
	if err := s.submissionRepo.Create(ctx, sub); err != nil {
		if errors.Is(err, repositories.ErrSubmissionPendingExists) {
			return "", ErrPendingSubmissionExists
		}
		return "", fmt.Errorf("failed to create score submission for match %d: %w", matchID, err)
	}

	s.logger.Info("score submission created",
		slog.String("submission_id", sub.ID),
		slog.Int("match_id", match.ID),
		slog.Int("reporter_id", reporterID),
		slog.Time("auto_confirm_at", sub.AutoConfirmAt),
	)
	s.hub.BroadcastToRoom(tournamentRoom(match.TournamentID), live.EventResultSubmitted, sub)

	return sub.ID, nil
}

func (s *resolutionService) ConfirmResult(ctx context.Context, submissionID string) error {
	return s.confirmSubmission(ctx, submissionID, models.SubmissionPending)
}

func (s *resolutionService) ConfirmDisputedSubmission(ctx context.Context, submissionID string) error {
	return s.confirmSubmission(ctx, submissionID, models.SubmissionDisputed)
}

// confirmSubmission settles a submission from the given status. The
// compare-and-swap on the submission row is the arbitration point: losing
// it (a human beat the timer, or a dispute beat them both) is a silent
// no-op and the match is never touched by the loser.
func (s *resolutionService) confirmSubmission(ctx context.Context, submissionID string, from models.SubmissionStatus) error {
	sub, err := s.submissionRepo.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, repositories.ErrSubmissionNotFound) {
			return ErrSubmissionNotFound
		}
		return fmt.Errorf("failed to load submission %s: %w", submissionID, err)
	}
	if sub.Status == models.SubmissionConfirmed {
		return nil
	}

	now := time.Now().UTC()
	if err := s.submissionRepo.MarkConfirmed(ctx, submissionID, from, now); err != nil {
		if errors.Is(err, repositories.ErrSubmissionNotInStatus) {
			// Lost the race; whoever won is responsible for the rest.
			return nil
		}
		return fmt.Errorf("failed to confirm submission %s: %w", submissionID, err)
	}

	match, err := s.matchRepo.GetByID(ctx, sub.MatchID)
	if err != nil {
		return fmt.Errorf("submission %s confirmed but match %d could not be loaded: %w", submissionID, sub.MatchID, err)
	}
	if match.IsComplete {
		// An admin override landed first; the match outcome stands.
		s.logger.Warn("confirmed submission targets an already-complete match",
			slog.String("submission_id", submissionID),
			slog.Int("match_id", match.ID),
		)
		return nil
	}
	if err := s.matchRepo.SetResult(ctx, match.ID, sub.WinnerTeamID, sub.ScoreA, sub.ScoreB, now); err != nil {
		// The submission row is already confirmed; surface the failure
		// loudly, the match is the authoritative document.
		return fmt.Errorf("failed to record result on match %d for submission %s: %w", match.ID, submissionID, err)
	}

	winnerID := sub.WinnerTeamID
	match.WinnerTeamID = &winnerID
	match.ScoreA = &sub.ScoreA
	match.ScoreB = &sub.ScoreB
	match.IsComplete = true
	match.EndTime = &now

	s.logger.Info("match result confirmed",
		slog.String("submission_id", submissionID),
		slog.Int("match_id", match.ID),
		slog.Int("winner_team_id", sub.WinnerTeamID),
	)

	s.fanOut(ctx, match)
	return nil
}

// fanOut runs the post-confirmation aggregate updates. Every step is an
// independent document write with no atomicity across them; failures are
// logged and swallowed so a stale aggregate can never block or roll back
// an already-confirmed match.
func (s *resolutionService) fanOut(ctx context.Context, match *models.Match) {
	tournament, err := s.tournamentRepo.GetByID(ctx, match.TournamentID)
	if err != nil {
		s.logger.Error("fan-out: failed to load tournament, skipping aggregate updates",
			slog.Int("match_id", match.ID),
			slog.Int("tournament_id", match.TournamentID),
			slog.Any("error", err),
		)
		return
	}

	event, err := s.eventRepo.GetByID(ctx, match.EventID)
	if err != nil {
		s.logger.Error("fan-out: failed to load event, using default point values",
			slog.Int("match_id", match.ID),
			slog.Int("event_id", match.EventID),
			slog.Any("error", err),
		)
		event = &models.Event{ID: match.EventID, WinPoints: models.DefaultWinPoints, LossPoints: models.DefaultLossPoints}
	}

	if err := s.applyBracketProgression(ctx, match, tournament); err != nil {
		s.logger.Error("fan-out: bracket progression failed",
			slog.Int("match_id", match.ID),
			slog.Int("tournament_id", tournament.ID),
			slog.Any("error", err),
		)
	}

	s.aggregates.ApplyAll(ctx, match, tournament, event)

	s.hub.BroadcastToRoom(tournamentRoom(match.TournamentID), live.EventMatchConfirmed, match)
}

// applyBracketProgression records the outcome against the tournament's
// stored engine state, persists the re-serialized state, schedules any
// newly determined matches and completes the tournament when the engine
// says so.
func (s *resolutionService) applyBracketProgression(ctx context.Context, match *models.Match, tournament *models.Tournament) error {
	if tournament.BracketState == nil || match.BracketUID == nil || match.WinnerTeamID == nil {
		return nil
	}

	engine, err := brackets.NewEngineFromState(tournament.BracketType, *tournament.BracketState)
	if err != nil {
		return fmt.Errorf("failed to restore bracket engine for tournament %d: %w", tournament.ID, err)
	}

	outcome := brackets.Outcome{WinnerTeamID: *match.WinnerTeamID}
	if match.ScoreA != nil {
		outcome.ScoreA = *match.ScoreA
	}
	if match.ScoreB != nil {
		outcome.ScoreB = *match.ScoreB
	}

	pairings, err := engine.RecordResult(*match.BracketUID, outcome)
	if err != nil {
		return fmt.Errorf("bracket engine rejected result for match %d (uid %s): %w", match.ID, *match.BracketUID, err)
	}

	for _, pairing := range pairings {
		uid := pairing.UID
		teamA := pairing.TeamAID
		teamB := pairing.TeamBID
		next := &models.Match{
			TournamentID: tournament.ID,
			EventID:      match.EventID,
			Round:        pairing.Round,
			TeamAID:      &teamA,
			TeamBID:      &teamB,
			BracketUID:   &uid,
		}
		if err := s.matchRepo.Create(ctx, next); err != nil {
			s.logger.Error("failed to schedule next round match",
				slog.Int("tournament_id", tournament.ID),
				slog.String("bracket_uid", uid),
				slog.Any("error", err),
			)
			continue
		}
		s.logger.Info("next round match scheduled",
			slog.Int("tournament_id", tournament.ID),
			slog.Int("match_id", next.ID),
			slog.Int("round", next.Round),
		)
	}

	state, err := engine.ExportState()
	if err != nil {
		return fmt.Errorf("failed to serialize bracket state for tournament %d: %w", tournament.ID, err)
	}
	if err := s.tournamentRepo.UpdateBracketState(ctx, tournament.ID, state, engine.CurrentRound()); err != nil {
		return fmt.Errorf("failed to persist bracket state for tournament %d: %w", tournament.ID, err)
	}

	if engine.IsComplete() && tournament.Status != models.TournamentStatusCompleted {
		if err := s.tournamentRepo.UpdateStatus(ctx, tournament.ID, models.TournamentStatusCompleted); err != nil {
			return fmt.Errorf("failed to complete tournament %d: %w", tournament.ID, err)
		}
		s.hub.BroadcastToRoom(tournamentRoom(tournament.ID), live.EventTournamentCompleted, tournament.ID)
	}
	return nil
}

func (s *resolutionService) RequestDispute(ctx context.Context, submissionID string, disputerID int, reason string) error {
	if reason == "" {
		return ErrReasonRequired
	}

	sub, err := s.submissionRepo.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, repositories.ErrSubmissionNotFound) {
			return ErrSubmissionNotFound
		}
		return fmt.Errorf("failed to load submission %s: %w", submissionID, err)
	}
	if sub.Status != models.SubmissionPending {
		return ErrSubmissionAlreadySettled
	}

	match, err := s.matchRepo.GetByID(ctx, sub.MatchID)
	if err != nil {
		return fmt.Errorf("failed to load match %d: %w", sub.MatchID, err)
	}
	opposingTeamID := match.OpposingTeam(sub.WinnerTeamID)
	if opposingTeamID == nil {
		return ErrNotOpposingTeam
	}
	isOpponent, err := s.teamRepo.IsMember(ctx, *opposingTeamID, disputerID)
	if err != nil {
		return fmt.Errorf("failed to check team membership: %w", err)
	}
	if !isOpponent {
		return ErrNotOpposingTeam
	}

	now := time.Now().UTC()
	if err := s.submissionRepo.MarkDisputed(ctx, submissionID, disputerID, now); err != nil {
		if errors.Is(err, repositories.ErrSubmissionNotInStatus) {
			return ErrSubmissionAlreadySettled
		}
		return fmt.Errorf("failed to mark submission %s disputed: %w", submissionID, err)
	}

	dispute := &models.Dispute{
		ID:           "dsp_" + uuid.NewString(),
		SubmissionID: sub.ID,
		MatchID:      sub.MatchID,
		TournamentID: sub.TournamentID,
		DisputedBy:   disputerID,
		Reason:       reason,
	}
	if err := s.disputeRepo.Create(ctx, dispute); err != nil {
		return fmt.Errorf("failed to create dispute for submission %s: %w", submissionID, err)
	}

	// The auto-confirm job is not cancelled: when it fires it loses the
	// status compare-and-swap and becomes a no-op.
	s.logger.Info("submission disputed",
		slog.String("submission_id", submissionID),
		slog.String("dispute_id", dispute.ID),
		slog.Int("disputed_by", disputerID),
	)
	s.hub.BroadcastToRoom(tournamentRoom(sub.TournamentID), live.EventResultDisputed, dispute)

	return nil
}

func (s *resolutionService) RunDueAutoConfirms(ctx context.Context) error {
	due, err := s.submissionRepo.ListDueAutoConfirm(ctx, time.Now().UTC(), autoConfirmBatchSize)
	if err != nil {
		return fmt.Errorf("failed to list due auto-confirms: %w", err)
	}

	for _, sub := range due {
		if err := s.ConfirmResult(ctx, sub.ID); err != nil {
			s.logger.Error("auto-confirm failed",
				slog.String("submission_id", sub.ID),
				slog.Int("match_id", sub.MatchID),
				slog.Any("error", err),
			)
		}
	}
	return nil
}

// canReport: match participants and the tournament owner may report; site
// admins may as well.
func (s *resolutionService) canReport(ctx context.Context, match *models.Match, reporterID int) (bool, error) {
	for _, teamID := range []*int{match.TeamAID, match.TeamBID} {
		if teamID == nil {
			continue
		}
		isMember, err := s.teamRepo.IsMember(ctx, *teamID, reporterID)
		if err != nil {
			return false, fmt.Errorf("failed to check team membership: %w", err)
		}
		if isMember {
			return true, nil
		}
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, match.TournamentID)
	if err != nil {
		return false, fmt.Errorf("failed to load tournament %d: %w", match.TournamentID, err)
	}
	if tournament.OrganizerID == reporterID {
		return true, nil
	}

	user, err := s.userRepo.GetByID(ctx, reporterID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load user %d: %w", reporterID, err)
	}
	return user.Role == models.RoleAdmin, nil
}

// validateProposedResult applies the strict policy uniformly: the winner
// must be one of the match teams and hold the strictly greater score.
func validateProposedResult(match *models.Match, winnerTeamID, scoreA, scoreB int) error {
	if match.TeamAID == nil || match.TeamBID == nil {
		return ErrMatchTeamsUnresolved
	}
	if !match.HasTeam(winnerTeamID) {
		return ErrWinnerNotInMatch
	}
	if scoreA < 0 || scoreB < 0 {
		return ErrScoreNegative
	}
	winnerScore, loserScore := scoreA, scoreB
	if *match.TeamBID == winnerTeamID {
		winnerScore, loserScore = scoreB, scoreA
	}
	if winnerScore <= loserScore {
		return ErrScoreWinnerInconsistent
	}
	return nil
}

func tournamentRoom(tournamentID int) string {
	return fmt.Sprintf("tournament_%d", tournamentID)
}
