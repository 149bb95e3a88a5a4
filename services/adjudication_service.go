package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/brewbracket/tournament-system/live"
	"github.com/brewbracket/tournament-system/models"
	"github.com/brewbracket/tournament-system/repositories"
)

// OverridePayload carries the corrected result for an override_score
// resolution or a direct admin override.
type OverridePayload struct {
	WinnerTeamID int `json:"winner_team_id"`
	ScoreA       int `json:"score_a"`
	ScoreB       int `json:"score_b"`
}

// AdjudicationService settles disputes and handles direct admin
// intervention on match results. Every action lands in the admin audit
// log.
type AdjudicationService interface {
	ResolveDispute(ctx context.Context, disputeID string, adminID int, resolution models.DisputeResolution, override *OverridePayload) error
	// OverrideMatch forces a result directly, bypassing the submission
	// pipeline. It deliberately runs no aggregate fan-out; the override
	// annotation on the match preserves the prior values.
	OverrideMatch(ctx context.Context, matchID, adminID int, payload OverridePayload, reason string) error
	ListDisputes(ctx context.Context, tournamentID int, status *models.DisputeStatus) ([]*models.Dispute, error)
}

type adjudicationService struct {
	disputeRepo    repositories.DisputeRepository
	submissionRepo repositories.SubmissionRepository
	matchRepo      repositories.MatchRepository
	tournamentRepo repositories.TournamentRepository
	userRepo       repositories.UserRepository
	adminLogRepo   repositories.AdminLogRepository
	resolution     ResolutionService
	hub            *live.Hub
	logger         *slog.Logger
}

func NewAdjudicationService(
	disputeRepo repositories.DisputeRepository,
	submissionRepo repositories.SubmissionRepository,
	matchRepo repositories.MatchRepository,
	tournamentRepo repositories.TournamentRepository,
	userRepo repositories.UserRepository,
	adminLogRepo repositories.AdminLogRepository,
	resolution ResolutionService,
	hub *live.Hub,
	logger *slog.Logger,
) AdjudicationService {
	return &adjudicationService{
		disputeRepo:    disputeRepo,
		submissionRepo: submissionRepo,
		matchRepo:      matchRepo,
		tournamentRepo: tournamentRepo,
		userRepo:       userRepo,
		adminLogRepo:   adminLogRepo,
		resolution:     resolution,
		hub:            hub,
		logger:         logger,
	}
}

func (s *adjudicationService) ResolveDispute(ctx context.Context, disputeID string, adminID int, resolution models.DisputeResolution, override *OverridePayload) error {
	if !resolution.Valid() {
		return ErrInvalidResolution
	}

	dispute, err := s.disputeRepo.GetByID(ctx, disputeID)
	if err != nil {
		if errors.Is(err, repositories.ErrDisputeNotFound) {
			return ErrDisputeNotFound
		}
		return fmt.Errorf("failed to load dispute %s: %w", disputeID, err)
	}
	if dispute.Status == models.DisputeResolved {
		return ErrDisputeAlreadyResolved
	}

	if err := s.authorize(ctx, dispute.TournamentID, adminID); err != nil {
		return err
	}

	match, err := s.matchRepo.GetByID(ctx, dispute.MatchID)
	if err != nil {
		return fmt.Errorf("failed to load match %d: %w", dispute.MatchID, err)
	}
	if resolution == models.ResolutionOverrideScore {
		if override == nil {
			return ErrOverridePayloadRequired
		}
		if err := validateProposedResult(match, override.WinnerTeamID, override.ScoreA, override.ScoreB); err != nil {
			return err
		}
	}

	// Claim the dispute before executing the branch so a concurrent
	// resolver cannot run it twice (two rematch clones would be worse
	// than a lost log line).
	now := time.Now().UTC()
	if err := s.disputeRepo.MarkResolved(ctx, disputeID, resolution, adminID, now); err != nil {
		if errors.Is(err, repositories.ErrDisputeAlreadyResolved) {
			return ErrDisputeAlreadyResolved
		}
		return fmt.Errorf("failed to mark dispute %s resolved: %w", disputeID, err)
	}

	var detail map[string]interface{}
	switch resolution {
	case models.ResolutionAcceptOriginal:
		err = s.resolution.ConfirmDisputedSubmission(ctx, dispute.SubmissionID)
	case models.ResolutionOverrideScore:
		detail = map[string]interface{}{"override": override, "original": submissionSnapshot(ctx, s.submissionRepo, dispute.SubmissionID)}
		err = s.applyScoreOverride(ctx, dispute, override)
	case models.ResolutionRematch:
		var rematchID int
		rematchID, err = s.scheduleRematch(ctx, dispute, match)
		if err == nil {
			detail = map[string]interface{}{"rematch_match_id": rematchID}
		}
	default:
		return ErrInvalidResolution
	}
	if err != nil {
		return fmt.Errorf("failed to execute %s resolution for dispute %s: %w", resolution, disputeID, err)
	}

	s.audit(ctx, adminID, models.ActionResolveDispute, "dispute", disputeID, dispute.Reason, detail)

	s.logger.Info("dispute resolved",
		slog.String("dispute_id", disputeID),
		slog.String("resolution", string(resolution)),
		slog.Int("resolved_by", adminID),
	)
	s.hub.BroadcastToRoom(tournamentRoom(dispute.TournamentID), live.EventDisputeResolved, map[string]interface{}{
		"dispute_id": disputeID,
		"resolution": resolution,
	})
	return nil
}

// applyScoreOverride rewrites the disputed submission's proposed result
// and confirms it, so the corrected values flow through the normal
// confirmation path and its fan-out.
func (s *adjudicationService) applyScoreOverride(ctx context.Context, dispute *models.Dispute, override *OverridePayload) error {
	if err := s.submissionRepo.UpdateProposedResult(ctx, dispute.SubmissionID, override.WinnerTeamID, override.ScoreA, override.ScoreB); err != nil {
		return fmt.Errorf("failed to rewrite submission %s: %w", dispute.SubmissionID, err)
	}
	return s.resolution.ConfirmDisputedSubmission(ctx, dispute.SubmissionID)
}

// scheduleRematch voids the contested match and clones it with the same
// participants. The disputed submission stays disputed, which is its
// terminal state; the voided match keeps its note as the paper trail.
func (s *adjudicationService) scheduleRematch(ctx context.Context, dispute *models.Dispute, match *models.Match) (int, error) {
	note := fmt.Sprintf("voided by dispute %s, rematch ordered", dispute.ID)
	if err := s.matchRepo.Void(ctx, match.ID, note); err != nil {
		return 0, fmt.Errorf("failed to void match %d: %w", match.ID, err)
	}

	rematch := &models.Match{
		TournamentID: match.TournamentID,
		EventID:      match.EventID,
		Round:        match.Round,
		TeamAID:      match.TeamAID,
		TeamBID:      match.TeamBID,
		BracketUID:   match.BracketUID,
	}
	if err := s.matchRepo.Create(ctx, rematch); err != nil {
		return 0, fmt.Errorf("failed to create rematch for match %d: %w", match.ID, err)
	}

	s.hub.BroadcastToRoom(tournamentRoom(match.TournamentID), live.EventRematchScheduled, rematch)
	return rematch.ID, nil
}

func (s *adjudicationService) OverrideMatch(ctx context.Context, matchID, adminID int, payload OverridePayload, reason string) error {
	if reason == "" {
		return ErrReasonRequired
	}

	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return ErrMatchNotFound
		}
		return fmt.Errorf("failed to load match %d: %w", matchID, err)
	}
	if err := s.authorize(ctx, match.TournamentID, adminID); err != nil {
		return err
	}
	if err := validateProposedResult(match, payload.WinnerTeamID, payload.ScoreA, payload.ScoreB); err != nil {
		return err
	}

	annotation, err := json.Marshal(map[string]interface{}{
		"overridden_by": adminID,
		"reason":        reason,
		"previous": map[string]interface{}{
			"winner_team_id": match.WinnerTeamID,
			"score_a":        match.ScoreA,
			"score_b":        match.ScoreB,
			"is_complete":    match.IsComplete,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to build override annotation: %w", err)
	}

	now := time.Now().UTC()
	if err := s.matchRepo.SetAdminOverride(ctx, matchID, payload.WinnerTeamID, payload.ScoreA, payload.ScoreB, string(annotation), now); err != nil {
		return fmt.Errorf("failed to override match %d: %w", matchID, err)
	}

	s.audit(ctx, adminID, models.ActionOverrideMatch, "match", fmt.Sprintf("%d", matchID), reason, map[string]interface{}{
		"override": payload,
	})

	s.logger.Info("match result overridden by admin",
		slog.Int("match_id", matchID),
		slog.Int("admin_id", adminID),
		slog.Int("winner_team_id", payload.WinnerTeamID),
	)
	s.hub.BroadcastToRoom(tournamentRoom(match.TournamentID), live.EventMatchConfirmed, map[string]interface{}{
		"match_id":       matchID,
		"winner_team_id": payload.WinnerTeamID,
		"admin_override": true,
	})
	return nil
}

func (s *adjudicationService) ListDisputes(ctx context.Context, tournamentID int, status *models.DisputeStatus) ([]*models.Dispute, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
	}
	disputes, err := s.disputeRepo.ListByTournament(ctx, tournamentID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list disputes for tournament %d: %w", tournamentID, err)
	}
	return disputes, nil
}

// authorize permits the tournament organizer and site admins.
func (s *adjudicationService) authorize(ctx context.Context, tournamentID, userID int) error {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
	}
	if tournament.OrganizerID == userID {
		return nil
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrNotTournamentOwner
		}
		return fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	if user.Role != models.RoleAdmin {
		return ErrNotTournamentOwner
	}
	return nil
}

// audit appends to the admin action log. Audit failures are logged, not
// propagated; the action itself already happened.
func (s *adjudicationService) audit(ctx context.Context, adminID int, action models.AdminAction, targetType, targetID, reason string, detail map[string]interface{}) {
	entry := &models.AdminActionLog{
		AdminID:    adminID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Reason:     reason,
	}
	if detail != nil {
		raw, err := json.Marshal(detail)
		if err == nil {
			d := string(raw)
			entry.Detail = &d
		}
	}
	if err := s.adminLogRepo.Append(ctx, entry); err != nil {
		s.logger.Error("failed to append admin action log",
			slog.String("action", string(action)),
			slog.String("target_id", targetID),
			slog.Any("error", err),
		)
	}
}

func submissionSnapshot(ctx context.Context, repo repositories.SubmissionRepository, submissionID string) map[string]interface{} {
	sub, err := repo.GetByID(ctx, submissionID)
	if err != nil {
		return nil
	}
	return map[string]interface{}{
		"winner_team_id": sub.WinnerTeamID,
		"score_a":        sub.ScoreA,
		"score_b":        sub.ScoreB,
	}
}
