package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/brewbracket/tournament-system/models"
	"github.com/brewbracket/tournament-system/repositories"
	"golang.org/x/sync/errgroup"
)

// AggregateUpdater applies the per-aggregate side effects of a confirmed
// match. Each aggregate claims an idempotency marker keyed by (match,
// aggregate) before writing, so re-running a confirmation, after a crash
// or a duplicate scheduler fire, never double-counts.
type AggregateUpdater struct {
	teamRepo    repositories.TeamRepository
	statsRepo   repositories.StatsRepository
	megaRepo    repositories.MegaScoreRepository
	ledgerRepo  repositories.LedgerRepository
	appliedRepo repositories.AppliedUpdateRepository
	logger      *slog.Logger
}

func NewAggregateUpdater(
	teamRepo repositories.TeamRepository,
	statsRepo repositories.StatsRepository,
	megaRepo repositories.MegaScoreRepository,
	ledgerRepo repositories.LedgerRepository,
	appliedRepo repositories.AppliedUpdateRepository,
	logger *slog.Logger,
) *AggregateUpdater {
	return &AggregateUpdater{
		teamRepo:    teamRepo,
		statsRepo:   statsRepo,
		megaRepo:    megaRepo,
		ledgerRepo:  ledgerRepo,
		appliedRepo: appliedRepo,
		logger:      logger,
	}
}

// ApplyAll runs the three aggregate updates concurrently. Failures are
// logged and swallowed; a failed aggregate leaves its marker unclaimed so
// a later re-confirmation can retry it.
func (a *AggregateUpdater) ApplyAll(ctx context.Context, match *models.Match, tournament *models.Tournament, event *models.Event) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.applyPlayerStats(gctx, match); err != nil {
			a.logger.Error("fan-out: player stats update failed", slog.Int("match_id", match.ID), slog.Any("error", err))
		}
		return nil
	})
	g.Go(func() error {
		if err := a.applyMegaScore(gctx, match, tournament, event); err != nil {
			a.logger.Error("fan-out: mega-tournament score update failed", slog.Int("match_id", match.ID), slog.Any("error", err))
		}
		return nil
	})
	g.Go(func() error {
		if err := a.applyPointLedger(gctx, match, event); err != nil {
			a.logger.Error("fan-out: point ledger update failed", slog.Int("match_id", match.ID), slog.Any("error", err))
		}
		return nil
	})

	g.Wait()
}

func (a *AggregateUpdater) applyPlayerStats(ctx context.Context, match *models.Match) error {
	if match.WinnerTeamID == nil || match.TeamAID == nil || match.TeamBID == nil {
		return nil
	}
	claimed, err := a.appliedRepo.TryMark(ctx, match.ID, models.AggregatePlayerStats)
	if err != nil {
		return fmt.Errorf("failed to claim player stats marker: %w", err)
	}
	if !claimed {
		return nil
	}

	scoreA, scoreB := matchScores(match)
	for _, side := range []struct {
		teamID      int
		cupsFor     int
		cupsAgainst int
	}{
		{*match.TeamAID, scoreA, scoreB},
		{*match.TeamBID, scoreB, scoreA},
	} {
		won := side.teamID == *match.WinnerTeamID
		memberIDs, err := a.teamRepo.ListMemberIDs(ctx, side.teamID)
		if err != nil {
			return fmt.Errorf("failed to list members of team %d: %w", side.teamID, err)
		}
		for _, userID := range memberIDs {
			if err := a.statsRepo.ApplyMatchResult(ctx, userID, won, side.cupsFor, side.cupsAgainst); err != nil {
				return fmt.Errorf("failed to update stats for user %d: %w", userID, err)
			}
		}
	}
	return nil
}

func (a *AggregateUpdater) applyMegaScore(ctx context.Context, match *models.Match, tournament *models.Tournament, event *models.Event) error {
	if tournament.ParentID == nil {
		return nil
	}
	if match.WinnerTeamID == nil || match.TeamAID == nil || match.TeamBID == nil {
		return nil
	}
	claimed, err := a.appliedRepo.TryMark(ctx, match.ID, models.AggregateMegaScore)
	if err != nil {
		return fmt.Errorf("failed to claim mega score marker: %w", err)
	}
	if !claimed {
		return nil
	}

	megaID := *tournament.ParentID
	for _, teamID := range []int{*match.TeamAID, *match.TeamBID} {
		won := teamID == *match.WinnerTeamID
		points := event.LossPoints
		if won {
			points = event.WinPoints
		}
		if err := a.megaRepo.ApplyResult(ctx, megaID, teamID, points, won); err != nil {
			return fmt.Errorf("failed to update mega score for team %d: %w", teamID, err)
		}
	}
	return nil
}

func (a *AggregateUpdater) applyPointLedger(ctx context.Context, match *models.Match, event *models.Event) error {
	if match.WinnerTeamID == nil || match.TeamAID == nil || match.TeamBID == nil {
		return nil
	}
	claimed, err := a.appliedRepo.TryMark(ctx, match.ID, models.AggregatePointLedger)
	if err != nil {
		return fmt.Errorf("failed to claim point ledger marker: %w", err)
	}
	if !claimed {
		return nil
	}

	for _, teamID := range []int{*match.TeamAID, *match.TeamBID} {
		won := teamID == *match.WinnerTeamID
		entry := &models.PointLedgerEntry{
			TournamentID: match.TournamentID,
			MatchID:      match.ID,
			TeamID:       teamID,
			Points:       event.LossPoints,
			Outcome:      models.LedgerLoss,
		}
		if won {
			entry.Points = event.WinPoints
			entry.Outcome = models.LedgerWin
		}
		if err := a.ledgerRepo.Append(ctx, entry); err != nil {
			return fmt.Errorf("failed to append ledger entry for team %d: %w", teamID, err)
		}
	}
	return nil
}

func matchScores(match *models.Match) (int, int) {
	scoreA, scoreB := 0, 0
	if match.ScoreA != nil {
		scoreA = *match.ScoreA
	}
	if match.ScoreB != nil {
		scoreB = *match.ScoreB
	}
	return scoreA, scoreB
}
