package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/brewbracket/tournament-system/models"
	"github.com/brewbracket/tournament-system/repositories"
)

// StatsService exposes the derived aggregates. All of these views are
// eventually consistent with the match documents; only confirmed matches
// feed them.
type StatsService interface {
	GetPlayerProfile(ctx context.Context, userID int) (*models.PlayerProfile, error)
	ListMegaStandings(ctx context.Context, megaTournamentID int) ([]*models.MegaTournamentScore, error)
	ListPointLedger(ctx context.Context, tournamentID int) ([]*models.PointLedgerEntry, error)
	ListAdminLog(ctx context.Context, limit, offset int) ([]*models.AdminActionLog, error)
}

type statsService struct {
	statsRepo      repositories.StatsRepository
	megaRepo       repositories.MegaScoreRepository
	ledgerRepo     repositories.LedgerRepository
	adminLogRepo   repositories.AdminLogRepository
	tournamentRepo repositories.TournamentRepository
}

func NewStatsService(
	statsRepo repositories.StatsRepository,
	megaRepo repositories.MegaScoreRepository,
	ledgerRepo repositories.LedgerRepository,
	adminLogRepo repositories.AdminLogRepository,
	tournamentRepo repositories.TournamentRepository,
) StatsService {
	return &statsService{
		statsRepo:      statsRepo,
		megaRepo:       megaRepo,
		ledgerRepo:     ledgerRepo,
		adminLogRepo:   adminLogRepo,
		tournamentRepo: tournamentRepo,
	}
}

func (s *statsService) GetPlayerProfile(ctx context.Context, userID int) (*models.PlayerProfile, error) {
	profile, err := s.statsRepo.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			// A player with no confirmed matches has an empty profile, not
			// a missing one.
			return &models.PlayerProfile{UserID: userID}, nil
		}
		return nil, fmt.Errorf("failed to load profile for user %d: %w", userID, err)
	}
	return profile, nil
}

func (s *statsService) ListMegaStandings(ctx context.Context, megaTournamentID int) ([]*models.MegaTournamentScore, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, megaTournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", megaTournamentID, err)
	}
	standings, err := s.megaRepo.ListStandings(ctx, megaTournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list standings for mega-tournament %d: %w", megaTournamentID, err)
	}
	return standings, nil
}

func (s *statsService) ListPointLedger(ctx context.Context, tournamentID int) ([]*models.PointLedgerEntry, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
	}
	entries, err := s.ledgerRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger for tournament %d: %w", tournamentID, err)
	}
	return entries, nil
}

func (s *statsService) ListAdminLog(ctx context.Context, limit, offset int) ([]*models.AdminActionLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	entries, err := s.adminLogRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list admin action log: %w", err)
	}
	return entries, nil
}
