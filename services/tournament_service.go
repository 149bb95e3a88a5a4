package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/brewbracket/tournament-system/brackets"
	"github.com/brewbracket/tournament-system/models"
	"github.com/brewbracket/tournament-system/repositories"
)

type TournamentService interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, limit, offset int) ([]*models.Tournament, error)
	ListSubTournaments(ctx context.Context, parentID int) ([]*models.Tournament, error)
	RegisterTeam(ctx context.Context, tournamentID, teamID, callerID int) error
	// Start generates the bracket from the registered teams and schedules
	// the opening round's matches. Owner or admin only; one-shot.
	Start(ctx context.Context, tournamentID, callerID int) error
	ListMatches(ctx context.Context, tournamentID int, round *int, complete *bool) ([]*models.Match, error)
}

type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
	matchRepo      repositories.MatchRepository
	teamRepo       repositories.TeamRepository
	eventRepo      repositories.EventRepository
	userRepo       repositories.UserRepository
	logger         *slog.Logger
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	teamRepo repositories.TeamRepository,
	eventRepo repositories.EventRepository,
	userRepo repositories.UserRepository,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		tournamentRepo: tournamentRepo,
		matchRepo:      matchRepo,
		teamRepo:       teamRepo,
		eventRepo:      eventRepo,
		userRepo:       userRepo,
		logger:         logger,
	}
}

func (s *tournamentService) Create(ctx context.Context, tournament *models.Tournament) error {
	tournament.Name = strings.TrimSpace(tournament.Name)
	if tournament.Name == "" {
		return fmt.Errorf("%w: tournament name is required", ErrValidationFailed)
	}
	if tournament.BracketType != models.BracketSingleElimination && tournament.BracketType != models.BracketRoundRobin {
		return fmt.Errorf("%w: unsupported bracket type '%s'", ErrValidationFailed, tournament.BracketType)
	}
	if _, err := s.eventRepo.GetByID(ctx, tournament.EventID); err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return ErrEventNotFound
		}
		return fmt.Errorf("failed to verify event %d: %w", tournament.EventID, err)
	}
	if tournament.ParentID != nil {
		if _, err := s.tournamentRepo.GetByID(ctx, *tournament.ParentID); err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return fmt.Errorf("%w: parent tournament %d does not exist", ErrValidationFailed, *tournament.ParentID)
			}
			return fmt.Errorf("failed to verify parent tournament: %w", err)
		}
	}

	tournament.Status = models.TournamentStatusRegistration
	tournament.CurrentRound = 0

	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentNameConflict) {
			return ErrTournamentNameConflict
		}
		return fmt.Errorf("failed to create tournament: %w", err)
	}

	s.logger.Info("tournament created",
		slog.Int("tournament_id", tournament.ID),
		slog.String("name", tournament.Name),
		slog.String("bracket_type", string(tournament.BracketType)),
	)
	return nil
}

func (s *tournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", id, err)
	}
	return tournament, nil
}

func (s *tournamentService) List(ctx context.Context, limit, offset int) ([]*models.Tournament, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	tournaments, err := s.tournamentRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	return tournaments, nil
}

func (s *tournamentService) ListSubTournaments(ctx context.Context, parentID int) ([]*models.Tournament, error) {
	if _, err := s.GetByID(ctx, parentID); err != nil {
		return nil, err
	}
	tournaments, err := s.tournamentRepo.ListByParent(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sub-tournaments of %d: %w", parentID, err)
	}
	return tournaments, nil
}

func (s *tournamentService) RegisterTeam(ctx context.Context, tournamentID, teamID, callerID int) error {
	tournament, err := s.GetByID(ctx, tournamentID)
	if err != nil {
		return err
	}
	if tournament.Status != models.TournamentStatusRegistration {
		return ErrTournamentAlreadyStarted
	}

	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to load team %d: %w", teamID, err)
	}
	if team.CaptainID != callerID && tournament.OrganizerID != callerID {
		return ErrForbiddenOperation
	}

	if err := s.tournamentRepo.RegisterTeam(ctx, tournamentID, teamID); err != nil {
		return fmt.Errorf("failed to register team %d for tournament %d: %w", teamID, tournamentID, err)
	}
	s.logger.Info("team registered", slog.Int("tournament_id", tournamentID), slog.Int("team_id", teamID))
	return nil
}

func (s *tournamentService) Start(ctx context.Context, tournamentID, callerID int) error {
	tournament, err := s.GetByID(ctx, tournamentID)
	if err != nil {
		return err
	}
	if err := s.authorizeOrganizer(ctx, tournament, callerID); err != nil {
		return err
	}
	if tournament.Status != models.TournamentStatusRegistration {
		return ErrTournamentAlreadyStarted
	}

	teamIDs, err := s.tournamentRepo.ListTeamIDs(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to list registered teams for tournament %d: %w", tournamentID, err)
	}
	if len(teamIDs) < 2 {
		return ErrNotEnoughTeams
	}

	engine, err := brackets.NewEngine(tournament.BracketType, teamIDs)
	if err != nil {
		return fmt.Errorf("failed to build bracket for tournament %d: %w", tournamentID, err)
	}

	for _, pairing := range engine.InitialPairings() {
		uid := pairing.UID
		teamA := pairing.TeamAID
		teamB := pairing.TeamBID
		match := &models.Match{
			TournamentID: tournamentID,
			EventID:      tournament.EventID,
			Round:        pairing.Round,
			TeamAID:      &teamA,
			TeamBID:      &teamB,
			BracketUID:   &uid,
		}
		if err := s.matchRepo.Create(ctx, match); err != nil {
			return fmt.Errorf("failed to schedule opening match %s: %w", uid, err)
		}
	}

	state, err := engine.ExportState()
	if err != nil {
		return fmt.Errorf("failed to serialize bracket state for tournament %d: %w", tournamentID, err)
	}
	if err := s.tournamentRepo.UpdateBracketState(ctx, tournamentID, state, engine.CurrentRound()); err != nil {
		return fmt.Errorf("failed to persist bracket state for tournament %d: %w", tournamentID, err)
	}
	if err := s.tournamentRepo.UpdateStatus(ctx, tournamentID, models.TournamentStatusActive); err != nil {
		return fmt.Errorf("failed to activate tournament %d: %w", tournamentID, err)
	}

	s.logger.Info("tournament started",
		slog.Int("tournament_id", tournamentID),
		slog.Int("teams", len(teamIDs)),
		slog.String("bracket", engine.GetName()),
	)
	return nil
}

func (s *tournamentService) ListMatches(ctx context.Context, tournamentID int, round *int, complete *bool) ([]*models.Match, error) {
	if _, err := s.GetByID(ctx, tournamentID); err != nil {
		return nil, err
	}
	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID, round, complete)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for tournament %d: %w", tournamentID, err)
	}
	return matches, nil
}

func (s *tournamentService) authorizeOrganizer(ctx context.Context, tournament *models.Tournament, callerID int) error {
	if tournament.OrganizerID == callerID {
		return nil
	}
	user, err := s.userRepo.GetByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrNotTournamentOwner
		}
		return fmt.Errorf("failed to load user %d: %w", callerID, err)
	}
	if user.Role != models.RoleAdmin {
		return ErrNotTournamentOwner
	}
	return nil
}
