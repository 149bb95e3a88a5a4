package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/brewbracket/tournament-system/models"
	"github.com/brewbracket/tournament-system/repositories"
)

type TeamService interface {
	Create(ctx context.Context, name string, captainID int) (*models.Team, error)
	GetByID(ctx context.Context, id int) (*models.Team, error)
	AddMember(ctx context.Context, teamID, userID, callerID int) error
}

type teamService struct {
	teamRepo repositories.TeamRepository
	userRepo repositories.UserRepository
}

func NewTeamService(teamRepo repositories.TeamRepository, userRepo repositories.UserRepository) TeamService {
	return &teamService{teamRepo: teamRepo, userRepo: userRepo}
}

func (s *teamService) Create(ctx context.Context, name string, captainID int) (*models.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: team name is required", ErrValidationFailed)
	}

	team := &models.Team{Name: name, CaptainID: captainID}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		if errors.Is(err, repositories.ErrTeamNameConflict) {
			return nil, ErrTeamNameConflict
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	// The captain is always on the roster.
	if err := s.teamRepo.AddMember(ctx, team.ID, captainID); err != nil {
		return nil, fmt.Errorf("failed to add captain to team %d: %w", team.ID, err)
	}
	return team, nil
}

func (s *teamService) GetByID(ctx context.Context, id int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to load team %d: %w", id, err)
	}
	return team, nil
}

func (s *teamService) AddMember(ctx context.Context, teamID, userID, callerID int) error {
	team, err := s.GetByID(ctx, teamID)
	if err != nil {
		return err
	}
	if team.CaptainID != callerID {
		return ErrForbiddenOperation
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	if err := s.teamRepo.AddMember(ctx, teamID, userID); err != nil {
		return fmt.Errorf("failed to add user %d to team %d: %w", userID, teamID, err)
	}
	return nil
}
