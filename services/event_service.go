package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/brewbracket/tournament-system/models"
	"github.com/brewbracket/tournament-system/repositories"
)

type EventService interface {
	Create(ctx context.Context, event *models.Event, callerRole models.UserRole) error
	GetByID(ctx context.Context, id int) (*models.Event, error)
	List(ctx context.Context) ([]*models.Event, error)
}

type eventService struct {
	eventRepo repositories.EventRepository
}

func NewEventService(eventRepo repositories.EventRepository) EventService {
	return &eventService{eventRepo: eventRepo}
}

func (s *eventService) Create(ctx context.Context, event *models.Event, callerRole models.UserRole) error {
	if callerRole != models.RoleAdmin {
		return ErrForbiddenOperation
	}
	event.Name = strings.TrimSpace(event.Name)
	if event.Name == "" {
		return fmt.Errorf("%w: event name is required", ErrValidationFailed)
	}
	if event.WinPoints < 0 || event.LossPoints < 0 {
		return fmt.Errorf("%w: point values must be non-negative", ErrValidationFailed)
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func (s *eventService) GetByID(ctx context.Context, id int) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to load event %d: %w", id, err)
	}
	return event, nil
}

func (s *eventService) List(ctx context.Context) ([]*models.Event, error) {
	events, err := s.eventRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}
