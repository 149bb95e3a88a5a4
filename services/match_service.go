package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"

	"github.com/brewbracket/tournament-system/models"
	"github.com/brewbracket/tournament-system/repositories"
	"github.com/brewbracket/tournament-system/storage"
	"github.com/google/uuid"
)

type MatchService interface {
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListSubmissions(ctx context.Context, matchID int) ([]*models.ScoreSubmission, error)
	// UploadMedia stores evidence (a photo or clip of the contested shot)
	// and appends its key to the match. Participants only.
	UploadMedia(ctx context.Context, matchID, uploaderID int, filename, contentType string, reader io.Reader) (*storage.UploadResult, error)
}

type matchService struct {
	matchRepo      repositories.MatchRepository
	submissionRepo repositories.SubmissionRepository
	teamRepo       repositories.TeamRepository
	uploader       storage.FileUploader
	logger         *slog.Logger
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	submissionRepo repositories.SubmissionRepository,
	teamRepo repositories.TeamRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		matchRepo:      matchRepo,
		submissionRepo: submissionRepo,
		teamRepo:       teamRepo,
		uploader:       uploader,
		logger:         logger,
	}
}

func (s *matchService) GetByID(ctx context.Context, id int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load match %d: %w", id, err)
	}
	return match, nil
}

func (s *matchService) ListSubmissions(ctx context.Context, matchID int) ([]*models.ScoreSubmission, error) {
	if _, err := s.GetByID(ctx, matchID); err != nil {
		return nil, err
	}
	subs, err := s.submissionRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions for match %d: %w", matchID, err)
	}
	return subs, nil
}

func (s *matchService) UploadMedia(ctx context.Context, matchID, uploaderID int, filename, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	match, err := s.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}

	isParticipant := false
	for _, teamID := range []*int{match.TeamAID, match.TeamBID} {
		if teamID == nil {
			continue
		}
		ok, err := s.teamRepo.IsMember(ctx, *teamID, uploaderID)
		if err != nil {
			return nil, fmt.Errorf("failed to check team membership: %w", err)
		}
		if ok {
			isParticipant = true
			break
		}
	}
	if !isParticipant {
		return nil, ErrNotMatchParticipant
	}

	key := fmt.Sprintf("matches/%d/%s%s", matchID, uuid.NewString(), path.Ext(filename))
	result, err := s.uploader.Upload(ctx, key, contentType, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to upload media for match %d: %w", matchID, err)
	}

	if err := s.matchRepo.AppendMediaKey(ctx, matchID, key); err != nil {
		// The object is orphaned; remove it rather than leak it.
		if delErr := s.uploader.Delete(ctx, key); delErr != nil {
			s.logger.Error("failed to delete orphaned media object", slog.String("key", key), slog.Any("error", delErr))
		}
		return nil, fmt.Errorf("failed to record media key on match %d: %w", matchID, err)
	}

	s.logger.Info("match media uploaded", slog.Int("match_id", matchID), slog.String("key", key))
	return result, nil
}
