package notification

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const listLimit = 50

type Store interface {
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]View, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) (Notification, error)
	DeleteRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

type Service struct {
	repo   Store
	logger *zerolog.Logger
}

func NewService(repo Store, logger *zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// List returns the user's latest notifications, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]View, error) {
	return s.repo.ListByUser(ctx, userID, listLimit)
}

func (s *Service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) (Notification, error) {
	return s.repo.MarkRead(ctx, userID, notificationID)
}

// ClearRead deletes every notification the user has already read.
func (s *Service) ClearRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.repo.DeleteRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.logger.Debug().Str("user_id", userID.String()).Int64("deleted", n).Msg("read notifications cleared")
	return n, nil
}
