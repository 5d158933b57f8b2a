package notification

import (
	"context"
	"errors"
	"time"

	domainNotification "precast-tracker/internal/domain/notification"
	"precast-tracker/internal/usecase/authz"
	appErrors "precast-tracker/pkg/errors"
	"precast-tracker/pkg/utils"

	"github.com/google/uuid"
)

const defaultListLimit = 50

// Service is the read side of the inbox; rows are written by the dispatcher.
type Service struct {
	repo domainNotification.Repository
	gate *authz.Gate
}

func NewService(repo domainNotification.Repository, gate *authz.Gate) *Service {
	return &Service{repo: repo, gate: gate}
}

func (s *Service) ListNotifications(ctx context.Context, actorID uuid.UUID, req *ListNotificationsRequest) ([]*domainNotification.Notification, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation(err)
	}
	if _, err := s.gate.RoleOf(ctx, actorID); err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit == 0 {
		limit = defaultListLimit
	}

	notifications, err := s.repo.ListByRecipient(ctx, actorID, limit)
	if err != nil {
		return nil, appErrors.StorageFailure("notification list", err)
	}
	return notifications, nil
}

func (s *Service) MarkRead(ctx context.Context, id, actorID uuid.UUID) error {
	if _, err := s.gate.RoleOf(ctx, actorID); err != nil {
		return err
	}

	if err := s.repo.MarkRead(ctx, id, actorID, time.Now()); err != nil {
		if errors.Is(err, domainNotification.ErrNotificationNotFound) {
			return appErrors.NotFound("notification", id)
		}
		return appErrors.StorageFailure("notification update", err)
	}
	return nil
}
