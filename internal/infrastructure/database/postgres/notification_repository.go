package postgres

import (
	"context"
	"fmt"
	"time"

	"precast-tracker/internal/domain/notification"
	"precast-tracker/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
)

type NotificationRepository struct {
	db *DB
}

func NewNotificationRepository(db *DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) CreateMany(ctx context.Context, notifications []*notification.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	now := time.Now()
	dbModels := make([]models.NotificationModel, len(notifications))
	for i, n := range notifications {
		if n.ID == uuid.Nil {
			n.ID = uuid.New()
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = now
		}
		dbModels[i] = models.NotificationModel{
			ID:          n.ID,
			RecipientID: n.RecipientID,
			ElementID:   n.ElementID,
			ProjectID:   n.ProjectID,
			Title:       n.Title,
			Body:        n.Body,
			ReadAt:      n.ReadAt,
			CreatedAt:   n.CreatedAt,
		}
	}

	if err := r.db.DB.WithContext(ctx).CreateInBatches(dbModels, 100).Error; err != nil {
		return fmt.Errorf("failed to create notifications: %w", err)
	}
	return nil
}

func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID uuid.UUID, limit int) ([]*notification.Notification, error) {
	var dbModels []models.NotificationModel
	query := r.db.DB.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&dbModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	out := make([]*notification.Notification, len(dbModels))
	for i, m := range dbModels {
		out[i] = &notification.Notification{
			ID:          m.ID,
			RecipientID: m.RecipientID,
			ElementID:   m.ElementID,
			ProjectID:   m.ProjectID,
			Title:       m.Title,
			Body:        m.Body,
			ReadAt:      m.ReadAt,
			CreatedAt:   m.CreatedAt,
		}
	}
	return out, nil
}

// MarkRead is scoped to the recipient so one user cannot mark another's
// inbox; a foreign id reports ErrNotificationNotFound.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipientID uuid.UUID, at time.Time) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.NotificationModel{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("read_at", at)

	if result.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return notification.ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.DB.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.NotificationModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge notifications: %w", result.Error)
	}
	return result.RowsAffected, nil
}
