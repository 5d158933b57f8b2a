package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"precast-tracker/internal/domain/delivery"
	"precast-tracker/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DeliveryRepository struct {
	db *DB
}

func NewDeliveryRepository(db *DB) *DeliveryRepository {
	return &DeliveryRepository{db: db}
}

func (r *DeliveryRepository) Create(ctx context.Context, d *delivery.Delivery) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	now := time.Now()
	d.CreatedAt = now
	d.UpdatedAt = now
	if d.Status == "" {
		d.Status = delivery.StatusPlanned
	}

	if err := r.db.DB.WithContext(ctx).Omit("Items").Create(toDeliveryModel(d)).Error; err != nil {
		return fmt.Errorf("failed to create delivery: %w", err)
	}

	return nil
}

func (r *DeliveryRepository) GetByID(ctx context.Context, id uuid.UUID) (*delivery.Delivery, error) {
	var dbModel models.DeliveryModel
	err := r.db.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("loaded_at ASC")
		}).
		Where("id = ?", id).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, delivery.ErrDeliveryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get delivery: %w", err)
	}

	return toDeliveryEntity(&dbModel), nil
}

func (r *DeliveryRepository) List(ctx context.Context, filter *delivery.Filter) ([]*delivery.Delivery, error) {
	var dbModels []models.DeliveryModel
	query := r.db.DB.WithContext(ctx).Model(&models.DeliveryModel{})

	if filter != nil {
		if filter.DriverID != nil {
			query = query.Where("driver_id = ?", *filter.DriverID)
		}
		if filter.ProjectID != nil {
			query = query.Where("project_id = ?", *filter.ProjectID)
		}
		if filter.Status != nil {
			query = query.Where("status = ?", string(*filter.Status))
		}
	}

	if err := query.Order("planned_date ASC, created_at ASC").Find(&dbModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list deliveries: %w", err)
	}

	deliveries := make([]*delivery.Delivery, len(dbModels))
	for i := range dbModels {
		deliveries[i] = toDeliveryEntity(&dbModels[i])
	}
	return deliveries, nil
}

func (r *DeliveryRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to delivery.Status, fields map[string]interface{}) error {
	updates := map[string]interface{}{
		"status":     string(to),
		"updated_at": time.Now(),
	}
	for k, v := range fields {
		updates[k] = v
	}

	result := r.db.DB.WithContext(ctx).
		Model(&models.DeliveryModel{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update delivery: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.DB.WithContext(ctx).Model(&models.DeliveryModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check delivery: %w", err)
		}
		if count == 0 {
			return delivery.ErrDeliveryNotFound
		}
		return delivery.ErrDeliveryStatusConflict
	}

	return nil
}

func (r *DeliveryRepository) InsertItem(ctx context.Context, item *delivery.Item) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.LoadedAt.IsZero() {
		item.LoadedAt = time.Now()
	}

	if err := r.db.DB.WithContext(ctx).Create(toItemModel(item)).Error; err != nil {
		if isUniqueViolation(err) {
			return delivery.ErrDuplicateItem
		}
		return fmt.Errorf("failed to insert delivery item: %w", err)
	}

	return nil
}

func (r *DeliveryRepository) GetItem(ctx context.Context, deliveryID, elementID uuid.UUID) (*delivery.Item, error) {
	var dbModel models.DeliveryItemModel
	err := r.db.DB.WithContext(ctx).
		Where("delivery_id = ? AND element_id = ?", deliveryID, elementID).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, delivery.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get delivery item: %w", err)
	}

	return toItemEntity(&dbModel), nil
}

func (r *DeliveryRepository) ListItems(ctx context.Context, deliveryID uuid.UUID) ([]*delivery.Item, error) {
	var dbModels []models.DeliveryItemModel
	err := r.db.DB.WithContext(ctx).
		Where("delivery_id = ?", deliveryID).
		Order("loaded_at ASC").
		Find(&dbModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list delivery items: %w", err)
	}

	return toItemEntities(dbModels), nil
}

func (r *DeliveryRepository) CountItems(ctx context.Context, deliveryID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.DB.WithContext(ctx).
		Model(&models.DeliveryItemModel{}).
		Where("delivery_id = ?", deliveryID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count delivery items: %w", err)
	}
	return count, nil
}

func (r *DeliveryRepository) DeleteItem(ctx context.Context, deliveryID, elementID uuid.UUID) error {
	result := r.db.DB.WithContext(ctx).
		Where("delivery_id = ? AND element_id = ?", deliveryID, elementID).
		Delete(&models.DeliveryItemModel{})

	if result.Error != nil {
		return fmt.Errorf("failed to delete delivery item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return delivery.ErrItemNotFound
	}
	return nil
}

// SetItemDelivered stamps or, with a nil at, clears the delivered_at of a
// manifest line. Photo and notes are only written when non-nil.
func (r *DeliveryRepository) SetItemDelivered(ctx context.Context, deliveryID, elementID uuid.UUID, at *time.Time, photoURL, notes *string) error {
	updates := map[string]interface{}{
		"delivered_at": at,
	}
	if photoURL != nil {
		updates["received_photo_url"] = *photoURL
	}
	if notes != nil {
		updates["notes"] = *notes
	}

	result := r.db.DB.WithContext(ctx).
		Model(&models.DeliveryItemModel{}).
		Where("delivery_id = ? AND element_id = ?", deliveryID, elementID).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update delivery item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return delivery.ErrItemNotFound
	}
	return nil
}

func (r *DeliveryRepository) HasElement(ctx context.Context, elementID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.DB.WithContext(ctx).
		Model(&models.DeliveryItemModel{}).
		Where("element_id = ?", elementID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check delivery items: %w", err)
	}
	return count > 0, nil
}

func toDeliveryModel(d *delivery.Delivery) *models.DeliveryModel {
	return &models.DeliveryModel{
		ID:                d.ID,
		ProjectID:         d.ProjectID,
		DriverID:          d.DriverID,
		TruckRegistration: d.TruckRegistration,
		Status:            string(d.Status),
		PlannedDate:       d.PlannedDate,
		LoadingStartedAt:  d.LoadingStartedAt,
		DepartedAt:        d.DepartedAt,
		ArrivedAt:         d.ArrivedAt,
		CompletedAt:       d.CompletedAt,
		ReceivedByName:    d.Completion.ReceivedByName,
		SignatureURL:      d.Completion.SignatureURL,
		PhotoURL:          d.Completion.PhotoURL,
		Notes:             d.Completion.Notes,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

func toDeliveryEntity(m *models.DeliveryModel) *delivery.Delivery {
	d := &delivery.Delivery{
		ID:                m.ID,
		ProjectID:         m.ProjectID,
		DriverID:          m.DriverID,
		TruckRegistration: m.TruckRegistration,
		Status:            delivery.Status(m.Status),
		PlannedDate:       m.PlannedDate,
		LoadingStartedAt:  m.LoadingStartedAt,
		DepartedAt:        m.DepartedAt,
		ArrivedAt:         m.ArrivedAt,
		CompletedAt:       m.CompletedAt,
		Completion: delivery.Completion{
			ReceivedByName: m.ReceivedByName,
			SignatureURL:   m.SignatureURL,
			PhotoURL:       m.PhotoURL,
			Notes:          m.Notes,
		},
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if len(m.Items) > 0 {
		d.Items = toItemEntities(m.Items)
	}
	return d
}

func toItemModel(i *delivery.Item) *models.DeliveryItemModel {
	return &models.DeliveryItemModel{
		ID:               i.ID,
		DeliveryID:       i.DeliveryID,
		ElementID:        i.ElementID,
		LoadPosition:     i.LoadPosition,
		LoadedAt:         i.LoadedAt,
		LoadedBy:         i.LoadedBy,
		DeliveredAt:      i.DeliveredAt,
		ReceivedPhotoURL: i.ReceivedPhotoURL,
		Notes:            i.Notes,
	}
}

func toItemEntity(m *models.DeliveryItemModel) *delivery.Item {
	return &delivery.Item{
		ID:               m.ID,
		DeliveryID:       m.DeliveryID,
		ElementID:        m.ElementID,
		LoadPosition:     m.LoadPosition,
		LoadedAt:         m.LoadedAt,
		LoadedBy:         m.LoadedBy,
		DeliveredAt:      m.DeliveredAt,
		ReceivedPhotoURL: m.ReceivedPhotoURL,
		Notes:            m.Notes,
	}
}

func toItemEntities(dbModels []models.DeliveryItemModel) []*delivery.Item {
	items := make([]*delivery.Item, len(dbModels))
	for i := range dbModels {
		items[i] = toItemEntity(&dbModels[i])
	}
	return items
}
