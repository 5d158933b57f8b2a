package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"precast-tracker/internal/domain/element"
	"precast-tracker/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ElementRepository struct {
	db *DB
}

func NewElementRepository(db *DB) *ElementRepository {
	return &ElementRepository{db: db}
}

func (r *ElementRepository) Create(ctx context.Context, e *element.Element) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now
	if e.Status == "" {
		e.Status = element.StatusPlanned
	}

	dbModel := toElementModel(e)
	if err := r.db.DB.WithContext(ctx).Create(dbModel).Error; err != nil {
		return fmt.Errorf("failed to create element: %w", err)
	}

	return nil
}

func (r *ElementRepository) GetByID(ctx context.Context, id uuid.UUID) (*element.Element, error) {
	var dbModel models.ElementModel
	err := r.db.DB.WithContext(ctx).Where("id = ?", id).First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, element.ErrElementNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get element: %w", err)
	}

	return toElementEntity(&dbModel), nil
}

func (r *ElementRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*element.Element, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var dbModels []models.ElementModel
	if err := r.db.DB.WithContext(ctx).Where("id IN ?", ids).Find(&dbModels).Error; err != nil {
		return nil, fmt.Errorf("failed to get elements: %w", err)
	}

	return toElementEntities(dbModels), nil
}

func (r *ElementRepository) List(ctx context.Context, filter *element.Filter) ([]*element.Element, error) {
	db := r.db.DB.WithContext(ctx).Model(&models.ElementModel{})

	if filter != nil {
		if filter.ProjectID != nil {
			db = db.Where("project_id = ?", *filter.ProjectID)
		}
		if filter.Status != nil {
			db = db.Where("status = ?", string(*filter.Status))
		}
		if filter.BatchID != nil {
			db = db.Where("batch_id = ?", *filter.BatchID)
		}
	}

	var dbModels []models.ElementModel
	if err := db.Order("priority DESC, created_at ASC").Find(&dbModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list elements: %w", err)
	}

	return toElementEntities(dbModels), nil
}

func (r *ElementRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	updates := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		updates[k] = v
	}
	updates["updated_at"] = time.Now()

	result := r.db.DB.WithContext(ctx).
		Model(&models.ElementModel{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update element: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return element.ErrElementNotFound
	}

	return nil
}

func (r *ElementRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.DB.WithContext(ctx).
		Where("id = ? AND status = ? AND batch_id IS NULL", id, string(element.StatusPlanned)).
		Delete(&models.ElementModel{})

	if result.Error != nil {
		return fmt.Errorf("failed to delete element: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return element.ErrElementInUse
	}

	return nil
}

func (r *ElementRepository) UpdateStatus(ctx context.Context, change element.StatusChange) error {
	updates := map[string]interface{}{
		"status":     string(change.To),
		"updated_at": change.At,
		"updated_by": change.ActorID,
	}
	if change.Stamp != "" {
		updates[change.Stamp] = change.At
	}
	if change.Clear != "" {
		updates[change.Clear] = nil
	}
	if change.Notes != nil {
		updates["notes"] = *change.Notes
	}

	result := r.db.DB.WithContext(ctx).
		Model(&models.ElementModel{}).
		Where("id = ? AND status = ?", change.ID, string(change.From)).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update element status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, change.ID); err != nil {
			return err
		}
		return element.ErrStatusConflict
	}

	return nil
}

func (r *ElementRepository) AssignBatch(ctx context.Context, batchID uuid.UUID, ids []uuid.UUID, statuses []element.Status) (int64, error) {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}

	result := r.db.DB.WithContext(ctx).
		Model(&models.ElementModel{}).
		Where("id IN ? AND batch_id IS NULL AND status IN ?", ids, names).
		Updates(map[string]interface{}{
			"batch_id":   batchID,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return 0, fmt.Errorf("failed to assign batch: %w", result.Error)
	}

	return result.RowsAffected, nil
}

func (r *ElementRepository) ClearBatch(ctx context.Context, batchID uuid.UUID) error {
	err := r.db.DB.WithContext(ctx).
		Model(&models.ElementModel{}).
		Where("batch_id = ?", batchID).
		Updates(map[string]interface{}{
			"batch_id":   nil,
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to clear batch: %w", err)
	}
	return nil
}

func (r *ElementRepository) ListByBatch(ctx context.Context, batchID uuid.UUID) ([]*element.Element, error) {
	return r.List(ctx, &element.Filter{BatchID: &batchID})
}

func toElementModel(e *element.Element) *models.ElementModel {
	return &models.ElementModel{
		ID:          e.ID,
		ProjectID:   e.ProjectID,
		BuildingID:  e.BuildingID,
		BatchID:     e.BatchID,
		Name:        e.Name,
		ElementType: string(e.ElementType),
		Status:      string(e.Status),
		Priority:    e.Priority,
		Floor:       e.Floor,
		LengthMM:    e.LengthMM,
		WidthMM:     e.WidthMM,
		HeightMM:    e.HeightMM,
		WeightKG:    e.WeightKG,
		Notes:       e.Notes,
		RebarAt:     e.RebarAt,
		CastAt:      e.CastAt,
		CuringAt:    e.CuringAt,
		ReadyAt:     e.ReadyAt,
		LoadedAt:    e.LoadedAt,
		DeliveredAt: e.DeliveredAt,
		CreatedBy:   e.CreatedBy,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func toElementEntity(m *models.ElementModel) *element.Element {
	return &element.Element{
		ID:          m.ID,
		ProjectID:   m.ProjectID,
		BuildingID:  m.BuildingID,
		BatchID:     m.BatchID,
		Name:        m.Name,
		ElementType: element.Type(m.ElementType),
		Status:      element.Status(m.Status),
		Priority:    m.Priority,
		Floor:       m.Floor,
		LengthMM:    m.LengthMM,
		WidthMM:     m.WidthMM,
		HeightMM:    m.HeightMM,
		WeightKG:    m.WeightKG,
		Notes:       m.Notes,
		RebarAt:     m.RebarAt,
		CastAt:      m.CastAt,
		CuringAt:    m.CuringAt,
		ReadyAt:     m.ReadyAt,
		LoadedAt:    m.LoadedAt,
		DeliveredAt: m.DeliveredAt,
		CreatedBy:   m.CreatedBy,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func toElementEntities(dbModels []models.ElementModel) []*element.Element {
	elements := make([]*element.Element, len(dbModels))
	for i := range dbModels {
		elements[i] = toElementEntity(&dbModels[i])
	}
	return elements
}
