package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"precast-tracker/internal/domain/batch"
	"precast-tracker/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type BatchRepository struct {
	db *DB
}

func NewBatchRepository(db *DB) *BatchRepository {
	return &BatchRepository{db: db}
}

func (r *BatchRepository) Create(ctx context.Context, b *batch.Batch) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now
	if b.Status == "" {
		b.Status = batch.StatusPreparing
	}

	if err := r.db.DB.WithContext(ctx).Create(toBatchModel(b)).Error; err != nil {
		if isUniqueViolation(err) {
			return batch.ErrBatchNumberTaken
		}
		return fmt.Errorf("failed to create batch: %w", err)
	}

	return nil
}

func (r *BatchRepository) GetByID(ctx context.Context, id uuid.UUID) (*batch.Batch, error) {
	var dbModel models.BatchModel
	err := r.db.DB.WithContext(ctx).Where("id = ?", id).First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, batch.ErrBatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}

	return toBatchEntity(&dbModel), nil
}

func (r *BatchRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*batch.Batch, error) {
	var dbModels []models.BatchModel
	err := r.db.DB.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("batch_date DESC, created_at DESC").
		Find(&dbModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}

	batches := make([]*batch.Batch, len(dbModels))
	for i := range dbModels {
		batches[i] = toBatchEntity(&dbModels[i])
	}
	return batches, nil
}

func (r *BatchRepository) UpdateChecklist(ctx context.Context, id uuid.UUID, checklist []batch.ChecklistItem) error {
	return r.UpdateStatus(ctx, id, batch.StatusPreparing, batch.StatusPreparing, map[string]interface{}{
		"checklist": datatypes.NewJSONSlice(checklist),
	})
}

func (r *BatchRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to batch.Status, fields map[string]interface{}) error {
	updates := map[string]interface{}{
		"status":     string(to),
		"updated_at": time.Now(),
	}
	for k, v := range fields {
		updates[k] = v
	}

	result := r.db.DB.WithContext(ctx).
		Model(&models.BatchModel{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update batch: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return batch.ErrBatchStatusConflict
	}

	return nil
}

func (r *BatchRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.BatchModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete batch: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return batch.ErrBatchNotFound
	}
	return nil
}

func toBatchModel(b *batch.Batch) *models.BatchModel {
	return &models.BatchModel{
		ID:               b.ID,
		ProjectID:        b.ProjectID,
		BatchNumber:      b.BatchNumber,
		BatchDate:        b.BatchDate,
		ConcreteSupplier: b.Concrete.Supplier,
		ConcreteGrade:    b.Concrete.Grade,
		AirTemperature:   b.Concrete.AirTemperature,
		Checklist:        datatypes.NewJSONSlice(b.Checklist),
		Status:           string(b.Status),
		Notes:            b.Notes,
		CreatedBy:        b.CreatedBy,
		CompletedBy:      b.CompletedBy,
		CompletedAt:      b.CompletedAt,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}

func toBatchEntity(m *models.BatchModel) *batch.Batch {
	return &batch.Batch{
		ID:          m.ID,
		ProjectID:   m.ProjectID,
		BatchNumber: m.BatchNumber,
		BatchDate:   m.BatchDate,
		Concrete: batch.ConcreteInfo{
			Supplier:       m.ConcreteSupplier,
			Grade:          m.ConcreteGrade,
			AirTemperature: m.AirTemperature,
		},
		Checklist:   []batch.ChecklistItem(m.Checklist),
		Status:      batch.Status(m.Status),
		Notes:       m.Notes,
		CreatedBy:   m.CreatedBy,
		CompletedBy: m.CompletedBy,
		CompletedAt: m.CompletedAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
