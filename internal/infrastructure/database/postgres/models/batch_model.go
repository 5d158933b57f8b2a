package models

import (
	"time"

	"precast-tracker/internal/domain/batch"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// BatchModel represents the database model for ProductionBatch
type BatchModel struct {
	ID               uuid.UUID                                `gorm:"type:uuid;primary_key"`
	ProjectID        uuid.UUID                                `gorm:"type:uuid;not null;index"`
	BatchNumber      string                                   `gorm:"type:varchar(32);not null;uniqueIndex"`
	BatchDate        time.Time                                `gorm:"not null"`
	ConcreteSupplier *string                                  `gorm:"type:varchar(255)"`
	ConcreteGrade    *string                                  `gorm:"type:varchar(50)"`
	AirTemperature   *float64                                 `gorm:"type:decimal(5,2)"`
	Checklist        datatypes.JSONSlice[batch.ChecklistItem] `gorm:"not null"`
	Status           string                                   `gorm:"type:varchar(20);not null;default:'preparing';index"`
	Notes            *string                                  `gorm:"type:text"`
	CreatedBy        uuid.UUID                                `gorm:"type:uuid;not null"`
	CompletedBy      *uuid.UUID                               `gorm:"type:uuid"`
	CompletedAt      *time.Time                               `gorm:"index"`
	CreatedAt        time.Time                                `gorm:"not null"`
	UpdatedAt        time.Time                                `gorm:"not null"`
}

func (BatchModel) TableName() string {
	return "production_batches"
}
