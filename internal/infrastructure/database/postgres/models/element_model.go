package models

import (
	"time"

	"github.com/google/uuid"
)

// ElementModel represents the database model for Element
type ElementModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key"`
	ProjectID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	BuildingID  *uuid.UUID `gorm:"type:uuid;index"`
	BatchID     *uuid.UUID `gorm:"type:uuid;index"`
	Name        string     `gorm:"type:varchar(255);not null"`
	ElementType string     `gorm:"type:varchar(50);not null"`
	Status      string     `gorm:"type:varchar(20);not null;default:'planned';index"`
	Priority    int        `gorm:"not null;default:0;check:priority >= 0"`
	Floor       *int
	LengthMM    *int     `gorm:"column:length_mm"`
	WidthMM     *int     `gorm:"column:width_mm"`
	HeightMM    *int     `gorm:"column:height_mm"`
	WeightKG    *float64 `gorm:"column:weight_kg;type:decimal(10,2)"`
	Notes       *string  `gorm:"type:text"`
	RebarAt     *time.Time
	CastAt      *time.Time
	CuringAt    *time.Time
	ReadyAt     *time.Time
	LoadedAt    *time.Time
	DeliveredAt *time.Time
	CreatedBy   uuid.UUID  `gorm:"type:uuid;not null"`
	UpdatedBy   *uuid.UUID `gorm:"type:uuid"`
	CreatedAt   time.Time  `gorm:"not null;index"`
	UpdatedAt   time.Time  `gorm:"not null"`
}

func (ElementModel) TableName() string {
	return "elements"
}
