package models

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryModel represents the database model for Delivery
type DeliveryModel struct {
	ID                uuid.UUID `gorm:"type:uuid;primary_key"`
	ProjectID         uuid.UUID `gorm:"type:uuid;not null;index"`
	DriverID          uuid.UUID `gorm:"type:uuid;not null;index"`
	TruckRegistration string    `gorm:"type:varchar(20);not null"`
	Status            string    `gorm:"type:varchar(20);not null;default:'planned';index"`
	PlannedDate       time.Time `gorm:"not null;index"`
	LoadingStartedAt  *time.Time
	DepartedAt        *time.Time
	ArrivedAt         *time.Time
	CompletedAt       *time.Time
	ReceivedByName    *string   `gorm:"type:varchar(255)"`
	SignatureURL      *string   `gorm:"type:text"`
	PhotoURL          *string   `gorm:"type:text"`
	Notes             *string   `gorm:"type:text"`
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`

	Items []DeliveryItemModel `gorm:"foreignKey:DeliveryID;constraint:OnDelete:CASCADE"`
}

func (DeliveryModel) TableName() string {
	return "deliveries"
}

// DeliveryItemModel is a manifest line. The composite unique index closes
// the race between two scans of the same element into the same delivery.
type DeliveryItemModel struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key"`
	DeliveryID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_delivery_items_delivery_element"`
	ElementID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_delivery_items_delivery_element;index"`
	LoadPosition     *string   `gorm:"type:varchar(50)"`
	LoadedAt         time.Time `gorm:"not null"`
	LoadedBy         uuid.UUID `gorm:"type:uuid;not null"`
	DeliveredAt      *time.Time
	ReceivedPhotoURL *string `gorm:"type:text"`
	Notes            *string `gorm:"type:text"`
}

func (DeliveryItemModel) TableName() string {
	return "delivery_items"
}
