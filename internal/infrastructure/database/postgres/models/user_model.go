package models

import (
	"time"

	"github.com/google/uuid"
)

// UserModel represents the database model for User
type UserModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key"`
	CompanyID *uuid.UUID `gorm:"type:uuid;index"`
	Email     string     `gorm:"type:varchar(255);not null;uniqueIndex"`
	FullName  string     `gorm:"type:varchar(255);not null"`
	Role      string     `gorm:"type:varchar(50);not null;index"`
	IsActive  bool       `gorm:"not null"`
	CreatedAt time.Time  `gorm:"not null"`
	UpdatedAt time.Time  `gorm:"not null"`
}

func (UserModel) TableName() string {
	return "users"
}

// ProjectModel represents the database model for Project
type ProjectModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Address   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"not null"`
}

func (ProjectModel) TableName() string {
	return "projects"
}

// NotificationModel is one inbox row
type NotificationModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	RecipientID uuid.UUID `gorm:"type:uuid;not null;index"`
	ElementID   uuid.UUID `gorm:"type:uuid;not null"`
	ProjectID   uuid.UUID `gorm:"type:uuid;not null"`
	Title       string    `gorm:"type:varchar(255);not null"`
	Body        string    `gorm:"type:text;not null"`
	ReadAt      *time.Time
	CreatedAt   time.Time `gorm:"not null;index"`
}

func (NotificationModel) TableName() string {
	return "notifications"
}

// All lists every persistence model, in migration order.
func All() []interface{} {
	return []interface{}{
		&UserModel{},
		&ProjectModel{},
		&ElementModel{},
		&BatchModel{},
		&DeliveryModel{},
		&DeliveryItemModel{},
		&NotificationModel{},
	}
}
