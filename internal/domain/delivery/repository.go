package delivery

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for delivery and manifest persistence
type Repository interface {
	Create(ctx context.Context, d *Delivery) error
	GetByID(ctx context.Context, id uuid.UUID) (*Delivery, error)
	List(ctx context.Context, filter *Filter) ([]*Delivery, error)

	// UpdateStatus moves the delivery from -> to and applies fields in the
	// same statement. It returns ErrDeliveryStatusConflict when the stored
	// status is no longer from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, fields map[string]interface{}) error

	// InsertItem returns ErrDuplicateItem when (delivery_id, element_id)
	// already exists; the constraint is enforced by the schema.
	InsertItem(ctx context.Context, item *Item) error
	GetItem(ctx context.Context, deliveryID, elementID uuid.UUID) (*Item, error)
	ListItems(ctx context.Context, deliveryID uuid.UUID) ([]*Item, error)
	CountItems(ctx context.Context, deliveryID uuid.UUID) (int64, error)
	DeleteItem(ctx context.Context, deliveryID, elementID uuid.UUID) error
	SetItemDelivered(ctx context.Context, deliveryID, elementID uuid.UUID, at *time.Time, photoURL, notes *string) error
	HasElement(ctx context.Context, elementID uuid.UUID) (bool, error)
}

// Filter represents filtering options for listing deliveries
type Filter struct {
	DriverID  *uuid.UUID
	ProjectID *uuid.UUID
	Status    *Status
}
