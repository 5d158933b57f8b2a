package delivery

import (
	"time"

	"precast-tracker/internal/lifecycle"

	"github.com/google/uuid"
)

// Status represents the status of a delivery run
type Status string

const (
	StatusPlanned   Status = "planned"    // Scheduled, nothing on the truck
	StatusLoading   Status = "loading"    // At least one element loaded
	StatusInTransit Status = "in_transit" // Left the factory
	StatusArrived   Status = "arrived"    // On site, unloading
	StatusCompleted Status = "completed"  // Signed off, terminal
	StatusCancelled Status = "cancelled"  // Called off, can be reopened
)

// Transitions is the delivery state machine
var Transitions = lifecycle.Table[Status]{
	StatusPlanned:   {StatusLoading, StatusCancelled},
	StatusLoading:   {StatusInTransit, StatusPlanned, StatusCancelled},
	StatusInTransit: {StatusArrived, StatusLoading},
	StatusArrived:   {StatusCompleted, StatusInTransit},
	StatusCompleted: {},
	StatusCancelled: {StatusPlanned},
}

// Loadable reports whether the truck has not departed yet.
func (s Status) Loadable() bool {
	return s == StatusPlanned || s == StatusLoading
}

// Completion is the site sign-off record.
type Completion struct {
	ReceivedByName *string
	SignatureURL   *string
	PhotoURL       *string
	Notes          *string
}

// Delivery is one truck run from the factory to a project site
type Delivery struct {
	ID                uuid.UUID
	ProjectID         uuid.UUID
	DriverID          uuid.UUID
	TruckRegistration string
	Status            Status
	PlannedDate       time.Time

	LoadingStartedAt *time.Time
	DepartedAt       *time.Time
	ArrivedAt        *time.Time
	CompletedAt      *time.Time

	Completion Completion

	CreatedAt time.Time
	UpdatedAt time.Time

	Items []*Item
}

// Item is one manifest line
type Item struct {
	ID               uuid.UUID
	DeliveryID       uuid.UUID
	ElementID        uuid.UUID
	LoadPosition     *string
	LoadedAt         time.Time
	LoadedBy         uuid.UUID
	DeliveredAt      *time.Time
	ReceivedPhotoURL *string
	Notes            *string
}

// PendingCount returns the number of items without a delivered_at stamp.
func PendingCount(items []*Item) int {
	pending := 0
	for _, item := range items {
		if item.DeliveredAt == nil {
			pending++
		}
	}
	return pending
}
