package delivery

import (
	"time"

	domainDelivery "precast-tracker/internal/domain/delivery"

	"github.com/google/uuid"
)

// Request DTOs
type CreateDeliveryRequest struct {
	ProjectID         uuid.UUID  `json:"project_id" validate:"required"`
	DriverID          *uuid.UUID `json:"driver_id" validate:"omitempty"`
	TruckRegistration string     `json:"truck_registration" validate:"required,truck_registration"`
	PlannedDate       time.Time  `json:"planned_date" validate:"required"`
}

type LoadElementRequest struct {
	// ElementID or ScanToken identifies the element; a token wins.
	ElementID    *uuid.UUID `json:"element_id" validate:"omitempty"`
	ScanToken    *string    `json:"scan_token" validate:"omitempty,max=512"`
	LoadPosition *string    `json:"load_position" validate:"omitempty,max=50"`
}

type ConfirmItemRequest struct {
	PhotoURL *string `json:"photo_url" validate:"omitempty,url,max=2048"`
	Notes    *string `json:"notes" validate:"omitempty,max=2000"`
}

type CompleteDeliveryRequest struct {
	ReceivedByName string  `json:"received_by_name" validate:"required,min=2,max=255"`
	SignatureURL   *string `json:"signature_url" validate:"omitempty,url,max=2048"`
	PhotoURL       *string `json:"photo_url" validate:"omitempty,url,max=2048"`
	Notes          *string `json:"notes" validate:"omitempty,max=2000"`
}

type DeliveryFilterRequest struct {
	DriverID  *uuid.UUID
	ProjectID *uuid.UUID
	Status    *string `validate:"omitempty,oneof=planned loading in_transit arrived completed cancelled"`
}

// Response DTOs
type DeliveryResponse struct {
	ID                uuid.UUID `json:"id"`
	ProjectID         uuid.UUID `json:"project_id"`
	DriverID          uuid.UUID `json:"driver_id"`
	TruckRegistration string    `json:"truck_registration"`
	Status            string    `json:"status"`
	PlannedDate       time.Time `json:"planned_date"`

	LoadingStartedAt *time.Time `json:"loading_started_at,omitempty"`
	DepartedAt       *time.Time `json:"departed_at,omitempty"`
	ArrivedAt        *time.Time `json:"arrived_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`

	ReceivedByName *string `json:"received_by_name,omitempty"`
	SignatureURL   *string `json:"signature_url,omitempty"`
	PhotoURL       *string `json:"photo_url,omitempty"`
	Notes          *string `json:"notes,omitempty"`

	Items        []*ItemResponse `json:"items"`
	PendingItems int             `json:"pending_items"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ItemResponse struct {
	ElementID        uuid.UUID  `json:"element_id"`
	LoadPosition     *string    `json:"load_position,omitempty"`
	LoadedAt         time.Time  `json:"loaded_at"`
	LoadedBy         uuid.UUID  `json:"loaded_by"`
	DeliveredAt      *time.Time `json:"delivered_at,omitempty"`
	ReceivedPhotoURL *string    `json:"received_photo_url,omitempty"`
	Notes            *string    `json:"notes,omitempty"`
}

func ToItemResponse(item *domainDelivery.Item) *ItemResponse {
	return &ItemResponse{
		ElementID:        item.ElementID,
		LoadPosition:     item.LoadPosition,
		LoadedAt:         item.LoadedAt,
		LoadedBy:         item.LoadedBy,
		DeliveredAt:      item.DeliveredAt,
		ReceivedPhotoURL: item.ReceivedPhotoURL,
		Notes:            item.Notes,
	}
}

func ToDeliveryResponse(d *domainDelivery.Delivery) *DeliveryResponse {
	items := make([]*ItemResponse, len(d.Items))
	for i, item := range d.Items {
		items[i] = ToItemResponse(item)
	}

	return &DeliveryResponse{
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
		Items:             items,
		PendingItems:      domainDelivery.PendingCount(d.Items),
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

func ToDeliveryResponses(deliveries []*domainDelivery.Delivery) []*DeliveryResponse {
	out := make([]*DeliveryResponse, len(deliveries))
	for i, d := range deliveries {
		out[i] = ToDeliveryResponse(d)
	}
	return out
}
