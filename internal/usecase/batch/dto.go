package batch

import (
	"time"

	domainBatch "precast-tracker/internal/domain/batch"
	domainElement "precast-tracker/internal/domain/element"

	"github.com/google/uuid"
)

// Request DTOs
type CreateBatchRequest struct {
	ProjectID        uuid.UUID   `json:"project_id" validate:"required"`
	ElementIDs       []uuid.UUID `json:"element_ids"`
	BatchDate        *time.Time  `json:"batch_date" validate:"omitempty"`
	ConcreteSupplier *string     `json:"concrete_supplier" validate:"omitempty,max=255"`
	ConcreteGrade    *string     `json:"concrete_grade" validate:"omitempty,max=50"`
	AirTemperature   *float64    `json:"air_temperature" validate:"omitempty,min=-40,max=50"`
	Notes            *string     `json:"notes" validate:"omitempty,max=2000"`
}

type ChecklistItemRequest struct {
	Checked *bool `json:"checked" validate:"required"`
}

// Response DTOs
type BatchResponse struct {
	ID          uuid.UUID  `json:"id"`
	ProjectID   uuid.UUID  `json:"project_id"`
	BatchNumber string     `json:"batch_number"`
	BatchDate   time.Time  `json:"batch_date"`
	Status      string     `json:"status"`
	Concrete    Concrete   `json:"concrete"`
	Checklist   []Checkbox `json:"checklist"`
	Notes       *string    `json:"notes,omitempty"`

	ElementIDs []uuid.UUID `json:"element_ids,omitempty"`

	CreatedBy   uuid.UUID  `json:"created_by"`
	CompletedBy *uuid.UUID `json:"completed_by,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Concrete struct {
	Supplier       *string  `json:"supplier,omitempty"`
	Grade          *string  `json:"grade,omitempty"`
	AirTemperature *float64 `json:"air_temperature,omitempty"`
}

type Checkbox struct {
	Key       string     `json:"key"`
	Label     string     `json:"label"`
	Checked   bool       `json:"checked"`
	CheckedBy *uuid.UUID `json:"checked_by,omitempty"`
	CheckedAt *time.Time `json:"checked_at,omitempty"`
}

// Detail is a batch together with its member elements.
type Detail struct {
	Batch    *domainBatch.Batch
	Elements []*domainElement.Element
}

func ToBatchResponse(b *domainBatch.Batch, members []*domainElement.Element) *BatchResponse {
	checklist := make([]Checkbox, len(b.Checklist))
	for i, item := range b.Checklist {
		checklist[i] = Checkbox(item)
	}

	var ids []uuid.UUID
	for _, e := range members {
		ids = append(ids, e.ID)
	}

	return &BatchResponse{
		ID:          b.ID,
		ProjectID:   b.ProjectID,
		BatchNumber: b.BatchNumber,
		BatchDate:   b.BatchDate,
		Status:      string(b.Status),
		Concrete:    Concrete(b.Concrete),
		Checklist:   checklist,
		Notes:       b.Notes,
		ElementIDs:  ids,
		CreatedBy:   b.CreatedBy,
		CompletedBy: b.CompletedBy,
		CompletedAt: b.CompletedAt,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}
