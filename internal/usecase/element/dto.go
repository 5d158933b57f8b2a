package element

import (
	"time"

	domainElement "precast-tracker/internal/domain/element"

	"github.com/google/uuid"
)

// Request DTOs
type CreateElementRequest struct {
	ProjectID   uuid.UUID  `json:"project_id" validate:"required"`
	BuildingID  *uuid.UUID `json:"building_id" validate:"omitempty"`
	Name        string     `json:"name" validate:"required,min=1,max=255"`
	ElementType string     `json:"element_type" validate:"required,element_type"`
	Priority    int        `json:"priority" validate:"min=0"`
	Floor       *int       `json:"floor" validate:"omitempty,min=-10,max=200"`
	LengthMM    *int       `json:"length_mm" validate:"omitempty,min=1,max=50000"`
	WidthMM     *int       `json:"width_mm" validate:"omitempty,min=1,max=50000"`
	HeightMM    *int       `json:"height_mm" validate:"omitempty,min=1,max=50000"`
	WeightKG    *float64   `json:"weight_kg" validate:"omitempty,gt=0,max=100000"`
	Notes       *string    `json:"notes" validate:"omitempty,max=2000"`
}

// UpdateElementRequest only touches the fields that are set. Placement and
// geometry are frozen once the element is cast.
type UpdateElementRequest struct {
	Name       *string    `json:"name" validate:"omitempty,min=1,max=255"`
	BuildingID *uuid.UUID `json:"building_id" validate:"omitempty"`
	Priority   *int       `json:"priority" validate:"omitempty,min=0"`
	Floor      *int       `json:"floor" validate:"omitempty,min=-10,max=200"`
	LengthMM   *int       `json:"length_mm" validate:"omitempty,min=1,max=50000"`
	WidthMM    *int       `json:"width_mm" validate:"omitempty,min=1,max=50000"`
	HeightMM   *int       `json:"height_mm" validate:"omitempty,min=1,max=50000"`
	WeightKG   *float64   `json:"weight_kg" validate:"omitempty,gt=0,max=100000"`
	Notes      *string    `json:"notes" validate:"omitempty,max=2000"`
}

func (r *UpdateElementRequest) touchesProduction() bool {
	return r.Name != nil || r.BuildingID != nil || r.Floor != nil ||
		r.LengthMM != nil || r.WidthMM != nil || r.HeightMM != nil || r.WeightKG != nil
}

type TransitionRequest struct {
	Status string  `json:"status" validate:"required,oneof=planned rebar cast curing ready loaded delivered"`
	Notes  *string `json:"notes" validate:"omitempty,max=2000"`
}

type ElementFilterRequest struct {
	ProjectID *uuid.UUID
	Status    *string `validate:"omitempty,oneof=planned rebar cast curing ready loaded delivered"`
	BatchID   *uuid.UUID
}

// Response DTOs
type ElementResponse struct {
	ID          uuid.UUID  `json:"id"`
	ProjectID   uuid.UUID  `json:"project_id"`
	BuildingID  *uuid.UUID `json:"building_id,omitempty"`
	BatchID     *uuid.UUID `json:"batch_id,omitempty"`
	Name        string     `json:"name"`
	ElementType string     `json:"element_type"`
	Status      string     `json:"status"`
	Priority    int        `json:"priority"`
	Floor       *int       `json:"floor,omitempty"`
	LengthMM    *int       `json:"length_mm,omitempty"`
	WidthMM     *int       `json:"width_mm,omitempty"`
	HeightMM    *int       `json:"height_mm,omitempty"`
	WeightKG    *float64   `json:"weight_kg,omitempty"`
	Notes       *string    `json:"notes,omitempty"`

	Milestones Milestones `json:"milestones"`

	AllowedTransitions []string `json:"allowed_transitions"`

	CreatedBy uuid.UUID `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Milestones struct {
	RebarAt     *time.Time `json:"rebar_at,omitempty"`
	CastAt      *time.Time `json:"cast_at,omitempty"`
	CuringAt    *time.Time `json:"curing_at,omitempty"`
	ReadyAt     *time.Time `json:"ready_at,omitempty"`
	LoadedAt    *time.Time `json:"loaded_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
}

func ToElementResponse(e *domainElement.Element) *ElementResponse {
	next := domainElement.Transitions.Next(e.Status)
	allowed := make([]string, len(next))
	for i, s := range next {
		allowed[i] = string(s)
	}

	return &ElementResponse{
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
		Milestones: Milestones{
			RebarAt:     e.RebarAt,
			CastAt:      e.CastAt,
			CuringAt:    e.CuringAt,
			ReadyAt:     e.ReadyAt,
			LoadedAt:    e.LoadedAt,
			DeliveredAt: e.DeliveredAt,
		},
		AllowedTransitions: allowed,
		CreatedBy:          e.CreatedBy,
		CreatedAt:          e.CreatedAt,
		UpdatedAt:          e.UpdatedAt,
	}
}

func ToElementResponses(elements []*domainElement.Element) []*ElementResponse {
	out := make([]*ElementResponse, len(elements))
	for i, e := range elements {
		out[i] = ToElementResponse(e)
	}
	return out
}
