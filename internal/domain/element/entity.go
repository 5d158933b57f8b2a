package element

import (
	"time"

	"precast-tracker/internal/lifecycle"

	"github.com/google/uuid"
)

// Status represents the production status of an element
type Status string

const (
	StatusPlanned   Status = "planned"   // Registered, nothing produced yet
	StatusRebar     Status = "rebar"     // Reinforcement being tied
	StatusCast      Status = "cast"      // Concrete poured
	StatusCuring    Status = "curing"    // Hardening
	StatusReady     Status = "ready"     // In the yard, can be loaded
	StatusLoaded    Status = "loaded"    // On a truck
	StatusDelivered Status = "delivered" // Received on site
)

// Transitions is the element state machine. Every edge except the forward
// one is a reversal to the previous production step.
var Transitions = lifecycle.Table[Status]{
	StatusPlanned:   {StatusRebar},
	StatusRebar:     {StatusCast, StatusPlanned},
	StatusCast:      {StatusCuring, StatusRebar},
	StatusCuring:    {StatusReady, StatusCast},
	StatusReady:     {StatusLoaded, StatusCuring},
	StatusLoaded:    {StatusDelivered, StatusReady},
	StatusDelivered: {StatusLoaded},
}

var order = map[Status]int{
	StatusPlanned:   0,
	StatusRebar:     1,
	StatusCast:      2,
	StatusCuring:    3,
	StatusReady:     4,
	StatusLoaded:    5,
	StatusDelivered: 6,
}

// Valid reports whether s is one of the seven statuses.
func (s Status) Valid() bool {
	_, ok := order[s]
	return ok
}

// IsReversal reports whether moving from s to next goes backwards along the
// production path.
func (s Status) IsReversal(next Status) bool {
	return order[next] < order[s]
}

// Shipping reports whether s is only reachable through a delivery manifest.
func (s Status) Shipping() bool {
	return s == StatusLoaded || s == StatusDelivered
}

// Type is the kind of precast piece.
type Type string

const (
	TypeWall      Type = "wall"
	TypeFiligran  Type = "filigran"
	TypeStaircase Type = "staircase"
	TypeBalcony   Type = "balcony"
	TypeCeiling   Type = "ceiling"
	TypeColumn    Type = "column"
	TypeBeam      Type = "beam"
	TypeOther     Type = "other"
)

const (
	MaxDimensionMM = 50000
	MaxWeightKG    = 100000
)

// Element is a single physical precast piece
type Element struct {
	ID         uuid.UUID
	ProjectID  uuid.UUID
	BuildingID *uuid.UUID
	BatchID    *uuid.UUID

	Name        string
	ElementType Type
	Status      Status
	Priority    int
	Floor       *int

	LengthMM *int
	WidthMM  *int
	HeightMM *int
	WeightKG *float64

	Notes *string

	// Milestones
	RebarAt     *time.Time
	CastAt      *time.Time
	CuringAt    *time.Time
	ReadyAt     *time.Time
	LoadedAt    *time.Time
	DeliveredAt *time.Time

	CreatedBy uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Milestone returns the timestamp recorded for status, nil for planned or
// when it has not been reached.
func (e *Element) Milestone(status Status) *time.Time {
	switch status {
	case StatusRebar:
		return e.RebarAt
	case StatusCast:
		return e.CastAt
	case StatusCuring:
		return e.CuringAt
	case StatusReady:
		return e.ReadyAt
	case StatusLoaded:
		return e.LoadedAt
	case StatusDelivered:
		return e.DeliveredAt
	}
	return nil
}

// MilestoneColumn names the persisted timestamp column for status.
func MilestoneColumn(status Status) string {
	if status == StatusPlanned || !status.Valid() {
		return ""
	}
	return string(status) + "_at"
}

// InProduction reports whether geometry and placement fields may still change.
func (e *Element) InProduction() bool {
	return e.Status == StatusPlanned || e.Status == StatusRebar
}
