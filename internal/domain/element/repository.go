package element

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StatusChange describes a guarded status write.
type StatusChange struct {
	ID      uuid.UUID
	From    Status
	To      Status
	Stamp   string // milestone column to set, empty for none
	Clear   string // milestone column to reset on reversal, empty for none
	At      time.Time
	Notes   *string
	ActorID uuid.UUID
}

// Repository defines the interface for element persistence
type Repository interface {
	Create(ctx context.Context, e *Element) error
	GetByID(ctx context.Context, id uuid.UUID) (*Element, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*Element, error)
	List(ctx context.Context, filter *Filter) ([]*Element, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error

	// UpdateStatus writes the change only if the row is still at change.From.
	// It returns ErrStatusConflict when the row moved underneath the caller.
	UpdateStatus(ctx context.Context, change StatusChange) error

	// AssignBatch sets batch_id on every element that is still unassigned and
	// in one of the given statuses; it returns the number of rows updated.
	AssignBatch(ctx context.Context, batchID uuid.UUID, ids []uuid.UUID, statuses []Status) (int64, error)
	ClearBatch(ctx context.Context, batchID uuid.UUID) error
	ListByBatch(ctx context.Context, batchID uuid.UUID) ([]*Element, error)
}

// Filter represents filtering options for listing elements
type Filter struct {
	ProjectID *uuid.UUID
	Status    *Status
	BatchID   *uuid.UUID
}
