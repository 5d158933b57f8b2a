package batch

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for batch persistence
type Repository interface {
	// Create returns ErrBatchNumberTaken when the number collides.
	Create(ctx context.Context, b *Batch) error
	GetByID(ctx context.Context, id uuid.UUID) (*Batch, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*Batch, error)

	// UpdateChecklist persists the checklist while the batch is still preparing.
	UpdateChecklist(ctx context.Context, id uuid.UUID, checklist []ChecklistItem) error

	// UpdateStatus moves the batch from -> to, returning ErrBatchStatusConflict
	// when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, fields map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error
}
