package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StatusChangedEvent is emitted once per successful element transition.
type StatusChangedEvent struct {
	ElementID   uuid.UUID `json:"element_id"`
	ElementName string    `json:"element_name"`
	ProjectID   uuid.UUID `json:"project_id"`
	CompanyID   uuid.UUID `json:"company_id"`
	OldStatus   string    `json:"old_status"`
	NewStatus   string    `json:"new_status"`
	ActorID     uuid.UUID `json:"actor_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Notification is one inbox row for a recipient.
type Notification struct {
	ID          uuid.UUID
	RecipientID uuid.UUID
	ElementID   uuid.UUID
	ProjectID   uuid.UUID
	Title       string
	Body        string
	ReadAt      *time.Time
	CreatedAt   time.Time
}

// Repository persists the inbox
type Repository interface {
	CreateMany(ctx context.Context, notifications []*Notification) error
	ListByRecipient(ctx context.Context, recipientID uuid.UUID, limit int) ([]*Notification, error)
	MarkRead(ctx context.Context, id, recipientID uuid.UUID, at time.Time) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
