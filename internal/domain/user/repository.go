package user

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for user lookups
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, userID uuid.UUID) (*User, error)

	// ListRecipients returns active buyers of companyID plus every active admin.
	ListRecipients(ctx context.Context, companyID uuid.UUID) ([]*User, error)
}
