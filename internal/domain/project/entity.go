package project

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrProjectNotFound = errors.New("project not found")

// Project is the construction site elements are produced for.
type Project struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
	Name      string
	Address   string
	CreatedAt time.Time
}

// Repository defines project lookups
type Repository interface {
	Create(ctx context.Context, p *Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*Project, error)
}
