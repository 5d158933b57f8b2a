package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"precast-tracker/internal/domain/project"
	"precast-tracker/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProjectRepository struct {
	db *DB
}

func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(ctx context.Context, p *project.Project) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()

	dbModel := &models.ProjectModel{
		ID:        p.ID,
		CompanyID: p.CompanyID,
		Name:      p.Name,
		Address:   p.Address,
		CreatedAt: p.CreatedAt,
	}
	if err := r.db.DB.WithContext(ctx).Create(dbModel).Error; err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*project.Project, error) {
	var dbModel models.ProjectModel
	err := r.db.DB.WithContext(ctx).Where("id = ?", id).First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, project.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return &project.Project{
		ID:        dbModel.ID,
		CompanyID: dbModel.CompanyID,
		Name:      dbModel.Name,
		Address:   dbModel.Address,
		CreatedAt: dbModel.CreatedAt,
	}, nil
}
