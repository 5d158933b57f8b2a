// Package testutil opens throwaway sqlite stores migrated with the
// production models and seeds the principals most tests need.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"precast-tracker/internal/domain/element"
	"precast-tracker/internal/domain/project"
	"precast-tracker/internal/domain/user"
	"precast-tracker/internal/infrastructure/database/postgres"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	gormLogger "gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory database private to t.
func NewDB(t *testing.T) *postgres.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString()[:8])

	db, err := postgres.Open(sqlite.Open(dsn), gormLogger.Silent)
	require.NoError(t, err)

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// Fixtures holds one company with a project, a second company's project,
// and a user for each role.
type Fixtures struct {
	CompanyID    uuid.UUID
	Project      *project.Project
	OtherProject *project.Project

	Admin       *user.User
	Manager     *user.User
	Driver      *user.User
	OtherDriver *user.User
	Buyer       *user.User
	OtherBuyer  *user.User
}

func Seed(t *testing.T, db *postgres.DB) *Fixtures {
	t.Helper()
	ctx := context.Background()

	companyID := uuid.New()
	otherCompanyID := uuid.New()

	projects := postgres.NewProjectRepository(db)
	f := &Fixtures{
		CompanyID:    companyID,
		Project:      &project.Project{CompanyID: companyID, Name: "Hlíðarendi B4", Address: "Hlíðarendi 4, Reykjavík"},
		OtherProject: &project.Project{CompanyID: otherCompanyID, Name: "Urriðaholt", Address: "Urriðaholtsstræti 10"},
	}
	require.NoError(t, projects.Create(ctx, f.Project))
	require.NoError(t, projects.Create(ctx, f.OtherProject))

	users := postgres.NewUserRepository(db)
	newUser := func(email string, role user.Role, company *uuid.UUID) *user.User {
		u := &user.User{
			CompanyID: company,
			Email:     email,
			FullName:  strings.Split(email, "@")[0],
			Role:      role,
			IsActive:  true,
		}
		require.NoError(t, users.Create(ctx, u))
		return u
	}

	f.Admin = newUser("admin@factory.is", user.RoleAdmin, nil)
	f.Manager = newUser("manager@factory.is", user.RoleFactoryManager, nil)
	f.Driver = newUser("driver@factory.is", user.RoleDriver, nil)
	f.OtherDriver = newUser("driver2@factory.is", user.RoleDriver, nil)
	f.Buyer = newUser("buyer@builder.is", user.RoleBuyer, &companyID)
	f.OtherBuyer = newUser("buyer@other.is", user.RoleBuyer, &otherCompanyID)

	return f
}

// Element inserts an element directly at status, bypassing the lifecycle.
// Milestones up to status are stamped so the row looks naturally produced.
func Element(t *testing.T, db *postgres.DB, projectID uuid.UUID, status element.Status, createdBy uuid.UUID) *element.Element {
	t.Helper()

	now := time.Now().Add(-time.Hour)
	e := &element.Element{
		ProjectID:   projectID,
		Name:        "V-" + uuid.NewString()[:6],
		ElementType: element.TypeWall,
		Status:      status,
		CreatedBy:   createdBy,
	}

	path := []element.Status{
		element.StatusRebar, element.StatusCast, element.StatusCuring,
		element.StatusReady, element.StatusLoaded, element.StatusDelivered,
	}
	for _, s := range path {
		if s == status || status.IsReversal(s) {
			stamp := now
			setMilestone(e, s, &stamp)
		}
	}

	require.NoError(t, postgres.NewElementRepository(db).Create(context.Background(), e))
	return e
}

func setMilestone(e *element.Element, s element.Status, at *time.Time) {
	switch s {
	case element.StatusRebar:
		e.RebarAt = at
	case element.StatusCast:
		e.CastAt = at
	case element.StatusCuring:
		e.CuringAt = at
	case element.StatusReady:
		e.ReadyAt = at
	case element.StatusLoaded:
		e.LoadedAt = at
	case element.StatusDelivered:
		e.DeliveredAt = at
	}
}
