package authz

import (
	"context"
	"testing"
	"time"

	domainDelivery "precast-tracker/internal/domain/delivery"
	domainUser "precast-tracker/internal/domain/user"
	"precast-tracker/internal/infrastructure/database/postgres"
	"precast-tracker/internal/testutil"
	appErrors "precast-tracker/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)
	ctx := context.Background()

	users := postgres.NewUserRepository(db)
	deliveries := postgres.NewDeliveryRepository(db)
	gate := NewGate(users, deliveries)

	d := &domainDelivery.Delivery{
		ProjectID:         fx.Project.ID,
		DriverID:          fx.Driver.ID,
		TruckRegistration: "AB 123",
		PlannedDate:       time.Now(),
	}
	require.NoError(t, deliveries.Create(ctx, d))

	t.Run("role is read from storage", func(t *testing.T) {
		role, err := gate.RoleOf(ctx, fx.Manager.ID)
		require.NoError(t, err)
		assert.Equal(t, domainUser.RoleFactoryManager, role)
	})

	t.Run("unknown principal is forbidden", func(t *testing.T) {
		_, err := gate.RoleOf(ctx, uuid.New())
		assert.True(t, appErrors.Is(err, appErrors.KindForbidden))
	})

	t.Run("inactive principal is forbidden", func(t *testing.T) {
		inactive := &domainUser.User{Email: "gone@factory.is", FullName: "gone", Role: domainUser.RoleAdmin}
		require.NoError(t, users.Create(ctx, inactive))

		_, err := gate.RoleOf(ctx, inactive.ID)
		assert.True(t, appErrors.Is(err, appErrors.KindForbidden))
	})

	t.Run("require checks membership", func(t *testing.T) {
		_, err := gate.Require(ctx, fx.Manager.ID, FactoryRoles...)
		assert.NoError(t, err)

		_, err = gate.Require(ctx, fx.Driver.ID, FactoryRoles...)
		assert.True(t, appErrors.Is(err, appErrors.KindForbidden))
	})

	t.Run("delivery ownership", func(t *testing.T) {
		owner, err := gate.IsDeliveryOwner(ctx, fx.Driver.ID, d.ID)
		require.NoError(t, err)
		assert.True(t, owner)

		owner, err = gate.IsDeliveryOwner(ctx, fx.OtherDriver.ID, d.ID)
		require.NoError(t, err)
		assert.False(t, owner)

		_, err = gate.IsDeliveryOwner(ctx, fx.Driver.ID, uuid.New())
		assert.True(t, appErrors.Is(err, appErrors.KindNotFound))
	})

	t.Run("delivery actors", func(t *testing.T) {
		tests := []struct {
			name    string
			actor   uuid.UUID
			allowed bool
		}{
			{"admin", fx.Admin.ID, true},
			{"owning driver", fx.Driver.ID, true},
			{"other driver", fx.OtherDriver.ID, false},
			{"factory manager", fx.Manager.ID, false},
			{"buyer", fx.Buyer.ID, false},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := gate.RequireDeliveryActor(ctx, tt.actor, d)
				if tt.allowed {
					assert.NoError(t, err)
				} else {
					assert.True(t, appErrors.Is(err, appErrors.KindForbidden))
				}
			})
		}
	})
}
