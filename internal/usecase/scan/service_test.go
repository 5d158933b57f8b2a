package scan

import (
	"bytes"
	"context"
	"image/png"
	"testing"

	domainElement "precast-tracker/internal/domain/element"
	"precast-tracker/internal/infrastructure/database/postgres"
	"precast-tracker/internal/testutil"
	"precast-tracker/internal/usecase/authz"
	appErrors "precast-tracker/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseURL = "https://precast.local/e"

func newService(t *testing.T) (*Service, *postgres.DB, *testutil.Fixtures) {
	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)

	gate := authz.NewGate(postgres.NewUserRepository(db), postgres.NewDeliveryRepository(db))
	svc := NewService(postgres.NewElementRepository(db), postgres.NewProjectRepository(db), gate, baseURL)
	return svc, db, fx
}

func TestResolve(t *testing.T) {
	svc, db, fx := newService(t)
	ctx := context.Background()

	ready := testutil.Element(t, db, fx.Project.ID, domainElement.StatusReady, fx.Manager.ID)
	loaded := testutil.Element(t, db, fx.Project.ID, domainElement.StatusLoaded, fx.Manager.ID)
	curing := testutil.Element(t, db, fx.Project.ID, domainElement.StatusCuring, fx.Manager.ID)
	delivered := testutil.Element(t, db, fx.Project.ID, domainElement.StatusDelivered, fx.Manager.ID)

	t.Run("ready element by url", func(t *testing.T) {
		res, err := svc.Resolve(ctx, LabelURL(baseURL, ready.ID)+"?src=app", fx.Driver.ID)
		require.NoError(t, err)
		assert.Equal(t, ready.ID, res.Element.ID)
		assert.Equal(t, fx.Project.ID, res.Project.ID)
	})

	t.Run("loaded element by bare id", func(t *testing.T) {
		res, err := svc.Resolve(ctx, loaded.ID.String(), fx.Admin.ID)
		require.NoError(t, err)
		assert.Equal(t, domainElement.StatusLoaded, res.Element.Status)
	})

	t.Run("delivered element reports the date", func(t *testing.T) {
		_, err := svc.Resolve(ctx, delivered.ID.String(), fx.Driver.ID)

		var appErr *appErrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, appErrors.KindAlreadyDelivered, appErr.Kind())
		assert.Contains(t, appErr.Details, "delivered_at")
	})

	tests := []struct {
		name     string
		token    string
		actor    uuid.UUID
		wantKind appErrors.Kind
	}{
		{"malformed", "not-a-label", fx.Driver.ID, appErrors.KindMalformedToken},
		{"malformed before role check", "not-a-label", fx.Buyer.ID, appErrors.KindMalformedToken},
		{"factory manager", ready.ID.String(), fx.Manager.ID, appErrors.KindForbidden},
		{"buyer", ready.ID.String(), fx.Buyer.ID, appErrors.KindForbidden},
		{"unknown element", uuid.New().String(), fx.Driver.ID, appErrors.KindNotFound},
		{"still curing", curing.ID.String(), fx.Driver.ID, appErrors.KindNotEligible},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Resolve(ctx, tt.token, tt.actor)
			assert.Equal(t, tt.wantKind, appErrors.KindOf(err))
		})
	}
}

func TestLabel(t *testing.T) {
	svc, db, fx := newService(t)
	ctx := context.Background()

	el := testutil.Element(t, db, fx.Project.ID, domainElement.StatusPlanned, fx.Manager.ID)

	data, err := svc.Label(ctx, el.ID, 256)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())

	_, err = svc.Label(ctx, uuid.New(), 256)
	assert.Equal(t, appErrors.KindNotFound, appErrors.KindOf(err))
}
