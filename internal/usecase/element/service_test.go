package element

import (
	"context"
	"sync"
	"testing"

	domainElement "precast-tracker/internal/domain/element"
	domainNotification "precast-tracker/internal/domain/notification"
	"precast-tracker/internal/infrastructure/database/postgres"
	"precast-tracker/internal/testutil"
	"precast-tracker/internal/usecase/authz"
	appErrors "precast-tracker/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDispatcher struct {
	mu     sync.Mutex
	events []domainNotification.StatusChangedEvent
}

func (d *recordingDispatcher) Dispatch(event domainNotification.StatusChangedEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
}

func (d *recordingDispatcher) Events() []domainNotification.StatusChangedEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]domainNotification.StatusChangedEvent(nil), d.events...)
}

type env struct {
	db         *postgres.DB
	fx         *testutil.Fixtures
	svc        *Service
	elements   *postgres.ElementRepository
	dispatcher *recordingDispatcher
}

func newEnv(t *testing.T) *env {
	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)

	elements := postgres.NewElementRepository(db)
	deliveries := postgres.NewDeliveryRepository(db)
	gate := authz.NewGate(postgres.NewUserRepository(db), deliveries)
	dispatcher := &recordingDispatcher{}

	svc := NewService(elements, postgres.NewProjectRepository(db), deliveries, gate, dispatcher)
	return &env{db: db, fx: fx, svc: svc, elements: elements, dispatcher: dispatcher}
}

var allStatuses = []domainElement.Status{
	domainElement.StatusPlanned,
	domainElement.StatusRebar,
	domainElement.StatusCast,
	domainElement.StatusCuring,
	domainElement.StatusReady,
	domainElement.StatusLoaded,
	domainElement.StatusDelivered,
}

func TestTransitionGrid(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				el := testutil.Element(t, e.db, e.fx.Project.ID, from, e.fx.Manager.ID)

				updated, err := e.svc.Transition(ctx, el.ID, to, e.fx.Manager.ID, nil)

				stored, getErr := e.elements.GetByID(ctx, el.ID)
				require.NoError(t, getErr)

				if domainElement.Transitions.Allowed(from, to) && (from.Shipping() || to.Shipping()) {
					require.Error(t, err)
					assert.Equal(t, appErrors.KindInvalidState, appErrors.KindOf(err))
					assert.Equal(t, from, stored.Status, "shipping edges belong to deliveries")
					return
				}

				if domainElement.Transitions.Allowed(from, to) {
					require.NoError(t, err)
					assert.Equal(t, to, updated.Status)
					assert.Equal(t, to, stored.Status)
					return
				}

				require.Error(t, err)
				assert.Equal(t, appErrors.KindInvalidTransition, appErrors.KindOf(err))
				assert.Equal(t, from, stored.Status, "status must be unchanged")
			})
		}
	}
}

func TestTransitionMilestones(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	actor := e.fx.Manager.ID

	el := testutil.Element(t, e.db, e.fx.Project.ID, domainElement.StatusPlanned, actor)
	assert.Nil(t, el.RebarAt)

	rebar, err := e.svc.Transition(ctx, el.ID, domainElement.StatusRebar, actor, nil)
	require.NoError(t, err)
	require.NotNil(t, rebar.RebarAt)
	firstRebar := *rebar.RebarAt

	cast, err := e.svc.Transition(ctx, el.ID, domainElement.StatusCast, actor, nil)
	require.NoError(t, err)
	require.NotNil(t, cast.CastAt)
	assert.False(t, cast.CastAt.Before(*cast.RebarAt), "milestones are non-decreasing")

	t.Run("reversal clears the milestone being left", func(t *testing.T) {
		back, err := e.svc.Transition(ctx, el.ID, domainElement.StatusRebar, actor, nil)
		require.NoError(t, err)
		assert.Nil(t, back.CastAt)
		require.NotNil(t, back.RebarAt)
		assert.True(t, back.RebarAt.Equal(firstRebar), "earlier milestone is kept")
	})

	t.Run("forward again stamps afresh", func(t *testing.T) {
		again, err := e.svc.Transition(ctx, el.ID, domainElement.StatusCast, actor, nil)
		require.NoError(t, err)
		assert.NotNil(t, again.CastAt)
	})
}

func TestTransitionPersistsNotes(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	el := testutil.Element(t, e.db, e.fx.Project.ID, domainElement.StatusCuring, e.fx.Manager.ID)
	notes := "  cured 7 days  "

	updated, err := e.svc.Transition(ctx, el.ID, domainElement.StatusReady, e.fx.Manager.ID, &notes)
	require.NoError(t, err)
	require.NotNil(t, updated.Notes)
	assert.Equal(t, "cured 7 days", *updated.Notes)
}

func TestTransitionErrors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	el := testutil.Element(t, e.db, e.fx.Project.ID, domainElement.StatusPlanned, e.fx.Manager.ID)

	tests := []struct {
		name     string
		id       uuid.UUID
		actor    uuid.UUID
		wantKind appErrors.Kind
	}{
		{"missing element", uuid.New(), e.fx.Manager.ID, appErrors.KindNotFound},
		{"driver", el.ID, e.fx.Driver.ID, appErrors.KindForbidden},
		{"buyer", el.ID, e.fx.Buyer.ID, appErrors.KindForbidden},
		{"unknown actor", el.ID, uuid.New(), appErrors.KindForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.Transition(ctx, tt.id, domainElement.StatusRebar, tt.actor, nil)
			assert.Equal(t, tt.wantKind, appErrors.KindOf(err))
		})
	}

	t.Run("admin is allowed", func(t *testing.T) {
		_, err := e.svc.Transition(ctx, el.ID, domainElement.StatusRebar, e.fx.Admin.ID, nil)
		assert.NoError(t, err)
	})

	assert.Len(t, e.dispatcher.Events(), 1, "only the successful transition notifies")
}

func TestTransitionDispatchesEvent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	el := testutil.Element(t, e.db, e.fx.Project.ID, domainElement.StatusReady, e.fx.Manager.ID)

	_, err := e.svc.Transition(ctx, el.ID, domainElement.StatusCuring, e.fx.Manager.ID, nil)
	require.NoError(t, err)

	events := e.dispatcher.Events()
	require.Len(t, events, 1)
	assert.Equal(t, el.ID, events[0].ElementID)
	assert.Equal(t, el.Name, events[0].ElementName)
	assert.Equal(t, e.fx.Project.ID, events[0].ProjectID)
	assert.Equal(t, e.fx.CompanyID, events[0].CompanyID)
	assert.Equal(t, "ready", events[0].OldStatus)
	assert.Equal(t, "curing", events[0].NewStatus)
}

func TestCreateElement(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	length := 6000
	weight := 4200.5

	t.Run("valid", func(t *testing.T) {
		created, err := e.svc.CreateElement(ctx, e.fx.Manager.ID, &CreateElementRequest{
			ProjectID:   e.fx.Project.ID,
			Name:        "V-101",
			ElementType: "wall",
			Priority:    2,
			LengthMM:    &length,
			WeightKG:    &weight,
		})
		require.NoError(t, err)
		assert.Equal(t, domainElement.StatusPlanned, created.Status)

		stored, err := e.elements.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "V-101", stored.Name)
		assert.Equal(t, 6000, *stored.LengthMM)
	})

	tooLong := 50001
	tooHeavy := 100001.0
	zero := 0

	tests := []struct {
		name     string
		actor    uuid.UUID
		req      *CreateElementRequest
		wantKind appErrors.Kind
	}{
		{
			name:     "driver cannot create",
			actor:    e.fx.Driver.ID,
			req:      &CreateElementRequest{ProjectID: e.fx.Project.ID, Name: "X", ElementType: "wall"},
			wantKind: appErrors.KindForbidden,
		},
		{
			name:     "unknown type",
			actor:    e.fx.Manager.ID,
			req:      &CreateElementRequest{ProjectID: e.fx.Project.ID, Name: "X", ElementType: "pyramid"},
			wantKind: appErrors.KindValidation,
		},
		{
			name:     "dimension above limit",
			actor:    e.fx.Manager.ID,
			req:      &CreateElementRequest{ProjectID: e.fx.Project.ID, Name: "X", ElementType: "wall", LengthMM: &tooLong},
			wantKind: appErrors.KindValidation,
		},
		{
			name:     "zero dimension",
			actor:    e.fx.Manager.ID,
			req:      &CreateElementRequest{ProjectID: e.fx.Project.ID, Name: "X", ElementType: "wall", WidthMM: &zero},
			wantKind: appErrors.KindValidation,
		},
		{
			name:     "weight above limit",
			actor:    e.fx.Manager.ID,
			req:      &CreateElementRequest{ProjectID: e.fx.Project.ID, Name: "X", ElementType: "beam", WeightKG: &tooHeavy},
			wantKind: appErrors.KindValidation,
		},
		{
			name:     "negative priority",
			actor:    e.fx.Manager.ID,
			req:      &CreateElementRequest{ProjectID: e.fx.Project.ID, Name: "X", ElementType: "wall", Priority: -1},
			wantKind: appErrors.KindValidation,
		},
		{
			name:     "unknown project",
			actor:    e.fx.Manager.ID,
			req:      &CreateElementRequest{ProjectID: uuid.New(), Name: "X", ElementType: "wall"},
			wantKind: appErrors.KindNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.CreateElement(ctx, tt.actor, tt.req)
			assert.Equal(t, tt.wantKind, appErrors.KindOf(err))
		})
	}
}

func TestUpdateElement(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	t.Run("geometry editable while in production", func(t *testing.T) {
		el := testutil.Element(t, e.db, e.fx.Project.ID, domainElement.StatusRebar, e.fx.Manager.ID)
		height := 2800

		updated, err := e.svc.UpdateElement(ctx, el.ID, e.fx.Manager.ID, &UpdateElementRequest{HeightMM: &height})
		require.NoError(t, err)
		assert.Equal(t, 2800, *updated.HeightMM)
		assert.Equal(t, domainElement.StatusRebar, updated.Status)
	})

	t.Run("geometry frozen after cast", func(t *testing.T) {
		el := testutil.Element(t, e.db, e.fx.Project.ID, domainElement.StatusCast, e.fx.Manager.ID)
		height := 2800

		_, err := e.svc.UpdateElement(ctx, el.ID, e.fx.Manager.ID, &UpdateElementRequest{HeightMM: &height})
		assert.Equal(t, appErrors.KindInvalidState, appErrors.KindOf(err))
	})

	t.Run("priority editable after cast", func(t *testing.T) {
		el := testutil.Element(t, e.db, e.fx.Project.ID, domainElement.StatusReady, e.fx.Manager.ID)
		priority := 9

		updated, err := e.svc.UpdateElement(ctx, el.ID, e.fx.Manager.ID, &UpdateElementRequest{Priority: &priority})
		require.NoError(t, err)
		assert.Equal(t, 9, updated.Priority)
	})

	t.Run("empty update", func(t *testing.T) {
		el := testutil.Element(t, e.db, e.fx.Project.ID, domainElement.StatusPlanned, e.fx.Manager.ID)

		_, err := e.svc.UpdateElement(ctx, el.ID, e.fx.Manager.ID, &UpdateElementRequest{})
		assert.Equal(t, appErrors.KindValidation, appErrors.KindOf(err))
	})
}

func TestDeleteElement(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	t.Run("planned element", func(t *testing.T) {
		el := testutil.Element(t, e.db, e.fx.Project.ID, domainElement.StatusPlanned, e.fx.Manager.ID)

		require.NoError(t, e.svc.DeleteElement(ctx, el.ID, e.fx.Manager.ID))

		_, err := e.svc.GetElement(ctx, el.ID)
		assert.Equal(t, appErrors.KindNotFound, appErrors.KindOf(err))
	})

	t.Run("element in production", func(t *testing.T) {
		el := testutil.Element(t, e.db, e.fx.Project.ID, domainElement.StatusCast, e.fx.Manager.ID)

		err := e.svc.DeleteElement(ctx, el.ID, e.fx.Manager.ID)
		assert.Equal(t, appErrors.KindInvalidState, appErrors.KindOf(err))
	})

	t.Run("element in a batch", func(t *testing.T) {
		el := testutil.Element(t, e.db, e.fx.Project.ID, domainElement.StatusPlanned, e.fx.Manager.ID)
		n, err := e.elements.AssignBatch(ctx, uuid.New(), []uuid.UUID{el.ID}, []domainElement.Status{domainElement.StatusPlanned})
		require.NoError(t, err)
		require.EqualValues(t, 1, n)

		err = e.svc.DeleteElement(ctx, el.ID, e.fx.Manager.ID)
		assert.Equal(t, appErrors.KindInvalidState, appErrors.KindOf(err))
	})
}

func TestAllowedTransitions(t *testing.T) {
	e := newEnv(t)
	el := testutil.Element(t, e.db, e.fx.Project.ID, domainElement.StatusReady, e.fx.Manager.ID)

	next, err := e.svc.AllowedTransitions(context.Background(), el.ID)
	require.NoError(t, err)
	assert.Equal(t, []domainElement.Status{domainElement.StatusLoaded, domainElement.StatusCuring}, next)
}

func TestTransitionRefusesShippingEdges(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	tests := []struct {
		from domainElement.Status
		to   domainElement.Status
	}{
		{domainElement.StatusReady, domainElement.StatusLoaded},
		{domainElement.StatusLoaded, domainElement.StatusReady},
		{domainElement.StatusLoaded, domainElement.StatusDelivered},
		{domainElement.StatusDelivered, domainElement.StatusLoaded},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			el := testutil.Element(t, e.db, e.fx.Project.ID, tt.from, e.fx.Manager.ID)

			_, err := e.svc.Transition(ctx, el.ID, tt.to, e.fx.Admin.ID, nil)
			require.Error(t, err)
			assert.Equal(t, appErrors.KindInvalidState, appErrors.KindOf(err))

			stored, err := e.elements.GetByID(ctx, el.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.from, stored.Status)
		})
	}
	assert.Empty(t, e.dispatcher.Events())
}
