package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"precast-tracker/internal/config"
	domainElement "precast-tracker/internal/domain/element"
	"precast-tracker/internal/infrastructure/database/postgres"
	"precast-tracker/internal/notification"
	"precast-tracker/internal/testutil"
	"precast-tracker/internal/usecase/scan"
	"precast-tracker/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

type api struct {
	t      *testing.T
	router *gin.Engine
	db     *postgres.DB
	fx     *testutil.Fixtures
}

func newAPI(t *testing.T) *api {
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)

	cfg := &config.Config{
		Server:    config.ServerConfig{Environment: "test"},
		JWT:       config.JWTConfig{Secret: testSecret, Issuer: "precast-tracker"},
		RateLimit: config.RateLimitConfig{GeneralRPS: 1000, GeneralBurst: 1000},
		Scan:      config.ScanConfig{BaseURL: "https://precast.local/e"},
	}

	dispatcher := notification.NewDispatcher(postgres.NewUserRepository(db), postgres.NewNotificationRepository(db), nil, notification.Config{BufferSize: 64})
	dispatcher.Start()
	t.Cleanup(dispatcher.Stop)

	return &api{t: t, router: SetupRoutes(cfg, db, dispatcher), db: db, fx: fx}
}

func (a *api) do(method, path string, actor uuid.UUID, body any, headers ...string) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if actor != uuid.Nil {
		token, err := utils.GenerateToken(actor, testSecret, "precast-tracker", time.Hour)
		require.NoError(a.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") != "image/png" {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestHealth(t *testing.T) {
	a := newAPI(t)

	w, _ := a.do(http.MethodGet, "/health", uuid.Nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestNotificationMetricsAdminOnly(t *testing.T) {
	a := newAPI(t)

	w, _ := a.do(http.MethodGet, "/api/v1/admin/notifications/metrics", a.fx.Manager.ID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env := a.do(http.MethodGet, "/api/v1/admin/notifications/metrics", a.fx.Admin.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.Contains(t, w.Body.String(), "events_received")
}

func TestAuthentication(t *testing.T) {
	a := newAPI(t)

	w, env := a.do(http.MethodGet, "/api/v1/elements", uuid.Nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	w, _ = a.do(http.MethodGet, "/api/v1/elements", uuid.Nil, nil, "Authorization", "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env = a.do(http.MethodGet, "/api/v1/elements", uuid.New(), nil)
	assert.Equal(t, http.StatusForbidden, w.Code, "a valid token for an unknown user grants nothing")
	assert.Equal(t, "FORBIDDEN", env.Error.Code)
}

func TestLocalizedErrors(t *testing.T) {
	a := newAPI(t)
	body := map[string]any{"project_id": a.fx.Project.ID, "name": "V-101", "element_type": "wall"}

	w, env := a.do(http.MethodPost, "/api/v1/elements", a.fx.Buyer.ID, body, "Accept-Language", "is-IS,is;q=0.9")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Þú hefur ekki heimild til þessarar aðgerðar.", env.Error.Message)

	_, env = a.do(http.MethodPost, "/api/v1/elements", a.fx.Buyer.ID, body)
	assert.Equal(t, "You are not allowed to perform this action.", env.Error.Message)
}

func TestElementEndpoints(t *testing.T) {
	a := newAPI(t)
	manager := a.fx.Manager.ID

	w, env := a.do(http.MethodPost, "/api/v1/elements", manager, map[string]any{
		"project_id":   a.fx.Project.ID,
		"name":         "V-101",
		"element_type": "wall",
		"length_mm":    6000,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[struct {
		ID     uuid.UUID `json:"id"`
		Status string    `json:"status"`
	}](t, env.Data)
	assert.Equal(t, "planned", created.Status)

	w, env = a.do(http.MethodPost, "/api/v1/elements", manager, map[string]any{
		"project_id":   a.fx.Project.ID,
		"name":         "V-102",
		"element_type": "wall",
		"length_mm":    60000,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	path := "/api/v1/elements/" + created.ID.String()

	w, env = a.do(http.MethodPost, path+"/transition", manager, map[string]any{"status": "ready"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_TRANSITION", env.Error.Code)
	assert.Equal(t, []any{"rebar"}, env.Error.Details["allowed"])

	w, env = a.do(http.MethodPost, path+"/transition", manager, map[string]any{"status": "rebar", "notes": "cage tied"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "rebar", decode[struct {
		Status string `json:"status"`
	}](t, env.Data).Status)

	w, _ = a.do(http.MethodPost, path+"/transition", a.fx.Driver.ID, map[string]any{"status": "cast"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = a.do(http.MethodGet, path, a.fx.Buyer.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = a.do(http.MethodGet, "/api/v1/elements?project_id="+a.fx.Project.ID.String()+"&status=rebar", a.fx.Buyer.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, env.Data), 1)

	w, _ = a.do(http.MethodGet, "/api/v1/elements?project_id=nope", a.fx.Buyer.ID, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = a.do(http.MethodGet, "/api/v1/elements/"+uuid.NewString(), a.fx.Buyer.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = a.do(http.MethodGet, path+"/qr?size=128", a.fx.Buyer.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))
}

func TestDeliveryEndpoints(t *testing.T) {
	a := newAPI(t)
	driver := a.fx.Driver.ID
	el := testutil.Element(t, a.db, a.fx.Project.ID, domainElement.StatusReady, a.fx.Manager.ID)

	w, env := a.do(http.MethodPost, "/api/v1/deliveries", driver, map[string]any{
		"project_id":         a.fx.Project.ID,
		"truck_registration": "ab 123",
		"planned_date":       "2026-11-02T08:00:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode[struct {
		ID uuid.UUID `json:"id"`
	}](t, env.Data).ID
	path := "/api/v1/deliveries/" + id.String()

	w, _ = a.do(http.MethodPost, path+"/depart", driver, nil)
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)

	w, env = a.do(http.MethodGet, "/api/v1/scan?token="+scan.LabelURL("https://precast.local/e", el.ID), driver, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(env.Data), a.fx.Project.Name)

	w, _ = a.do(http.MethodGet, "/api/v1/scan/not-a-token", driver, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = a.do(http.MethodPost, path+"/items", driver, map[string]any{"scan_token": scan.LabelURL("https://precast.local/e", el.ID)})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, env = a.do(http.MethodPost, path+"/items", driver, map[string]any{"element_id": el.ID})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DUPLICATE_ITEM", env.Error.Code)

	w, _ = a.do(http.MethodPost, path+"/depart", a.fx.OtherDriver.ID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	for _, step := range []string{"/depart", "/arrive"} {
		w, _ = a.do(http.MethodPost, path+step, driver, nil)
		require.Equal(t, http.StatusOK, w.Code, step)
	}

	w, env = a.do(http.MethodPost, path+"/complete", driver, map[string]any{"received_by_name": "Jón Jónsson"})
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
	assert.Equal(t, "ITEMS_PENDING", env.Error.Code)
	assert.EqualValues(t, 1, env.Error.Details["pending"])

	w, _ = a.do(http.MethodPost, path+"/items/"+el.ID.String()+"/confirm", driver, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env = a.do(http.MethodPost, path+"/complete", driver, map[string]any{"received_by_name": "Jón Jónsson"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	done := decode[struct {
		Status         string `json:"status"`
		ReceivedByName string `json:"received_by_name"`
		PendingItems   int    `json:"pending_items"`
	}](t, env.Data)
	assert.Equal(t, "completed", done.Status)
	assert.Equal(t, "Jón Jónsson", done.ReceivedByName)
	assert.Zero(t, done.PendingItems)

	w, env = a.do(http.MethodGet, "/api/v1/scan/"+el.ID.String(), driver, nil)
	assert.Equal(t, http.StatusGone, w.Code)
	assert.Contains(t, env.Error.Details, "delivered_at")

	w, _ = a.do(http.MethodGet, "/api/v1/deliveries", a.fx.Buyer.ID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestNotificationEndpoints(t *testing.T) {
	a := newAPI(t)
	el := testutil.Element(t, a.db, a.fx.Project.ID, domainElement.StatusPlanned, a.fx.Manager.ID)

	w, _ := a.do(http.MethodPost, "/api/v1/elements/"+el.ID.String()+"/transition", a.fx.Manager.ID, map[string]any{"status": "rebar"})
	require.Equal(t, http.StatusOK, w.Code)

	var rows []struct {
		ID    uuid.UUID `json:"id"`
		Title string    `json:"title"`
		Read  bool      `json:"read"`
	}
	// Fan-out is asynchronous.
	require.Eventually(t, func() bool {
		_, env := a.do(http.MethodGet, "/api/v1/notifications", a.fx.Buyer.ID, nil)
		return json.Unmarshal(env.Data, &rows) == nil && len(rows) == 1
	}, 2*time.Second, 20*time.Millisecond)
	assert.False(t, rows[0].Read)

	w, _ = a.do(http.MethodPost, "/api/v1/notifications/"+rows[0].ID.String()+"/read", a.fx.OtherBuyer.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = a.do(http.MethodPost, "/api/v1/notifications/"+rows[0].ID.String()+"/read", a.fx.Buyer.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOversizedBodies(t *testing.T) {
	a := newAPI(t)
	huge := map[string]any{"truck_registration": strings.Repeat("A", 100<<10)}

	w, env := a.do(http.MethodPost, "/api/v1/deliveries", a.fx.Driver.ID, huge)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "PAYLOAD_TOO_LARGE", env.Error.Code)

	t.Run("without content length", func(t *testing.T) {
		raw, err := json.Marshal(huge)
		require.NoError(t, err)
		token, err := utils.GenerateToken(a.fx.Driver.ID, testSecret, "precast-tracker", time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/deliveries", bytes.NewReader(raw))
		req.ContentLength = -1
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)

		w := httptest.NewRecorder()
		a.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), "PAYLOAD_TOO_LARGE")
	})
}
