package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"precast-tracker/internal/config"
	"precast-tracker/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(middlewares ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middlewares...)
	r.Any("/", func(c *gin.Context) {
		id, _ := CurrentUserID(c)
		c.String(http.StatusOK, id.String())
	})
	return r
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "secret"}}
	r := newEngine(AuthMiddleware(cfg))
	id := uuid.New()
	token, err := utils.GenerateToken(id, "secret", "precast-tracker", time.Hour)
	assert.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
		{"lower case scheme", "bearer " + token, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := serve(r, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, id.String(), w.Body.String())
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	r := newEngine(RequestIDMiddleware())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	assert.Equal(t, "abc-123", serve(r, req).Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", 500))
	_, err := uuid.Parse(serve(r, req).Header().Get(RequestIDHeader))
	assert.NoError(t, err, "oversized ids are replaced")
}

func TestRateLimitByIP(t *testing.T) {
	r := newEngine(RateLimitMiddleware(NewRateLimiter("general", 0.001, 2)))

	codes := make([]int, 3)
	var last *httptest.ResponseRecorder
	for i := range codes {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Language", "is")
		last = serve(r, req)
		codes[i] = last.Code
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Contains(t, last.Body.String(), `"RATE_LIMITED"`)
	assert.Contains(t, last.Body.String(), "Of margar beiðnir")
}

func TestRateLimitByActor(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "secret"}}
	r := newEngine(AuthMiddleware(cfg), RateLimitMiddleware(NewRateLimiter("scan", 0.001, 1)))

	request := func(id uuid.UUID) int {
		token, err := utils.GenerateToken(id, "secret", "precast-tracker", time.Hour)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		return serve(r, req).Code
	}

	driver, other := uuid.New(), uuid.New()
	assert.Equal(t, http.StatusOK, request(driver))
	assert.Equal(t, http.StatusTooManyRequests, request(driver))
	assert.Equal(t, http.StatusOK, request(other), "same IP, different actor")
}

func TestRateLimitDisabled(t *testing.T) {
	assert.Nil(t, NewRateLimiter("off", 0, 10))

	r := newEngine(RateLimitMiddleware(NewRateLimiter("off", 0, 10)))
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	}
}

func TestRateLimiterForgetsIdleCallers(t *testing.T) {
	rl := NewRateLimiter("general", 0.001, 1)
	start := time.Now()

	assert.True(t, rl.Allow("ip:192.0.2.1", start))
	assert.False(t, rl.Allow("ip:192.0.2.1", start))

	later := start.Add(2 * limiterIdleTTL)
	assert.True(t, rl.Allow("ip:192.0.2.2", later))
	assert.Len(t, rl.buckets, 1, "idle bucket is swept")
}

func TestRequestSizeLimit(t *testing.T) {
	r := newEngine(RequestSizeLimitMiddleware(8))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789"))
	w := serve(r, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), `"PAYLOAD_TOO_LARGE"`)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123"))
	assert.Equal(t, http.StatusOK, serve(r, req).Code)
}

func TestRequestSizeLimitChunkedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestSizeLimitMiddleware(8))

	var readErr error
	r.POST("/", func(c *gin.Context) {
		_, readErr = io.ReadAll(c.Request.Body)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789"))
	req.ContentLength = -1
	serve(r, req)

	var tooLarge *http.MaxBytesError
	require.ErrorAs(t, readErr, &tooLarge)
	assert.Equal(t, int64(8), tooLarge.Limit)
}

func TestCORSWithoutOrigins(t *testing.T) {
	r := newEngine(CORSMiddleware(&config.CORSConfig{}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://site.example.is")
	w := serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
