package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

func newTestLimiter(t *testing.T, formatted string) *limiter.Limiter {
	t.Helper()
	rate, err := limiter.NewRateFromFormatted(formatted)
	require.NoError(t, err)
	return limiter.New(memory.NewStore(), rate)
}

func TestStructuredLoggingMiddleware_RequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	var seenID string
	var seenLogger *slog.Logger
	r := gin.New()
	r.Use(StructuredLoggingMiddleware(logger))
	r.GET("/ping", func(c *gin.Context) {
		seenID, _ = GetRequestIDFromCtx(c.Request.Context())
		seenLogger = GetLoggerFromCtx(c.Request.Context())
		assert.Same(t, seenLogger, GetLoggerFromContext(c))
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "req-123", seenID)
	assert.NotSame(t, slog.Default(), seenLogger)
	assert.Contains(t, buf.String(), `"request_id":"req-123"`)
	assert.Contains(t, buf.String(), "Request completed")

	// A missing header gets a generated ID
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.NotEqual(t, "req-123", w.Header().Get(RequestIDHeader))
}

func TestGetLoggerFromCtx_FallsBackToDefault(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Same(t, slog.Default(), GetLoggerFromCtx(req.Context()))

	_, ok := GetRequestIDFromCtx(req.Context())
	assert.False(t, ok)
}

func TestRateLimit_PerIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit(newTestLimiter(t, "2-M")))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for range 3 {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestAllowAccount(t *testing.T) {
	gin.SetMode(gin.TestMode)
	accountLimiter := newTestLimiter(t, "1-M")
	r := gin.New()
	r.POST("/act/:id", func(c *gin.Context) {
		if !AllowAccount(c, accountLimiter, c.Param("id")) {
			return
		}
		if c.Query("fail") != "" {
			c.Status(http.StatusBadRequest)
			return
		}
		RecordAccountAction(c, accountLimiter, c.Param("id"))
		c.Status(http.StatusOK)
	})

	serve := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, nil))
		return w
	}

	// Failed actions do not spend the quota
	assert.Equal(t, http.StatusBadRequest, serve("/act/a?fail=1").Code)
	assert.Equal(t, http.StatusBadRequest, serve("/act/a?fail=1").Code)

	assert.Equal(t, http.StatusOK, serve("/act/a").Code)
	limited := serve("/act/a")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Contains(t, limited.Body.String(), tooManyRequestsMessage)

	// Limits are tracked per account
	assert.Equal(t, http.StatusOK, serve("/act/b").Code)
}

func TestAllowAccount_NilLimiterAllows(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	assert.True(t, AllowAccount(c, nil, "a"))
	assert.NotPanics(t, func() { RecordAccountAction(c, nil, "a") })
	assert.False(t, c.IsAborted())
}
