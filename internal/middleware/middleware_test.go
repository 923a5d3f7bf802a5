package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func invoke(t *testing.T, mw echo.MiddlewareFunc, req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	return c, rec
}

func TestRequestIDGeneratesTraceID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c, rec := invoke(t, RequestID(), req)

	traceID := rec.Header().Get(TraceIDHeader)
	require.NotEmpty(t, traceID)
	_, err := uuid.Parse(traceID)
	assert.NoError(t, err)
	assert.Equal(t, traceID, GetTraceID(c))
}

func TestRequestIDPreservesIncomingTraceID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TraceIDHeader, "caller-supplied")

	c, rec := invoke(t, RequestID(), req)
	assert.Equal(t, "caller-supplied", rec.Header().Get(TraceIDHeader))
	assert.Equal(t, "caller-supplied", GetTraceID(c))
}

func TestRequestIDThreadsRequestContext(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TraceIDHeader, "caller-supplied")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	// Work started from a handler sees the trace id through the plain
	// context.Context, without access to the echo context.
	var fromCtx string
	handler := RequestID()(func(c echo.Context) error {
		fromCtx = TraceIDFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	assert.Equal(t, "caller-supplied", fromCtx)
}

func TestTraceIDFromContextMissing(t *testing.T) {
	assert.Empty(t, TraceIDFromContext(context.Background()))
}

func TestGetTraceIDMissing(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Empty(t, GetTraceID(c))
}

func TestRateLimiterEnforcesBurst(t *testing.T) {
	mw := RateLimiter(1, 2)
	e := echo.New()
	handler := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Real-IP", "203.0.113.7")
		rec := httptest.NewRecorder()
		require.NoError(t, handler(e.NewContext(req, rec)))
		statuses = append(statuses, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, statuses)
}

func TestRateLimiterIsolatesClients(t *testing.T) {
	mw := RateLimiter(1, 1)
	e := echo.New()
	handler := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Real-IP", ip)
		rec := httptest.NewRecorder()
		require.NoError(t, handler(e.NewContext(req, rec)))
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, do("203.0.113.1"))
	assert.Equal(t, http.StatusOK, do("203.0.113.2"))
}

func TestRateLimiterSweepsIdleVisitors(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(1),
		burst:    1,
		now:      func() time.Time { return clock },
	}

	rl.visitorFor("203.0.113.1")
	clock = clock.Add(visitorTTL + time.Minute)
	rl.visitorFor("203.0.113.2")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.visitors, "203.0.113.1")
	assert.Contains(t, rl.visitors, "203.0.113.2")
}
