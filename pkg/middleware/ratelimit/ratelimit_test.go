package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(cfg Config) *echo.Echo {
	e := echo.New()
	e.POST("/auth/login", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, New(cfg, nil))
	return e
}

func hit(e *echo.Echo, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.Header.Set(echo.HeaderXRealIP, ip)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestLocalLimiter_BlocksAfterBurst(t *testing.T) {
	e := newServer(Config{PerMinute: 1, Burst: 2})

	assert.Equal(t, http.StatusOK, hit(e, "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, hit(e, "10.0.0.1").Code)

	rec := hit(e, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, hit(e, "10.0.0.2").Code, "other clients keep their own bucket")
}

func TestLocalLimiter_Refills(t *testing.T) {
	cfg := Config{PerMinute: 60, Burst: 1}
	l := newLocalLimiter(cfg)
	now := time.Now()
	l.now = func() time.Time { return now }

	d, err := l.take(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, d.allowed)

	d, err = l.take(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, d.allowed)
	assert.LessOrEqual(t, d.retry, time.Second)

	now = now.Add(time.Second)
	d, err = l.take(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, d.allowed)
}

func TestLocalLimiter_EvictsIdleBuckets(t *testing.T) {
	l := newLocalLimiter(Config{PerMinute: 1, Burst: 1})
	start := time.Now()
	now := start
	l.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := l.take(ctx, "a")
	require.NoError(t, err)

	now = start.Add(30 * time.Second)
	_, err = l.take(ctx, "c")
	require.NoError(t, err)
	require.Len(t, l.buckets, 2)

	now = start.Add(61 * time.Second)
	_, err = l.take(ctx, "b")
	require.NoError(t, err)

	assert.NotContains(t, l.buckets, "a", "refilled bucket is dropped")
	assert.Contains(t, l.buckets, "c", "bucket still refilling is kept")
	assert.Contains(t, l.buckets, "b")

	d, err := l.take(ctx, "c")
	require.NoError(t, err)
	assert.False(t, d.allowed, "kept bucket still enforces its limit")
}

func TestDisabledWhenPerMinuteZero(t *testing.T) {
	e := newServer(Config{PerMinute: 0})
	for range 5 {
		assert.Equal(t, http.StatusOK, hit(e, "10.0.0.1").Code)
	}
}

func TestNewRedisClient_EmptyAddr(t *testing.T) {
	assert.Nil(t, NewRedisClient(context.Background(), "", "", 0))
}
