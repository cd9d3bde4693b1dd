package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/baing/baing/internal/auth"
)

func TestAuthLimiterIPWindow(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	l := NewAuthLimiter()
	l.now = func() time.Time { return now }

	for i := 0; i < DefaultIPRequestsPerMinute; i++ {
		assert.True(t, l.allowIP("10.0.0.1"))
	}
	assert.False(t, l.allowIP("10.0.0.1"))
	assert.True(t, l.allowIP("10.0.0.2"))

	now = now.Add(2 * time.Minute)
	assert.True(t, l.allowIP("10.0.0.1"))
	assert.Equal(t, 1, l.Prune())
}

func TestAuthLimiterLockout(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	l := NewAuthLimiter()
	l.now = func() time.Time { return now }

	for i := 0; i < DefaultMaxFailedAttempts-1; i++ {
		l.RecordFailedAttempt("Ann@Example.com")
	}
	assert.Zero(t, l.LockoutRemaining("ann@example.com"))

	l.RecordFailedAttempt("ann@example.com")
	assert.Equal(t, DefaultLockoutDuration, l.LockoutRemaining("ann@example.com"))

	now = now.Add(DefaultLockoutDuration + time.Second)
	assert.Zero(t, l.LockoutRemaining("ann@example.com"))

	for i := 0; i < DefaultMaxFailedAttempts; i++ {
		l.RecordFailedAttempt("ann@example.com")
	}
	assert.Equal(t, 2*DefaultLockoutDuration, l.LockoutRemaining("ann@example.com"))

	l.RecordSuccessfulLogin("ann@example.com")
	assert.Zero(t, l.LockoutRemaining("ann@example.com"))
}

func TestUserLimiter(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	l := NewUserLimiter(60, 2)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow(1))
	assert.True(t, l.Allow(1))
	assert.False(t, l.Allow(1))
	assert.True(t, l.Allow(2), "buckets are per user")

	now = now.Add(time.Second)
	assert.True(t, l.Allow(1))

	now = now.Add(2 * time.Hour)
	assert.Equal(t, 2, l.Prune(time.Hour))
	assert.Equal(t, 0, l.Len())
}

func TestUserLimiterDisabled(t *testing.T) {
	l := NewUserLimiter(0, 0)
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow(1))
	}
}

type staticValidator struct{}

func (staticValidator) ValidateToken(string) (*auth.Claims, error) {
	return &auth.Claims{UserID: 9}, nil
}

func TestUserLimiterMiddleware(t *testing.T) {
	l := NewUserLimiter(1, 1)
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
		auth.Middleware(staticValidator{}), l.Middleware())

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Authorization", "Bearer t")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do().Code)
	rec := do()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}
