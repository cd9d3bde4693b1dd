package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/baing/baing/internal/auth"
	"github.com/baing/baing/internal/metrics"
)

// UserLimiter is a token bucket per authenticated user.
type UserLimiter struct {
	mu       sync.Mutex
	limiters map[int64]*limiterEntry
	rate     rate.Limit
	burst    int
	now      func() time.Time
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewUserLimiter allows perMinute requests per user with the given burst.
// A non-positive perMinute disables limiting.
func NewUserLimiter(perMinute, burst int) *UserLimiter {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	if burst <= 0 {
		burst = max(perMinute, 1)
	}
	return &UserLimiter{
		limiters: make(map[int64]*limiterEntry),
		rate:     limit,
		burst:    burst,
		now:      time.Now,
	}
}

// Allow reports whether userID may make another request now.
func (l *UserLimiter) Allow(userID int64) bool {
	l.mu.Lock()
	now := l.now()
	entry, exists := l.limiters[userID]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[userID] = entry
	}
	entry.lastAccess = now
	limiter := entry.limiter
	l.mu.Unlock()

	return limiter.AllowN(now, 1)
}

// Middleware rejects requests over the limit with 429. It must run after
// auth.Middleware.
func (l *UserLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, err := auth.UserID(c)
			if err != nil {
				return err
			}
			if !l.Allow(userID) {
				metrics.RateLimited.Inc()
				c.Response().Header().Set("Retry-After", strconv.Itoa(l.retryAfterSeconds()))
				return echo.NewHTTPError(http.StatusTooManyRequests, "discovery rate limit exceeded, please slow down")
			}
			return next(c)
		}
	}
}

func (l *UserLimiter) retryAfterSeconds() int {
	if l.rate == rate.Inf || l.rate <= 0 {
		return 1
	}
	return max(int(math.Round(1/float64(l.rate))), 1)
}

// Prune drops limiters idle for longer than idle and returns how many were
// removed.
func (l *UserLimiter) Prune(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	threshold := l.now().Add(-idle)
	removed := 0
	for id, entry := range l.limiters {
		if entry.lastAccess.Before(threshold) {
			delete(l.limiters, id)
			removed++
		}
	}
	return removed
}

func (l *UserLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}
