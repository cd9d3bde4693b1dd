// Package ratelimit throttles login attempts per IP and account, and
// discovery requests per user.
package ratelimit

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/baing/baing/internal/metrics"
)

const (
	DefaultIPRequestsPerMinute = 10
	DefaultIPWindowDuration    = time.Minute
	DefaultMaxFailedAttempts   = 5
	DefaultLockoutDuration     = 15 * time.Minute
	MaxLockoutDuration         = time.Hour
)

type ipBucket struct {
	count     int64
	resetTime time.Time
}

type accountLockout struct {
	failedAttempts int
	lockedUntil    time.Time
	lockoutCount   int
}

// AuthLimiter bounds login and registration attempts per client IP and
// locks an email address out after repeated failed logins.
type AuthLimiter struct {
	mu              sync.Mutex
	ipBuckets       map[string]*ipBucket
	accountLockouts map[string]*accountLockout

	ipLimit             int64
	ipWindow            time.Duration
	maxFailedAttempts   int
	baseLockoutDuration time.Duration
	now                 func() time.Time
}

func NewAuthLimiter() *AuthLimiter {
	return &AuthLimiter{
		ipBuckets:           make(map[string]*ipBucket),
		accountLockouts:     make(map[string]*accountLockout),
		ipLimit:             DefaultIPRequestsPerMinute,
		ipWindow:            DefaultIPWindowDuration,
		maxFailedAttempts:   DefaultMaxFailedAttempts,
		baseLockoutDuration: DefaultLockoutDuration,
		now:                 time.Now,
	}
}

func (l *AuthLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.allowIP(c.RealIP()) {
				metrics.RateLimited.Inc()
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests, please try again later")
			}
			return next(c)
		}
	}
}

func (l *AuthLimiter) allowIP(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	bucket, exists := l.ipBuckets[ip]
	if !exists || now.After(bucket.resetTime) {
		l.ipBuckets[ip] = &ipBucket{count: 1, resetTime: now.Add(l.ipWindow)}
		return true
	}
	if bucket.count >= l.ipLimit {
		return false
	}
	bucket.count++
	return true
}

// LockoutRemaining returns how long email stays locked, or zero.
func (l *AuthLimiter) LockoutRemaining(email string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	lockout, exists := l.accountLockouts[accountKey(email)]
	if !exists {
		return 0
	}
	return max(lockout.lockedUntil.Sub(l.now()), 0)
}

// RecordFailedAttempt counts a failed login. Each lockout lasts longer than
// the previous one, up to MaxLockoutDuration.
func (l *AuthLimiter) RecordFailedAttempt(email string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := accountKey(email)
	lockout, exists := l.accountLockouts[key]
	if !exists {
		lockout = &accountLockout{}
		l.accountLockouts[key] = lockout
	}

	now := l.now()
	if now.After(lockout.lockedUntil) && lockout.failedAttempts >= l.maxFailedAttempts {
		lockout.failedAttempts = 0
	}

	lockout.failedAttempts++
	if lockout.failedAttempts >= l.maxFailedAttempts {
		lockout.lockoutCount++
		duration := min(l.baseLockoutDuration*time.Duration(lockout.lockoutCount), MaxLockoutDuration)
		lockout.lockedUntil = now.Add(duration)
	}
}

func (l *AuthLimiter) RecordSuccessfulLogin(email string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.accountLockouts, accountKey(email))
}

// Prune drops expired IP windows and settled lockouts and returns how many
// entries were removed.
func (l *AuthLimiter) Prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for ip, bucket := range l.ipBuckets {
		if now.After(bucket.resetTime) {
			delete(l.ipBuckets, ip)
			removed++
		}
	}
	for key, lockout := range l.accountLockouts {
		if now.After(lockout.lockedUntil) && lockout.failedAttempts < l.maxFailedAttempts {
			delete(l.accountLockouts, key)
			removed++
		}
	}
	return removed
}

func accountKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
