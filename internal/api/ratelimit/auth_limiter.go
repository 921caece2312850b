// Package ratelimit throttles sign-in attempts.
package ratelimit

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
)

const (
	DefaultIPRequestsPerMinute = 10
	DefaultIPWindowDuration    = time.Minute
	DefaultMaxFailedAttempts   = 5
	DefaultLockoutDuration     = 5 * time.Minute
	MaxLockoutDuration         = time.Hour
)

type ipBucket struct {
	count     int
	resetTime time.Time
}

type accountLockout struct {
	failedAttempts int
	lockedUntil    time.Time
	lockoutCount   int
}

// AuthLimiter limits sign-in requests per client address and locks a username
// out after repeated rejected attempts. Each further lockout lasts longer, up
// to MaxLockoutDuration.
type AuthLimiter struct {
	clock clockwork.Clock

	mu              sync.Mutex
	ipBuckets       map[string]*ipBucket
	accountLockouts map[string]*accountLockout

	ipLimit             int
	ipWindow            time.Duration
	maxFailedAttempts   int
	baseLockoutDuration time.Duration
}

// NewAuthLimiter creates a limiter with the default thresholds.
func NewAuthLimiter(clock clockwork.Clock) *AuthLimiter {
	return &AuthLimiter{
		clock:               clock,
		ipBuckets:           make(map[string]*ipBucket),
		accountLockouts:     make(map[string]*accountLockout),
		ipLimit:             DefaultIPRequestsPerMinute,
		ipWindow:            DefaultIPWindowDuration,
		maxFailedAttempts:   DefaultMaxFailedAttempts,
		baseLockoutDuration: DefaultLockoutDuration,
	}
}

// Middleware rejects requests from an address that exceeded its window.
func (l *AuthLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.allowIP(c.RealIP()) {
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests, please try again later")
			}
			return next(c)
		}
	}
}

func (l *AuthLimiter) allowIP(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()

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

// LockoutRemaining returns how long username stays locked out, or zero.
func (l *AuthLimiter) LockoutRemaining(username string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	lockout, exists := l.accountLockouts[normalize(username)]
	if !exists {
		return 0
	}

	remaining := lockout.lockedUntil.Sub(l.clock.Now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RecordFailedAttempt counts a rejected sign-in for username. Blank
// usernames are not tracked.
func (l *AuthLimiter) RecordFailedAttempt(username string) {
	key := normalize(username)
	if key == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	lockout, exists := l.accountLockouts[key]
	if !exists {
		lockout = &accountLockout{}
		l.accountLockouts[key] = lockout
	}

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

// RecordSuccessfulLogin forgets earlier failures for username.
func (l *AuthLimiter) RecordSuccessfulLogin(username string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.accountLockouts, normalize(username))
}

// Cleanup drops expired buckets and lockouts.
func (l *AuthLimiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()

	for ip, bucket := range l.ipBuckets {
		if now.After(bucket.resetTime) {
			delete(l.ipBuckets, ip)
		}
	}

	for username, lockout := range l.accountLockouts {
		if now.After(lockout.lockedUntil) && lockout.failedAttempts < l.maxFailedAttempts {
			delete(l.accountLockouts, username)
		}
	}
}

// StartCleanup runs Cleanup every interval until ctx is done.
func (l *AuthLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := l.clock.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				l.Cleanup()
			}
		}
	}()
}

func normalize(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
