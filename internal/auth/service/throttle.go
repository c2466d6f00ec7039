package service

import (
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// LoginThrottle is the failed-attempt lockout collaborator consulted by
// Login. Keys are normalized emails.
type LoginThrottle interface {
	// Allow reports whether key may attempt a login, and if not, how long
	// until the lockout lifts.
	Allow(key string) (retryAfter time.Duration, ok bool)
	RecordFailure(key string)
	Reset(key string)
}

// AttemptLimiter locks a key out after Threshold failures inside a fixed
// window that starts at the first failure.
type AttemptLimiter struct {
	threshold int
	window    time.Duration

	mu       sync.Mutex
	failures *ttlcache.Cache[string, int]
}

// NewAttemptLimiter returns nil when threshold is not positive, which
// disables the lockout.
func NewAttemptLimiter(threshold int, window time.Duration) *AttemptLimiter {
	if threshold <= 0 || window <= 0 {
		return nil
	}
	return &AttemptLimiter{
		threshold: threshold,
		window:    window,
		failures: ttlcache.New(
			ttlcache.WithTTL[string, int](window),
			ttlcache.WithDisableTouchOnHit[string, int](),
		),
	}
}

// Start runs the expiry loop until Stop.
func (l *AttemptLimiter) Start() { go l.failures.Start() }

func (l *AttemptLimiter) Stop() { l.failures.Stop() }

func (l *AttemptLimiter) Allow(key string) (time.Duration, bool) {
	item := l.failures.Get(key)
	if item == nil || item.Value() < l.threshold {
		return 0, true
	}
	return time.Until(item.ExpiresAt()), false
}

func (l *AttemptLimiter) RecordFailure(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	item := l.failures.Get(key)
	if item == nil {
		l.failures.Set(key, 1, l.window)
		return
	}

	remaining := time.Until(item.ExpiresAt())
	if remaining <= 0 {
		l.failures.Set(key, 1, l.window)
		return
	}
	l.failures.Set(key, item.Value()+1, remaining)
}

func (l *AttemptLimiter) Reset(key string) {
	l.failures.Delete(key)
}
