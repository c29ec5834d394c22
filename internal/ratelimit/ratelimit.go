package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter gates an action by key. Allow reports whether the action may
// proceed and records the attempt when it does.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// MemoryLimiter is a sliding-window limiter backed by an in-process map.
// State is per-instance and lost on restart, so it is only suitable for
// single-instance deployments; multi-instance deployments use RedisLimiter.
type MemoryLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string][]time.Time
	now     func() time.Time
}

// NewMemoryLimiter creates a limiter allowing max attempts per rolling window
func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		max:     max,
		window:  window,
		entries: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// WithClock overrides the limiter's clock. Used by tests.
func (l *MemoryLimiter) WithClock(now func() time.Time) *MemoryLimiter {
	l.now = now
	return l
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	recent := l.entries[key][:0]
	for _, t := range l.entries[key] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= l.max {
		l.entries[key] = recent
		return false, nil
	}

	l.entries[key] = append(recent, now)
	return true, nil
}

// Prune drops keys whose attempts have all aged out of the window
func (l *MemoryLimiter) Prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.window)
	pruned := 0

	for key, times := range l.entries {
		live := false
		for _, t := range times {
			if t.After(cutoff) {
				live = true
				break
			}
		}
		if !live {
			delete(l.entries, key)
			pruned++
		}
	}

	return pruned
}
