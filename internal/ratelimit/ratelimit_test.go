package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_AllowsUpToMax(t *testing.T) {
	limiter := NewMemoryLimiter(3, 15*time.Minute)

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(context.Background(), "user@example.com")
		require.NoError(t, err)
		assert.True(t, allowed, "attempt %d should be allowed", i+1)
	}

	allowed, err := limiter.Allow(context.Background(), "user@example.com")
	require.NoError(t, err)
	assert.False(t, allowed, "fourth attempt should be denied")
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	limiter := NewMemoryLimiter(1, 15*time.Minute)

	allowed, err := limiter.Allow(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.Allow(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.False(t, allowed)

	// A different key has its own window
	allowed, err = limiter.Allow(context.Background(), "b@example.com")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestMemoryLimiter_WindowSlides(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := base

	limiter := NewMemoryLimiter(3, 15*time.Minute).
		WithClock(func() time.Time { return current })

	for i := 0; i < 3; i++ {
		allowed, _ := limiter.Allow(context.Background(), "user@example.com")
		require.True(t, allowed)
	}

	allowed, _ := limiter.Allow(context.Background(), "user@example.com")
	require.False(t, allowed)

	// Once the earliest attempt ages out, one slot frees up
	current = base.Add(15*time.Minute + time.Second)
	allowed, _ = limiter.Allow(context.Background(), "user@example.com")
	assert.True(t, allowed)
}

func TestMemoryLimiter_DeniedAttemptNotRecorded(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := base

	limiter := NewMemoryLimiter(1, 15*time.Minute).
		WithClock(func() time.Time { return current })

	allowed, _ := limiter.Allow(context.Background(), "user@example.com")
	require.True(t, allowed)

	// Hammering while denied must not extend the lockout
	for i := 0; i < 10; i++ {
		current = current.Add(time.Minute)
		allowed, _ = limiter.Allow(context.Background(), "user@example.com")
		require.False(t, allowed)
	}

	current = base.Add(15*time.Minute + time.Second)
	allowed, _ = limiter.Allow(context.Background(), "user@example.com")
	assert.True(t, allowed)
}

func TestMemoryLimiter_Prune(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := base

	limiter := NewMemoryLimiter(3, 15*time.Minute).
		WithClock(func() time.Time { return current })

	limiter.Allow(context.Background(), "stale@example.com")

	current = base.Add(10 * time.Minute)
	limiter.Allow(context.Background(), "fresh@example.com")

	current = base.Add(16 * time.Minute)
	pruned := limiter.Prune()

	assert.Equal(t, 1, pruned)
	assert.NotContains(t, limiter.entries, "stale@example.com")
	assert.Contains(t, limiter.entries, "fresh@example.com")
}
