// Copyright (c) 2026 ExamGate. All rights reserved.

package ratelimit_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examgate/examgate/internal/platform/ratelimit"
)

/*
TestMemoryCounter_WindowSemantics verifies the canonical 5-per-15m profile:
requests 1-5 pass, the 6th is denied with the window remainder as the retry
hint, and an elapsed window resets the count to 1.
*/
func TestMemoryCounter_WindowSemantics(t *testing.T) {
	currentTime := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

	counter := ratelimit.NewMemoryCounter()
	counter.Now = func() time.Time { return currentTime }

	limiter := ratelimit.NewLimiter(counter, ratelimit.Policy{
		Window:  15 * time.Minute,
		Max:     5,
		Message: "Too many login attempts",
	})

	// 1st-5th request allowed.
	for i := 1; i <= 5; i++ {
		decision, err := limiter.Check(context.Background(), "203.0.113.9:alice@example.com")
		require.NoError(t, err)
		assert.True(t, decision.Allowed, "request %d should pass", i)
		assert.Equal(t, int64(i), decision.Count)
	}

	// 6th request denied with a bounded retry hint.
	decision, err := limiter.Check(context.Background(), "203.0.113.9:alice@example.com")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, int64(6), decision.Count)
	assert.Equal(t, 15*time.Minute, decision.RetryAfter)

	// A different key is unaffected.
	other, err := limiter.Check(context.Background(), "203.0.113.9:bob@example.com")
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	// After the window elapses the bucket restarts at 1.
	currentTime = currentTime.Add(15*time.Minute + time.Second)
	decision, err = limiter.Check(context.Background(), "203.0.113.9:alice@example.com")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, int64(1), decision.Count)
}

/*
TestMemoryCounter_RetryAfterShrinks verifies retryAfter reflects time already
spent inside the window.
*/
func TestMemoryCounter_RetryAfterShrinks(t *testing.T) {
	currentTime := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

	counter := ratelimit.NewMemoryCounter()
	counter.Now = func() time.Time { return currentTime }

	limiter := ratelimit.NewLimiter(counter, ratelimit.Policy{Window: 10 * time.Minute, Max: 1})

	_, err := limiter.Check(context.Background(), "k")
	require.NoError(t, err)

	currentTime = currentTime.Add(4 * time.Minute)
	decision, err := limiter.Check(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, 6*time.Minute, decision.RetryAfter)
}

/*
TestMemoryCounter_ConcurrentIncrements verifies no updates are lost under
concurrent access to one key.
*/
func TestMemoryCounter_ConcurrentIncrements(t *testing.T) {
	counter := ratelimit.NewMemoryCounter()

	const goroutines = 50
	const perGoroutine = 20

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				_, _, err := counter.Incr(context.Background(), "shared", time.Hour)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	count, _, err := counter.Incr(context.Background(), "shared", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(goroutines*perGoroutine+1), count)
}

/*
TestMemoryCounter_LazyCreation verifies buckets appear on first observation only.
*/
func TestMemoryCounter_LazyCreation(t *testing.T) {
	counter := ratelimit.NewMemoryCounter()
	assert.Equal(t, 0, counter.Len())

	_, _, err := counter.Incr(context.Background(), "a", time.Minute)
	require.NoError(t, err)
	_, _, err = counter.Incr(context.Background(), "b", time.Minute)
	require.NoError(t, err)

	assert.Equal(t, 2, counter.Len())
}
