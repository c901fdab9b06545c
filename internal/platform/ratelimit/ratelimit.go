// Copyright (c) 2026 ExamGate. All rights reserved.

/*
Package ratelimit implements fixed-window request counting behind a pluggable
counter store.

The decision logic is transport-agnostic: a [Limiter] combines a [Policy]
(window, max count, deny message) with a [Counter] and answers allow/deny for
an opaque key. Key derivation from HTTP requests lives in the middleware
package.

Two counter stores are provided:

  - [MemoryCounter]: a mutex-guarded in-process map. Correct under arbitrary
    goroutine interleaving, but scoped to a single process; counts are not
    shared across instances. This is a documented limitation, not a goal.
  - [RedisCounter]: INCR + EXPIRE against a shared Redis, the drop-in for
    horizontally scaled deployments.

Both honor the same contract, so swapping stores is a wiring change only.
*/
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Policy describes one rate-limit profile.
type Policy struct {
	// Window is the fixed counting window duration.
	Window time.Duration

	// Max is the number of requests allowed per key per window.
	Max int64

	// Message is the client-facing text used on rejection.
	Message string
}

// Decision is the outcome of a limit check.
type Decision struct {
	// Allowed reports whether the request may proceed.
	Allowed bool

	// Count is the number of observed requests in the current window,
	// including this one.
	Count int64

	// RetryAfter is how long a denied caller should wait before retrying.
	// Zero when Allowed.
	RetryAfter time.Duration
}

// Counter atomically increments the bucket for a key, resetting it first when
// its window has elapsed.
//
// Invariant: the returned count is always >= 1, and remaining is the time left
// until the bucket's window resets, measured on the counter's own clock. A
// bucket is never left stale: an expired window restarts at count=1 with
// remaining=window.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int64, remaining time.Duration, err error)
}

// Limiter applies a [Policy] using a [Counter].
type Limiter struct {
	counter Counter
	policy  Policy
}

// NewLimiter creates a limiter for one policy.
func NewLimiter(counter Counter, policy Policy) *Limiter {
	return &Limiter{counter: counter, policy: policy}
}

// Policy returns the limiter's configured policy.
func (l *Limiter) Policy() Policy { return l.policy }

// Check increments the key's bucket and decides.
//
// The increment is committed before the decision is taken and is never rolled
// back, so an aborted request still counts as an attempt.
func (l *Limiter) Check(ctx context.Context, key string) (Decision, error) {
	count, remaining, err := l.counter.Incr(ctx, key, l.policy.Window)
	if err != nil {
		return Decision{}, err
	}

	if count > l.policy.Max {
		return Decision{Allowed: false, Count: count, RetryAfter: remaining}, nil
	}

	return Decision{Allowed: true, Count: count}, nil
}

// # In-Memory Counter

type bucket struct {
	count   int64
	resetAt time.Time
}

// MemoryCounter is a single-process [Counter] backed by a mutex-guarded map.
//
// Buckets are created lazily on first observation of a key and kept for the
// process lifetime; an expired bucket is reused in place on its next hit.
type MemoryCounter struct {
	// Now returns the current time. Overridable in tests.
	Now func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

// NewMemoryCounter creates an empty in-memory counter store.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{
		Now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// Incr implements [Counter].
func (c *MemoryCounter) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	currentTime := c.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, found := c.buckets[key]
	if !found || !currentTime.Before(entry.resetAt) {
		entry = &bucket{count: 1, resetAt: currentTime.Add(window)}
		c.buckets[key] = entry
		return entry.count, window, nil
	}

	entry.count++
	return entry.count, entry.resetAt.Sub(currentTime), nil
}

// Len reports the number of tracked keys. Intended for observability.
func (c *MemoryCounter) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buckets)
}
