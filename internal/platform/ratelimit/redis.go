// Copyright (c) 2026 ExamGate. All rights reserved.

package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCounter is a [Counter] backed by a shared Redis instance.
//
// The bucket is a plain Redis integer: INCR creates-or-increments atomically,
// and the first hit of a window attaches the expiry. Window boundaries are
// therefore enforced by Redis TTLs rather than stored timestamps.
type RedisCounter struct {
	client *redis.Client
}

// NewRedisCounter creates a counter store on the given client.
func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

// Incr implements [Counter].
func (c *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	count, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("ratelimit: redis incr failed: %w", err)
	}

	// First hit of a fresh window owns setting the expiry.
	if count == 1 {
		if err := c.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("ratelimit: redis expire failed: %w", err)
		}
		return count, window, nil
	}

	remaining, err := c.client.PTTL(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("ratelimit: redis pttl failed: %w", err)
	}

	// A key without expiry means a lost EXPIRE (e.g. crash between the two
	// commands). Re-arm the window rather than counting forever.
	if remaining < 0 {
		if err := c.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("ratelimit: redis expire failed: %w", err)
		}
		remaining = window
	}

	return count, remaining, nil
}
