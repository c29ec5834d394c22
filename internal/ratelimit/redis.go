package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window limiter sharing its counters across process
// instances. Redis errors fail open: throttling is protection, not a
// correctness requirement, and availability wins when the counter store is
// down.
type RedisLimiter struct {
	client *redis.Client
	max    int
	window time.Duration
	prefix string
}

// NewRedisLimiter creates a limiter allowing max attempts per fixed window
func NewRedisLimiter(client *redis.Client, max int, window time.Duration, prefix string) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		max:    max,
		window: window,
		prefix: prefix,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("rl:%s:%s", l.prefix, key)

	cnt, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return true, err
	}
	if cnt == 1 {
		l.client.Expire(ctx, redisKey, l.window)
	}

	return cnt <= int64(l.max), nil
}
