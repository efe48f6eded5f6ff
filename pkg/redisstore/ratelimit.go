package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis_rate/v10"
)

// RateLimiter is a GCRA limiter backed by redis, shared by all instances.
type RateLimiter struct {
	limiter *redis_rate.Limiter
	limit   redis_rate.Limit
	prefix  string
}

func NewRateLimiter(c *Client, prefix string, perMinute, burst int) *RateLimiter {
	return &RateLimiter{
		limiter: redis_rate.NewLimiter(c.rdb),
		limit: redis_rate.Limit{
			Rate:   perMinute,
			Period: time.Minute,
			Burst:  burst,
		},
		prefix: prefix,
	}
}

// Allow consumes one token for key. retryAfter is only meaningful when the
// request is rejected.
func (r *RateLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	res, err := r.limiter.Allow(ctx, r.prefix+":"+key, r.limit)
	if err != nil {
		return false, 0, fmt.Errorf("rate limit check failed: %w", err)
	}
	return res.Allowed > 0, res.RetryAfter, nil
}
