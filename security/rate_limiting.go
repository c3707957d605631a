package security

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed window counter kept in Redis.
type RateLimiter struct {
	redis  *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

func NewRateLimiter(redisClient *redis.Client, prefix string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		prefix: prefix,
		limit:  int64(limit),
		window: window,
	}
}

// Allow counts one hit for key and reports whether it is still within the limit.
// The window starts with the first hit.
func (r *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("%s:%s", r.prefix, key)

	count, err := r.redis.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := r.redis.Expire(ctx, redisKey, r.window).Err(); err != nil {
			return false, err
		}
	}

	return count <= r.limit, nil
}

// Middleware limits requests per client IP. Redis failures let the request through.
func (r *RateLimiter) Middleware(e *core.RequestEvent) error {
	allowed, err := r.Allow(e.Request.Context(), e.RealIP())
	if err != nil {
		slog.Error("Rate limiter unavailable", "prefix", r.prefix, "error", err)
		return e.Next()
	}
	if !allowed {
		return apis.NewTooManyRequestsError("Too many requests. Please try again later.", nil)
	}
	return e.Next()
}
