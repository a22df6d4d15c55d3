package security

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

// limitedPrefixes are the public endpoints worth protecting from bursts. The
// webhook endpoint is deliberately excluded so provider retries never get
// throttled.
var limitedPrefixes = []string{
	"/api/calculate-price",
	"/api/create-checkout-session",
}

type RateLimiter struct {
	redis  *redis.Client
	limit  int64
	window time.Duration
}

func NewRateLimiter(redisClient *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		limit:  int64(limit),
		window: window,
	}
}

// Middleware enforces a per-IP request budget on the public booking endpoints.
// Redis failures fail open.
func (r *RateLimiter) Middleware(e *core.RequestEvent) error {
	if r.redis == nil || !r.isLimitedPath(e.Request.URL.Path) {
		return e.Next()
	}

	allowed, err := r.allow(e.Request.Context(), e.RealIP())
	if err != nil || allowed {
		return e.Next()
	}

	return e.JSON(429, map[string]string{
		"error": "Rate limit exceeded. Please try again later.",
	})
}

func (r *RateLimiter) allow(ctx context.Context, ip string) (bool, error) {
	key := fmt.Sprintf("ratelimit:%s", ip)

	count, err := r.redis.Incr(ctx, key).Result()
	if err != nil {
		return true, err
	}
	if count == 1 {
		r.redis.Expire(ctx, key, r.window)
	}

	return count <= r.limit, nil
}

func (r *RateLimiter) isLimitedPath(path string) bool {
	for _, prefix := range limitedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
