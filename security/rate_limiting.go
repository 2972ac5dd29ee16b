package security

import (
	"fmt"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

type RateLimiter struct {
	redis *redis.Client
}

func NewRateLimiter(redisClient *redis.Client) *RateLimiter {
	return &RateLimiter{redis: redisClient}
}

// Limit returns a fixed-window rate limiting middleware keyed by the
// authenticated user when present, otherwise the client IP. Redis being
// unavailable lets requests through rather than failing the site.
func (r *RateLimiter) Limit(scope string, max int64, window time.Duration) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if r.redis == nil {
			return e.Next()
		}

		who := e.RealIP()
		if e.Auth != nil {
			who = "user:" + e.Auth.Id
		}
		key := fmt.Sprintf("ratelimit:%s:%s", scope, who)

		ctx := e.Request.Context()
		count, err := r.redis.Incr(ctx, key).Result()
		if err == nil {
			if count == 1 {
				r.redis.Expire(ctx, key, window)
			}
			if count > max {
				return e.JSON(http.StatusTooManyRequests, map[string]string{
					"error": "Rate limit exceeded. Please try again later.",
				})
			}
		}

		return e.Next()
	}
}
