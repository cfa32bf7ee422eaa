package middleware

import (
	"fmt"
	"net/http"
	"time"

	"tutor-service/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimiter enforces fixed-window per-user limits backed by Redis.
type RateLimiter struct {
	client *redis.Client
}

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// Limit allows at most `requests` calls per `window` per user and endpoint.
// Must run after an auth middleware that set the user id. Redis failures
// fail open: throttling is protection, not a correctness requirement.
func (rl *RateLimiter) Limit(requests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := UserID(c)
		if userID == 0 {
			response.AbortError(c, http.StatusUnauthorized, "unauthorized")
			return
		}

		key := fmt.Sprintf("rate_limit:%d:%s", userID, c.Request.URL.Path)
		allowed, err := rl.allow(c, key, requests, window)
		if err != nil {
			c.Next()
			return
		}
		if !allowed {
			response.AbortError(c, http.StatusTooManyRequests,
				fmt.Sprintf("too many requests, limit is %d per %v", requests, window))
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) allow(c *gin.Context, key string, requests int, window time.Duration) (bool, error) {
	ctx := c.Request.Context()

	count, err := rl.client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := rl.client.Expire(ctx, key, window).Err(); err != nil {
			return false, err
		}
	}
	return count <= int64(requests), nil
}
