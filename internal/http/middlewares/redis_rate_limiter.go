package middlewares

import (
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/taskify/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter shares one fixed window across API instances via
// INCR/EXPIRE. Redis being down must never take the API with it, so every
// redis error fails open.
type RedisRateLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	prom   *observability.Prom
}

func NewRedisRateLimiter(rdb *redis.Client, limit int, window time.Duration, prom *observability.Prom) *RedisRateLimiter {
	return &RedisRateLimiter{
		rdb:    rdb,
		limit:  limit,
		window: window,
		prom:   prom,
	}
}

func (rl *RedisRateLimiter) Middleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)

		if key == "" {
			key = clientIP(c)
		}

		redisKey := "rl:" + strconv.FormatInt(int64(rl.window.Seconds()), 10) + ":" + key

		ctx := c.Request.Context()

		count, err := rl.rdb.Incr(ctx, redisKey).Result()

		if err != nil {
			c.Header("X-RateLimit-Error", "redis-error")
			c.Next()
			return
		}

		if count == 1 {
			rl.rdb.Expire(ctx, redisKey, rl.window)
		}

		if count > int64(rl.limit) {
			if rl.prom != nil {
				rl.prom.RateLimitedTotal.WithLabelValues(c.FullPath()).Inc()
			}

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "rate_limited",
					"message": "Too many requests. Please try again shortly.",
				},
			})
			return
		}

		c.Next()
	}
}
