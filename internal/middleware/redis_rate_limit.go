package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/buzzboard/backend/internal/cache"
	"github.com/buzzboard/backend/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisRateLimitMiddleware creates a distributed rate limiter using Redis,
// for deployments running more than one server instance where the in-memory
// limiter would only bound traffic per process. It uses a fixed window
// counter rather than the sliding window; the coarser accounting is the
// price of a single shared counter.
//
// Redis unavailability fails open: rate limiting is protective, not
// critical-path, and dropping all traffic because the cache is down is a
// worse failure than a briefly unenforced limit.
func RedisRateLimitMiddleware(maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		redisClient := cache.GetRedisClient()
		if redisClient == nil {
			c.Next()
			return
		}

		key := fmt.Sprintf("rate_limit:%s:%s", c.FullPath(), ClientIdentifier(c))
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		val, err := redisClient.GetInt(ctx, key)
		if err != nil && !errors.Is(err, redis.Nil) {
			logger.Log.Warn("Rate limit check failed, allowing request",
				logger.WithIP(ClientIdentifier(c)),
				zap.Error(err),
			)
			c.Next()
			return
		}

		if val >= int64(maxRequests) {
			logger.Log.Warn("Rate limit exceeded",
				logger.WithIP(ClientIdentifier(c)),
				zap.Int("max_requests", maxRequests),
				zap.Int64("current_requests", val),
			)
			ttl, ttlErr := redisClient.TTL(ctx, key)
			if ttlErr != nil || ttl < 0 {
				ttl = window
			}
			resetAt := time.Now().Add(ttl)
			c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", maxRequests))
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", resetAt.UnixMilli()))
			c.Header("Retry-After", fmt.Sprintf("%d", int(ttl.Seconds())+1))
			c.AbortWithStatusJSON(429, gin.H{
				"error":   "rate_limit_exceeded",
				"message": "Too many requests. Please slow down and try again.",
				"resetAt": resetAt.UTC().Format(time.RFC3339),
			})
			return
		}

		newVal, err := redisClient.IncrBy(ctx, key, 1)
		if err != nil {
			logger.Log.Warn("Rate limit increment failed, allowing request",
				logger.WithIP(ClientIdentifier(c)),
				zap.Error(err),
			)
			c.Next()
			return
		}

		// Set expiration on first request in this window
		if newVal == 1 {
			if err := redisClient.Expire(ctx, key, window); err != nil {
				logger.Log.Warn("Failed to set rate limit expiration",
					logger.WithIP(ClientIdentifier(c)),
					zap.Error(err),
				)
			}
		}

		c.Next()
	}
}
