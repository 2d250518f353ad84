package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/buzzboard/backend/internal/logger"
	"github.com/buzzboard/backend/internal/metrics"
	"github.com/buzzboard/backend/internal/ratelimit"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	// Requests per window
	Limit int
	// Window duration
	Window time.Duration
	// KeyFunc identifies the client; defaults to user id when
	// authenticated, client IP otherwise
	KeyFunc func(c *gin.Context) string
}

// DefaultRateLimitConfig returns the global baseline
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:   100,         // 100 requests
		Window:  time.Minute, // per minute
		KeyFunc: defaultKeyFunc,
	}
}

// AuthRateLimitConfig returns stricter limits for login/register endpoints
func AuthRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:   10,
		Window:  time.Minute,
		KeyFunc: defaultKeyFunc,
	}
}

// CreateRateLimitConfig returns limits for content-creation endpoints
func CreateRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:   30,
		Window:  time.Minute,
		KeyFunc: defaultKeyFunc,
	}
}

// MutateRateLimitConfig returns limits for edit endpoints
func MutateRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:   60,
		Window:  time.Minute,
		KeyFunc: defaultKeyFunc,
	}
}

// ReactionRateLimitConfig returns limits for like/unlike endpoints, which
// clients tend to toggle rapidly
func ReactionRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:   120,
		Window:  time.Minute,
		KeyFunc: defaultKeyFunc,
	}
}

// DeleteRateLimitConfig returns limits for destructive endpoints
func DeleteRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:   10,
		Window:  time.Minute,
		KeyFunc: defaultKeyFunc,
	}
}

// UploadRateLimitConfig returns limits for image upload endpoints
func UploadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:   20,
		Window:  time.Minute,
		KeyFunc: defaultKeyFunc,
	}
}

// ClientIdentifier derives the client address for rate limiting. Deployments
// sit behind layered reverse proxies, so headers are preferred in trust
// order: the CDN's header, then the first hop of X-Forwarded-For, then
// X-Real-IP. The loopback placeholder keeps keys well-formed when no header
// survives (direct local traffic).
func ClientIdentifier(c *gin.Context) string {
	if ip := c.GetHeader("CF-Connecting-IP"); ip != "" {
		return ip
	}
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if ip := c.GetHeader("X-Real-IP"); ip != "" {
		return ip
	}
	return "127.0.0.1"
}

func defaultKeyFunc(c *gin.Context) string {
	if userID := c.GetString("user_id"); userID != "" {
		return "user:" + userID
	}
	return "ip:" + ClientIdentifier(c)
}

// RateLimitWith creates a rate limiting middleware backed by a shared
// limiter. Routes that should share one budget must share one limiter.
// The key combines the route template with the client identity so each
// endpoint class budgets independently.
func RateLimitWith(limiter *ratelimit.Limiter, config RateLimitConfig) gin.HandlerFunc {
	policy := ratelimit.MustPolicy(config.Window, config.Limit)
	keyFunc := config.KeyFunc
	if keyFunc == nil {
		keyFunc = defaultKeyFunc
	}

	return func(c *gin.Context) {
		key := c.Request.Method + ":" + c.FullPath() + ":" + keyFunc(c)
		res := limiter.Check(key, policy)
		metrics.Get().RateLimitTrackedKeys.WithLabelValues("memory").Set(float64(limiter.Len()))

		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.UnixMilli(), 10))

		if !res.Allowed {
			retryAfter := res.RetryAfter(time.Now())
			logger.Log.Warn("rate limit exceeded",
				logger.WithIP(ClientIdentifier(c)),
				zap.String("key", key),
				zap.Int("limit", config.Limit),
			)
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limit_exceeded",
				"message": "Too many requests. Please slow down and try again.",
				"resetAt": res.ResetAt.UTC().Format(time.RFC3339),
			})
			return
		}
		c.Next()
	}
}
