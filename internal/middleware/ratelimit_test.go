package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buzzboard/backend/internal/ratelimit"
)

func newTestRouter(handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(handler)
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func TestRateLimiter(t *testing.T) {
	config := RateLimitConfig{
		Limit:  5,
		Window: time.Minute,
		KeyFunc: func(c *gin.Context) string {
			return ClientIdentifier(c)
		},
	}

	router := newTestRouter(RateLimitWith(ratelimit.New(100, time.Minute), config))

	// First 5 requests succeed, with remaining counting down
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "Request %d should succeed", i+1)
		assert.Equal(t, strconv.Itoa(4-i), w.Header().Get("X-RateLimit-Remaining"))
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
	}

	// 6th request is rejected
	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code, "6th request should be rate limited")
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	retryAfter, err := strconv.Atoi(w.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.Greater(t, retryAfter, 0)
	assert.LessOrEqual(t, retryAfter, 60)

	resetMs, err := strconv.ParseInt(w.Header().Get("X-RateLimit-Reset"), 10, 64)
	require.NoError(t, err)
	assert.Greater(t, resetMs, time.Now().UnixMilli())

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "rate_limit_exceeded", body["error"])
	assert.NotEmpty(t, body["message"])
	_, err = time.Parse(time.RFC3339, body["resetAt"])
	assert.NoError(t, err, "resetAt should be ISO-8601")
}

func TestRateLimiterDifferentClients(t *testing.T) {
	config := RateLimitConfig{
		Limit:  2,
		Window: time.Minute,
		KeyFunc: func(c *gin.Context) string {
			return c.GetHeader("X-Client-ID")
		},
	}

	router := newTestRouter(RateLimitWith(ratelimit.New(100, time.Minute), config))

	// Client A makes 2 requests (at limit)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("X-Client-ID", "client-a")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	// Client A is now rate limited
	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Client-ID", "client-a")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code, "Client A should be rate limited")

	// Client B should still work
	req = httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Client-ID", "client-b")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, "Client B should not be rate limited")
}

func TestRateLimiterDisabledFailsOpen(t *testing.T) {
	limiter := ratelimit.New(100, time.Minute, ratelimit.WithDisabled(true))
	router := newTestRouter(RateLimitWith(limiter, RateLimitConfig{Limit: 1, Window: time.Minute}))

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestClientIdentifier(t *testing.T) {
	gin.SetMode(gin.TestMode)

	build := func(headers map[string]string) *gin.Context {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/", nil)
		for k, v := range headers {
			c.Request.Header.Set(k, v)
		}
		return c
	}

	// CDN header wins over everything else
	c := build(map[string]string{
		"CF-Connecting-IP": "203.0.113.7",
		"X-Forwarded-For":  "198.51.100.1, 10.0.0.1",
		"X-Real-IP":        "192.0.2.9",
	})
	assert.Equal(t, "203.0.113.7", ClientIdentifier(c))

	// First hop of X-Forwarded-For
	c = build(map[string]string{
		"X-Forwarded-For": "198.51.100.1, 10.0.0.1",
		"X-Real-IP":       "192.0.2.9",
	})
	assert.Equal(t, "198.51.100.1", ClientIdentifier(c))

	// X-Real-IP as last header resort
	c = build(map[string]string{"X-Real-IP": "192.0.2.9"})
	assert.Equal(t, "192.0.2.9", ClientIdentifier(c))

	// Loopback placeholder when nothing is present
	c = build(nil)
	assert.Equal(t, "127.0.0.1", ClientIdentifier(c))
}

func TestDefaultConfigs(t *testing.T) {
	defaultConfig := DefaultRateLimitConfig()
	assert.Equal(t, 100, defaultConfig.Limit)
	assert.Equal(t, time.Minute, defaultConfig.Window)
	assert.NotNil(t, defaultConfig.KeyFunc)

	authConfig := AuthRateLimitConfig()
	assert.Equal(t, 10, authConfig.Limit)
	assert.Equal(t, time.Minute, authConfig.Window)

	deleteConfig := DeleteRateLimitConfig()
	assert.Equal(t, 10, deleteConfig.Limit)

	reactionConfig := ReactionRateLimitConfig()
	assert.Equal(t, 120, reactionConfig.Limit)

	createConfig := CreateRateLimitConfig()
	assert.Equal(t, 30, createConfig.Limit)

	mutateConfig := MutateRateLimitConfig()
	assert.Equal(t, 60, mutateConfig.Limit)

	uploadConfig := UploadRateLimitConfig()
	assert.Equal(t, 20, uploadConfig.Limit)
}
