package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buzzboard/backend/internal/cache"
)

func startTestRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	host, port, ok := strings.Cut(mr.Addr(), ":")
	require.True(t, ok)
	_, err := cache.NewRedisClient(host, port, "")
	require.NoError(t, err)
	return mr
}

func TestRedisRateLimitAllowsFreshClient(t *testing.T) {
	startTestRedis(t)
	router := newTestRouter(RedisRateLimitMiddleware(2, time.Minute))

	// No counter exists yet, so the lookup reports a nil reply. That must
	// pass through and start the window, not be treated as a failure.
	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRedisRateLimitRejectsOverLimit(t *testing.T) {
	startTestRedis(t)
	router := newTestRouter(RedisRateLimitMiddleware(2, time.Minute))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "Request %d should succeed", i+1)
	}

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Contains(t, w.Body.String(), "rate_limit_exceeded")
}

func TestRedisRateLimitFailsOpenOnRedisError(t *testing.T) {
	mr := startTestRedis(t)
	router := newTestRouter(RedisRateLimitMiddleware(1, time.Minute))

	// With the server gone the counter lookup returns a transport error,
	// which is not the nil reply and must fail open.
	mr.Close()

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
