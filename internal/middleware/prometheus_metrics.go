package middleware

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/buzzboard/backend/internal/metrics"
	"github.com/gin-gonic/gin"
)

// MetricsMiddleware collects HTTP metrics for Prometheus
func MetricsMiddleware() gin.HandlerFunc {
	m := metrics.Get()

	return func(c *gin.Context) {
		method := c.Request.Method
		path := c.Request.URL.Path
		m.HTTPActiveConnections.WithLabelValues(method, path).Inc()
		defer m.HTTPActiveConnections.WithLabelValues(method, path).Dec()

		if contentLength := c.Request.ContentLength; contentLength > 0 {
			m.HTTPRequestSize.WithLabelValues(method, path).Observe(float64(contentLength))
		}

		// Wrap response writer to capture response size
		writer := &metricsResponseWriter{
			ResponseWriter: c.Writer,
			statusCode:     http.StatusOK,
			body:           &bytes.Buffer{},
		}
		c.Writer = writer

		startTime := time.Now()
		c.Next()
		duration := time.Since(startTime).Seconds()

		status := c.Writer.Status()
		// Numeric status as label so dashboards can match status=~"5.."
		statusStr := strconv.Itoa(status)

		m.HTTPRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, path, statusStr).Observe(duration)

		if responseSize := writer.body.Len(); responseSize > 0 {
			m.HTTPResponseSize.WithLabelValues(method, path, statusStr).Observe(float64(responseSize))
		}

		if status == http.StatusTooManyRequests {
			m.RateLimitExceededTotal.WithLabelValues(path, method).Inc()
		}
	}
}

// RecordError records an application error
func RecordError(errorType, endpoint string) {
	m := metrics.Get()
	m.ErrorsTotal.WithLabelValues(errorType, endpoint).Inc()
}

// RecordFeedPage records one feed page build
func RecordFeedPage(feedType string, duration time.Duration, pageSize int) {
	m := metrics.Get()
	m.FeedGenerationTime.WithLabelValues(feedType).Observe(duration.Seconds())
	m.FeedPageSize.WithLabelValues(feedType).Observe(float64(pageSize))
}

// RecordNotificationCreated counts a created notification by type
func RecordNotificationCreated(notificationType string) {
	m := metrics.Get()
	m.NotificationsCreatedTotal.WithLabelValues(notificationType).Inc()
}

// metricsResponseWriter intercepts response writes to capture size and status
type metricsResponseWriter struct {
	gin.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (w *metricsResponseWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *metricsResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
