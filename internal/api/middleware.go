package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"matching-workers/internal/common/logger"
	"matching-workers/internal/common/metrics"
)

// RequestLogger records every request in the HTTP metrics and the structured log.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)

		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(elapsed.Seconds())

		if route == "/metrics" || route == "/health" {
			return
		}
		fields := map[string]interface{}{
			"method":     c.Request.Method,
			"route":      route,
			"status":     status,
			"durationMs": elapsed.Milliseconds(),
			"clientIp":   c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}
		if status >= 500 {
			log.Error("HTTP request failed", fields)
			return
		}
		log.Info("HTTP request", fields)
	}
}
