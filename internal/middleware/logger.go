package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"gigmarket/internal/monitor"
	"gigmarket/pkg/log"
)

// Logger logs each request and feeds the HTTP metrics
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		monitor.HTTPRequestTotal.WithLabelValues(
			c.Request.Method, path, strconv.Itoa(status)).Inc()
		monitor.HTTPRequestDuration.WithLabelValues(
			c.Request.Method, path).Observe(duration.Seconds())

		entry := log.WithFields(map[string]interface{}{
			"method":   c.Request.Method,
			"path":     path,
			"status":   status,
			"duration": duration.String(),
			"client":   c.ClientIP(),
		})

		switch {
		case status >= 500:
			entry.Error("Request failed")
		case status >= 400:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request handled")
		}
	}
}
