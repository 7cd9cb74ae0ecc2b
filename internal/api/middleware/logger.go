package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"ledgersync/internal/logger"
)

func Logger(logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		switch {
		case status >= 500:
			logger.Error("%s %s %d %s %s", c.Request.Method, path, status, latency, c.ClientIP())
		case status >= 400:
			logger.Warn("%s %s %d %s %s", c.Request.Method, path, status, latency, c.ClientIP())
		default:
			logger.Info("%s %s %d %s %s", c.Request.Method, path, status, latency, c.ClientIP())
		}
	}
}
