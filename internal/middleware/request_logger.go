package middleware

import (
	"time"

	"dashboard-auth/internal/logger"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs one line per request. Query strings are left out
// since the OAuth callback carries the authorization code there.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		fields := map[string]any{
			"method":      c.Request.Method,
			"route":       route,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          c.ClientIP(),
		}

		if c.Writer.Status() >= 500 {
			logger.Error("request", fields)
			return
		}
		logger.Info("request", fields)
	}
}
