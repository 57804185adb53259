package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/osassistant/backend/internal/logger"
)

// RequestLogger logs one line per request through the application logger.
// Health checks are logged at debug level.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Start timer
		start := time.Now()

		// Process request
		c.Next()

		fields := map[string]interface{}{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"latency":   time.Since(start).String(),
			"client_ip": c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		switch {
		case c.Request.URL.Path == "/health":
			logger.Debug("API request", fields)
		case c.Writer.Status() >= 500:
			logger.Error("API request", fields)
		case c.Writer.Status() >= 400:
			logger.Warn("API request", fields)
		default:
			logger.Info("API request", fields)
		}
	}
}
