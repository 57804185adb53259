package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const defaultCORSOrigin = "http://localhost:5173"

// CORS allows the configured frontend origin. An empty origin falls back to
// the local development server.
func CORS(origin string) gin.HandlerFunc {
	if origin == "" {
		origin = defaultCORSOrigin
	}
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		// Handle preflight request
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}
