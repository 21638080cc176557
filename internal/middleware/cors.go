package middleware

import (
	"github.com/gin-gonic/gin"
)

// CORS allows the branch POS clients (browser and desktop shells) to call the
// API from their own origins. Preflight responses are cached for 12h so
// offline clients on flaky links don't pay an OPTIONS round trip per sync.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
		c.Header("Access-Control-Expose-Headers", "X-Request-ID")
		c.Header("Access-Control-Max-Age", "43200")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
