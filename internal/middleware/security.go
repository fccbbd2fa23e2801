package middleware

import (
	"github.com/gin-gonic/gin"
)

// SecurityHeaders sets the headers a JSON API needs. Responses are marked
// no-store: availability changes with every booking and must be re-read.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
