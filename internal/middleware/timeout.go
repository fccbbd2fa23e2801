package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/availability-api/pkg/httputil"
)

// Timeout bounds the request context. Handlers run on the request goroutine
// and see the deadline through c.Request.Context(); if it expires before
// anything was written, the client gets a 504.
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			httputil.Abort(c, http.StatusGatewayTimeout, "Request timeout")
		}
	}
}
