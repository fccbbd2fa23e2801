package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const pingTimeout = 2 * time.Second

// Pinger is satisfied by *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a ping function such as RedisBroker.Ping.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

type Handler struct {
	checks map[string]Pinger
}

// NewHandler reports ready only when every named dependency answers a ping.
func NewHandler(checks map[string]Pinger) *Handler {
	return &Handler{
		checks: checks,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	health := r.Group("/health")
	{
		health.GET("/live", h.LivenessCheck)
		health.GET("/ready", h.ReadinessCheck)
	}
}

func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}

func (h *Handler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()

	down := gin.H{}
	for name, check := range h.checks {
		if err := check.PingContext(ctx); err != nil {
			down[name] = "unreachable"
		}
	}

	if len(down) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":       "DOWN",
			"dependencies": down,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}
