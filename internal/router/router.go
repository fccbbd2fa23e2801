package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/availability-api/internal/handler/appointment"
	"github.com/jwalitptl/availability-api/internal/handler/availability"
	"github.com/jwalitptl/availability-api/internal/handler/health"
	"github.com/jwalitptl/availability-api/internal/handler/prometheus"
	"github.com/jwalitptl/availability-api/internal/handler/schedule"
	"github.com/jwalitptl/availability-api/internal/middleware"
	"github.com/jwalitptl/availability-api/internal/model"
	"github.com/jwalitptl/availability-api/pkg/logger"
)

type Router struct {
	engine        *gin.Engine
	auth          *middleware.AuthMiddleware
	availabilityH *availability.Handler
	scheduleH     *schedule.Handler
	appointmentH  *appointment.Handler
	healthH       *health.Handler
	metricsH      *prometheus.Handler
	rateLimiter   *middleware.RateLimiter
}

type RouterConfig struct {
	RateLimitEnabled bool
	RateLimit        rate.Limit
	RateBurst        int
	CORSConfig       middleware.CORSConfig
	RequestTimeout   time.Duration
	MaxBodySize      int64
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	availabilityH *availability.Handler,
	scheduleH *schedule.Handler,
	appointmentH *appointment.Handler,
	healthH *health.Handler,
	metricsH *prometheus.Handler,
	log *logger.Logger,
	config RouterConfig,
) *Router {
	engine := gin.New()

	r := &Router{
		engine:        engine,
		auth:          auth,
		availabilityH: availabilityH,
		scheduleH:     scheduleH,
		appointmentH:  appointmentH,
		healthH:       healthH,
		metricsH:      metricsH,
	}
	if config.RateLimitEnabled {
		r.rateLimiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
	}
	if config.MaxBodySize <= 0 {
		config.MaxBodySize = middleware.DefaultMaxBodySize
	}

	// Add core middlewares
	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(log),
		middleware.Logger(log),
		metricsH.Middleware(),
		middleware.SecurityHeaders(),
		middleware.CORS(config.CORSConfig),
		middleware.SizeLimit(config.MaxBodySize),
		middleware.Timeout(config.RequestTimeout),
	)

	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	// Health check endpoints
	r.healthH.RegisterRoutes(api)
	api.GET("/health/metrics", r.metricsH.Handler())

	// Public routes
	public := api.Group("")
	if r.rateLimiter != nil {
		public.Use(r.rateLimiter.RateLimit())
	}
	r.availabilityH.RegisterRoutes(public)

	// Protected routes
	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	write := protected.Group("")
	write.Use(r.auth.RequireRole(model.RoleAdmin, model.RoleStaff))

	r.scheduleH.RegisterRoutes(protected, write)
	r.appointmentH.RegisterRoutes(protected, write)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
