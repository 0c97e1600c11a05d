package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jwalitptl/hospital-core/internal/config"
	"github.com/jwalitptl/hospital-core/internal/handler/health"
	"github.com/jwalitptl/hospital-core/internal/middleware"
	"github.com/jwalitptl/hospital-core/pkg/metrics"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Router struct {
	engine  *gin.Engine
	auth    *middleware.AuthMiddleware
	healthH *health.Handler
	// branch-scoped entity handlers, registered behind authentication
	protected []Handler
}

func NewRouter(
	cfg *config.Config,
	m *metrics.Metrics,
	auth *middleware.AuthMiddleware,
	healthH *health.Handler,
	protected ...Handler,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.ErrorHandler(),
		middleware.Metrics(m),
		middleware.CORS(middleware.DefaultCORSConfig()),
	)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit)
	engine.Use(rateLimiter.RateLimit())

	return &Router{
		engine:    engine,
		auth:      auth,
		healthH:   healthH,
		protected: protected,
	}
}

func (r *Router) Setup() {
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.healthH.RegisterRoutes(api)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	for _, h := range r.protected {
		h.RegisterRoutes(protected)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
