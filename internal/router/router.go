package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/eventflow-api/internal/middleware"
	"github.com/jwalitptl/eventflow-api/pkg/httputil"
	"github.com/jwalitptl/eventflow-api/pkg/metrics"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type RootHandler interface {
	RegisterRoutes(gin.IRoutes)
}

type AuthHandler interface {
	RegisterRoutes(public, protected *gin.RouterGroup)
}

// Handlers groups every resource handler the router mounts
type Handlers struct {
	Auth         AuthHandler
	Events       Handler
	Admin        Handler
	Notification Handler
	Users        Handler
	Health       RootHandler
	Metrics      RootHandler
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	handlers Handlers
}

type RouterConfig struct {
	RateLimitEnabled bool
	RateLimit        rate.Limit
	RateBurst        int
	RequestTimeout   time.Duration
	CORSConfig       middleware.CORSConfig
	Security         middleware.SecurityConfig
	MaxBodySize      int64
	Metrics          *metrics.Metrics
}

func NewRouter(auth *middleware.AuthMiddleware, handlers Handlers, config RouterConfig) *Router {
	middleware.RegisterValidation()

	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
		middleware.CORS(config.CORSConfig),
		middleware.SecurityHeaders(config.Security),
		middleware.SizeLimit(config.MaxBodySize),
	)
	if config.Metrics != nil {
		engine.Use(middleware.Metrics(config.Metrics))
	}
	if config.RequestTimeout > 0 {
		engine.Use(middleware.Timeout(middleware.TimeoutConfig{Duration: config.RequestTimeout}))
	}

	engine.NoRoute(func(c *gin.Context) {
		httputil.Abort(c, http.StatusNotFound, "Route not found")
	})
	engine.NoMethod(func(c *gin.Context) {
		httputil.Abort(c, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r := &Router{
		engine:   engine,
		auth:     auth,
		handlers: handlers,
	}

	if handlers.Health != nil {
		handlers.Health.RegisterRoutes(engine)
	}
	if handlers.Metrics != nil {
		handlers.Metrics.RegisterRoutes(engine)
	}

	api := engine.Group("/api/v1")
	if config.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		api.Use(limiter.RateLimit())
	}
	r.setup(api)

	return r
}

func (r *Router) setup(api *gin.RouterGroup) {
	protected := api.Group("")
	protected.Use(r.auth.Authenticate())

	r.handlers.Auth.RegisterRoutes(api, protected)
	r.handlers.Events.RegisterRoutes(protected)
	r.handlers.Notification.RegisterRoutes(protected)
	r.handlers.Users.RegisterRoutes(protected)

	admin := protected.Group("/admin")
	admin.Use(r.auth.RequireAdmin())
	r.handlers.Admin.RegisterRoutes(admin)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.engine.ServeHTTP(w, req)
}
