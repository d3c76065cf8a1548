package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/wonny/stockmarket/internal/api/handlers"
	"github.com/wonny/stockmarket/internal/api/middleware"
	"github.com/wonny/stockmarket/internal/pkg/config"
	"github.com/wonny/stockmarket/internal/pkg/logger"
	"github.com/wonny/stockmarket/internal/pkg/metrics"
	"github.com/wonny/stockmarket/internal/service/notify"
)

// Dependencies are the collaborators the HTTP layer serves
type Dependencies struct {
	Stocks   handlers.StockService
	Storage  handlers.HealthChecker
	Hub      *notify.Hub
	Tokens   middleware.TokenParser // required when auth is enabled
	Registry *prometheus.Registry
	Version  string
}

// Router holds all dependencies for API routing
type Router struct {
	engine              *gin.Engine
	config              *config.Config
	tokens              middleware.TokenParser
	registry            *prometheus.Registry
	origins             *middleware.OriginPolicy
	healthHandler       *handlers.HealthHandler
	stockHandler        *handlers.StockHandler
	notificationHandler *handlers.NotificationHandler
}

// NewRouter creates a new API router with all dependencies
func NewRouter(cfg *config.Config, deps Dependencies) *Router {
	gin.SetMode(cfg.Server.Mode)

	router := &Router{
		engine:        gin.New(),
		config:        cfg,
		tokens:        deps.Tokens,
		registry:      deps.Registry,
		healthHandler: handlers.NewHealthHandler(deps.Storage, deps.Hub, deps.Version),
		stockHandler:  handlers.NewStockHandler(deps.Stocks),
		origins:       middleware.NewOriginPolicy(cfg.CORS.AllowOrigins),
	}
	router.notificationHandler = handlers.NewNotificationHandler(deps.Hub, router.origins.CheckRequest)

	router.setupMiddlewares()
	router.setupRoutes()

	return router
}

// setupMiddlewares configures all global middlewares
func (r *Router) setupMiddlewares() {
	// Recovery middleware (must be first)
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.RequestID())

	accessLogger := logger.NewAccessLogger(logger.Config{
		FileEnabled:   r.config.Logging.FileEnabled,
		FilePath:      r.config.Logging.FilePath,
		RotationSize:  r.config.Logging.RotationSize,
		RetentionDays: r.config.Logging.RetentionDays,
	})
	r.engine.Use(middleware.Logging(middleware.LoggingConfig{
		AccessLogger: &accessLogger,
		SkipRoutes:   []string{"/health", "/health/ready", "/metrics"},
	}))

	r.engine.Use(middleware.CORS(r.origins))
}

// setupRoutes configures all API routes
func (r *Router) setupRoutes() {
	// Health checks and metrics (no /api prefix, no auth)
	r.engine.GET("/health", r.healthHandler.Health)
	r.engine.GET("/health/ready", r.healthHandler.Ready)
	if r.registry != nil {
		r.engine.GET("/metrics", gin.WrapH(metrics.Handler(r.registry)))
	}

	protected := r.engine.Group("")
	if r.config.Auth.Enabled {
		protected.Use(middleware.Auth(r.tokens))
	}

	protected.GET("/notificationHub", r.notificationHandler.Stream)

	api := protected.Group("/api")
	{
		api.GET("/health/detailed", r.healthHandler.Detailed)

		stocks := api.Group("/stock")
		{
			stocks.GET("", r.stockHandler.List)
			stocks.GET("/:code", r.stockHandler.Get)
			stocks.POST("", r.stockHandler.Create)
			stocks.PUT("", r.stockHandler.Update)
			stocks.DELETE("/:code", r.stockHandler.Delete)
			stocks.PATCH("/:code", r.stockHandler.Patch)
			stocks.PATCH("", r.stockHandler.PatchPrice)
		}
	}
}

// Engine returns the underlying Gin engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
