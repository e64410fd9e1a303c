// internal/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"link-service/internal/config"
	"link-service/internal/handler"
	"link-service/internal/metrics"
	"link-service/internal/middleware"
	"link-service/internal/service"
	"link-service/internal/utils"
)

// Router holds all dependencies for routing
type Router struct {
	config           *config.Config
	logger           *zap.Logger
	linkService      *service.LinkService
	discoveryService *service.DiscoveryService
	metrics          *metrics.Metrics

	wsHandler *handler.WebSocketHandler
}

// NewRouter creates a new router instance. m may be nil when metrics are disabled.
func NewRouter(
	config *config.Config,
	logger *zap.Logger,
	linkService *service.LinkService,
	discoveryService *service.DiscoveryService,
	eventBus *handler.EventBus,
	m *metrics.Metrics,
) *Router {
	return &Router{
		config:           config,
		logger:           logger,
		linkService:      linkService,
		discoveryService: discoveryService,
		metrics:          m,
		wsHandler:        handler.NewWebSocketHandler(linkService, eventBus, config.Security.AllowedOrigins, logger),
	}
}

// WebSocketHandler returns the event stream handler so its forwarder can be run
func (r *Router) WebSocketHandler() *handler.WebSocketHandler {
	return r.wsHandler
}

// SetupRouter creates and configures the Gin router
func (r *Router) SetupRouter() *gin.Engine {
	if r.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else if r.config.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	r.addMiddleware(router)
	r.addRoutes(router)

	return router
}

// addMiddleware adds middleware to the router
func (r *Router) addMiddleware(router *gin.Engine) {
	// Request ID first so recovery and access logs can carry it
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RecoveryMiddleware(r.logger))

	serviceLogger := utils.NewServiceLogger(r.logger, "http-server")
	router.Use(middleware.LoggingMiddleware(serviceLogger))

	router.Use(middleware.CORSMiddleware(&r.config.Security))

	r.logger.Info("Middleware configured")
}

// addRoutes sets up all application routes
func (r *Router) addRoutes(router *gin.Engine) {
	healthHandler := handler.NewHealthHandler(r.linkService, r.config, r.logger)
	linkHandler := handler.NewLinkHandler(r.linkService, r.logger)
	discoveryHandler := handler.NewDiscoveryHandler(r.discoveryService, r.logger)

	healthHandler.RegisterRoutes(router.Group(""))

	apiV1 := router.Group("/api/v1")
	linkHandler.RegisterRoutes(apiV1)
	discoveryHandler.RegisterRoutes(apiV1)

	r.wsHandler.RegisterRoutes(router.Group("/ws"))

	if r.metrics != nil && r.config.Metrics.Enabled {
		router.GET(r.config.Metrics.Path, gin.WrapH(r.metrics.Handler()))
	}

	r.logger.Info("All routes configured successfully")
}
