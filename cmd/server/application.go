// cmd/server/application.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"link-service/internal/config"
	"link-service/internal/handler"
	"link-service/internal/metrics"
	"link-service/internal/routes"
	"link-service/internal/service"
	"link-service/internal/utils"
)

// Application represents the main application
type Application struct {
	config *config.Config
	logger *zap.Logger
	server *http.Server

	eventBus  *handler.EventBus
	wsHandler *handler.WebSocketHandler
	metrics   *metrics.Metrics

	// Services
	linkService      *service.LinkService
	discoveryService *service.DiscoveryService
}

// NewApplication creates a new application instance
func NewApplication(cfg *config.Config) (*Application, error) {
	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	serviceLogger := utils.NewServiceLogger(logger, "link-service")
	serviceLogger.LogServiceStart(cfg.App.Version, cfg)

	app := &Application{
		config:   cfg,
		logger:   logger,
		eventBus: handler.NewEventBus(logger),
	}
	if cfg.Metrics.Enabled {
		app.metrics = metrics.New()
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initializeServer()

	return app, nil
}

// initializeServices creates service instances
func (app *Application) initializeServices() error {
	opts := []service.LinkServiceOption{service.WithPublisher(app.eventBus)}
	if app.metrics != nil {
		opts = append(opts, service.WithMetrics(app.metrics))
	}

	linkService, err := service.NewLinkService(app.config, app.logger, opts...)
	if err != nil {
		return err
	}
	app.linkService = linkService
	app.discoveryService = service.NewDiscoveryService(&app.config.Discovery, app.logger)

	app.logger.Info("Services initialized successfully",
		zap.String("worker_body", app.config.Worker.Body),
		zap.Duration("worker_interval", app.config.Worker.Interval),
	)
	return nil
}

// initializeServer sets up HTTP server and routes
func (app *Application) initializeServer() {
	routerManager := routes.NewRouter(
		app.config,
		app.logger,
		app.linkService,
		app.discoveryService,
		app.eventBus,
		app.metrics,
	)
	app.wsHandler = routerManager.WebSocketHandler()

	app.server = &http.Server{
		Addr:         app.config.GetServerAddr(),
		Handler:      routerManager.SetupRouter(),
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  app.config.Server.IdleTimeout,
	}

	app.logger.Info("HTTP server initialized",
		zap.String("address", app.config.GetServerAddr()),
		zap.Bool("tls_enabled", app.config.Server.TLS.Enabled),
	)
}

// Run serves until ctx is cancelled or a component fails, then shuts
// everything down. The link worker is stopped before Run returns.
func (app *Application) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer utils.LogPanic(app.logger)
		return app.linkService.Run(gctx)
	})
	g.Go(func() error {
		return app.eventBus.Run(gctx)
	})
	g.Go(func() error {
		return app.wsHandler.Run(gctx)
	})
	g.Go(func() error {
		app.logger.Info("Starting HTTP server", zap.String("address", app.server.Addr))

		var err error
		if app.config.Server.TLS.Enabled {
			err = app.server.ListenAndServeTLS(app.config.Server.TLS.CertFile, app.config.Server.TLS.KeyFile)
		} else {
			err = app.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return app.shutdownServer()
	})

	err := g.Wait()
	app.shutdown(err)
	return err
}

func (app *Application) shutdownServer() error {
	ctx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("HTTP server shutdown error", zap.Error(err))
		return err
	}
	app.logger.Info("HTTP server stopped")
	return nil
}

// shutdown logs the stop reason and flushes the logger
func (app *Application) shutdown(cause error) {
	reason := "shutdown signal received"
	if cause != nil {
		reason = cause.Error()
	}
	utils.NewServiceLogger(app.logger, "link-service").LogServiceStop(reason)
	app.logger.Info("Application shutdown completed")

	if err := utils.CloseLogger(app.logger); err != nil {
		fmt.Printf("Logger close error: %v\n", err)
	}
}
