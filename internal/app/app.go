package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"ansanalytics/internal/config"
	apierrors "ansanalytics/internal/errors"
	"ansanalytics/internal/infrastructure"
	"ansanalytics/internal/middleware"
	"ansanalytics/internal/services"
	"ansanalytics/internal/storage"
	httphandlers "ansanalytics/internal/transport/http"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Store         *storage.Store
	DataService   *services.DataService
	HealthService *services.HealthService
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders

	ownsOTel bool
}

// NewApplication opens the store and builds the router and server. A nil
// providers initializes telemetry from cfg; the application then shuts it
// down in Stop.
func NewApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, providers *infrastructure.OTelProviders) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.InfoContext(ctx, "application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("driver", cfg.Database.Driver))

	store, err := storage.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ownsOTel := providers == nil
	if ownsOTel {
		providers, err = infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Telemetry), logger)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
		}
	}

	app := &Application{
		Config:        cfg,
		Store:         store,
		DataService:   services.NewDataService(store, logger),
		HealthService: services.NewHealthService(config.AppVersion, store, logger),
		Logger:        logger,
		OTelProviders: providers,
		ownsOTel:      ownsOTel,
	}

	if err := app.setupRouter(); err != nil {
		store.Close()
		if ownsOTel {
			_ = providers.Shutdown(ctx)
		}
		return nil, err
	}
	app.createServer()

	return app, nil
}

// setupRouter builds the middleware chain: RequestID → RealIP → telemetry
// → logger → recoverer → headers → CORS → rate limit.
func (a *Application) setupRouter() error {
	errorHandler := apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Development)

	telemetry, err := middleware.NewTelemetry(a.OTelProviders)
	if err != nil {
		return fmt.Errorf("failed to create telemetry middleware: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(telemetry.Handler)
	r.Use(middleware.StructuredLogger(a.Logger))
	r.Use(apierrors.RecoveryMiddleware(errorHandler))
	r.Use(middleware.SecurityHeaders)

	if a.Config.Security.EnableCORS {
		r.Use(middleware.CORS(middleware.CORSConfig{
			AllowedOrigins: a.Config.Security.AllowedOrigins,
			Logger:         a.Logger,
		}))
	}

	if a.Config.Security.RateLimit.Enabled {
		r.Use(middleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
			errorHandler,
		).Handler)
	}

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	dataHandler := httphandlers.NewDataHandler(a.DataService, a.Logger, errorHandler)
	healthHandler := httphandlers.NewHealthHandler(a.HealthService, a.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/version", healthHandler.Version)
		r.Mount("/", dataHandler.Routes())
	})

	r.Handle("/metrics", httphandlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP))

	a.Router = r
	return nil
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start serves in the background. A listen failure calls cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "starting HTTP server",
		slog.String("address", a.Server.Addr))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if a.Server != nil {
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database close: %w", err))
		}
	}
	if a.ownsOTel && a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	a.Logger.InfoContext(ctx, "application shutdown complete")
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "received interrupt signal")
	case <-ctx.Done():
	}

	return a.Stop(context.Background())
}
