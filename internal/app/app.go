package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/robfig/cron/v3"

	"policydash/internal/config"
	apierrors "policydash/internal/errors"
	"policydash/internal/infrastructure"
	customMiddleware "policydash/internal/middleware"
	"policydash/internal/services"
	"policydash/internal/session"
	handlers "policydash/internal/transport/http"
	api "policydash/pkg/contracts/api/v1"
)

// multipartOverhead is allowed on top of the upload limit for form fields
// and part headers.
const multipartOverhead = 1 << 20

// Application represents the main application container
type Application struct {
	Config           *config.Config
	Router           *chi.Mux
	Server           *http.Server
	Store            *session.Store
	DashboardService *services.DashboardService
	HealthService    *services.HealthService
	Metrics          *infrastructure.BusinessMetrics
	Logger           *slog.Logger
	OTelProviders    *infrastructure.OTelProviders
	FrontendFS       fs.FS // Embedded frontend filesystem

	sweeper *cron.Cron
}

// NewApplication loads configuration from the environment and wires the
// application.
func NewApplication(frontendFS fs.FS) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, apierrors.NewConfigError("failed to load configuration", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion))

	return New(cfg, logger, frontendFS)
}

// New wires the application from an already loaded configuration.
func New(cfg *config.Config, logger *slog.Logger, frontendFS fs.FS) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		FrontendFS:    frontendFS,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	if err := app.setupRouter(); err != nil {
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}
	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	metrics, err := infrastructure.CreateBusinessMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create business metrics: %w", err)
	}
	a.Metrics = metrics

	loc, err := a.Config.Location()
	if err != nil {
		return err
	}

	// The hook runs with the store lock held, so it only touches the meter.
	a.Store = session.NewStore(session.Options{
		MaxSessions: a.Config.Session.MaxSessions,
		TTL:         a.Config.Session.TTL,
		OnRemove: func(string) {
			metrics.SessionDelta(context.Background(), -1)
		},
	}, a.Logger)

	a.DashboardService = services.NewDashboardService(a.Store, services.DashboardOptions{
		Metrics:        metrics,
		Currency:       a.Config.Report.Currency,
		Location:       loc,
		MaxUploadBytes: a.Config.Upload.MaxBytes,
	}, a.Logger)

	a.HealthService = services.NewHealthService(config.AppVersion, a.Store, a.Logger)
	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() error {
	r := chi.NewRouter()
	errorHandler := apierrors.NewErrorHandler(a.Logger, false)

	// Ordering: RequestID, RealIP, OTel, Recoverer, then a logger per route group
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	// Prometheus is scraped outside the instrumented group.
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle(config.MetricsEndpoint, a.OTelProviders.PrometheusHTTP)
	}

	var pages *handlers.PageHandler
	if a.FrontendFS != nil {
		var err error
		pages, err = handlers.NewPageHandler(a.FrontendFS, handlers.PageData{
			Title:    config.AppTitle,
			Version:  config.AppVersion,
			Currency: a.Config.Report.Currency,
			Scopes:   api.ChartScopes,
		}, a.Logger)
		if err != nil {
			return fmt.Errorf("failed to load frontend: %w", err)
		}
	}

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.NewOTelMiddleware(a.Metrics, a.Logger).Handler)
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
				AllowedOrigins:   a.Config.Security.AllowedOrigins,
				AllowCredentials: true,
				Logger:           a.Logger,
			}))
		}
		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.StructuredLogger(a.Logger))
			r.Get(config.HealthEndpoint, healthHandler.LivenessCheck)
			r.Get(config.ReadyEndpoint, healthHandler.ReadinessCheck)

			if pages != nil {
				r.Get("/", pages.ServeIndex)
				r.Handle("/static/*", pages.ServeStatic())
			}
		})

		// API requests are logged by the error middleware, which adds the
		// sanitized JSON body of failed requests.
		r.Route(config.APIBasePath, func(r chi.Router) {
			r.Use(apierrors.NewErrorMiddleware(errorHandler, a.Logger).Handler)
			r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))
			r.Use(customMiddleware.MaxBodySize(a.Config.Upload.MaxBytes + multipartOverhead))

			r.Get("/version", healthHandler.Version)

			dashboardHandler := handlers.NewDashboardHandler(a.DashboardService, handlers.CookieOptions{
				Name:   a.Config.Session.CookieName,
				Secure: a.Config.Session.SecureCookie,
				TTL:    a.Config.Session.TTL,
			}, a.Logger, errorHandler)
			r.Mount("/", dashboardHandler.Routes())
		})

		r.NotFound(errorHandler.NotFound)
		r.MethodNotAllowed(errorHandler.MethodNotAllowed)
	})

	a.Router = r
	return nil
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Addr(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts the session sweeper and the HTTP server. A listener failure
// cancels ctx through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("address", a.Server.Addr),
		slog.String("level", a.Config.Logging.Level))

	loc, err := a.Config.Location()
	if err != nil {
		return err
	}
	sweeper, err := session.StartSweeper(ctx, a.Store, a.Config.Session.SweepSchedule, loc, a.Logger)
	if err != nil {
		return err
	}
	a.sweeper = sweeper

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", a.Server.Addr))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.sweeper != nil {
		<-a.sweeper.Stop().Done()
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	if err := infrastructure.CloseLogFile(); err != nil {
		a.Logger.ErrorContext(ctx, "Error closing log file", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
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
	case sig := <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		a.Logger.WarnContext(ctx, "Server stopped unexpectedly")
	}

	// The run context may already be cancelled; shutdown gets its own.
	stopCtx, stopCancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout+5*time.Second)
	defer stopCancel()
	return a.Stop(stopCtx)
}
