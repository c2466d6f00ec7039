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
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/aussiebroadwan/sessiond/internal/auth/http"
	"github.com/aussiebroadwan/sessiond/internal/auth/service"
	"github.com/aussiebroadwan/sessiond/internal/auth/store"
	"github.com/aussiebroadwan/sessiond/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/sessiond/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/sessiond/pkg/cryptox"
	"github.com/aussiebroadwan/sessiond/pkg/jwtx"
	"github.com/aussiebroadwan/sessiond/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"

	verifierLeeway = 30 * time.Second
)

// Application encapsulates the session service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	hasher   *cryptox.PasswordHasher
	signer   jwtx.Signer
	verifier jwtx.Verifier
	registry *prometheus.Registry

	// Services
	sessions            *service.SessionManager
	limiter             *service.AttemptLimiter
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "sessiond",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initCrypto(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	if err := app.seedAdmin(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initHTTP()

	return app, nil
}

// Handler returns the root HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()
	if app.limiter != nil {
		app.limiter.Start()
	}

	app.logger.Info("session service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"driver", app.cfg.DatabaseDriver,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down session service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()
	if app.limiter != nil {
		app.limiter.Stop()
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("session service stopped")
	return nil
}

// initDatabase opens the configured store and applies migrations
func (app *Application) initDatabase() error {
	switch app.cfg.DatabaseDriver {
	case DriverPostgres:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		db, err := postgres.NewStore(ctx, app.cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		app.db = db
	default:
		db, err := sqlite.NewStore(sqlite.DSN(app.cfg.DatabaseFile))
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		app.db = db
	}

	if err := app.db.ApplyMigrations(); err != nil {
		_ = app.db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DatabaseDriver)
	return nil
}

// initCrypto loads the pepper and the token signing secret
func (app *Application) initCrypto() error {
	pepper, err := cryptox.LoadOrCreatePepper(app.cfg.PepperFile)
	if err != nil {
		return fmt.Errorf("failed to load pepper: %w", err)
	}
	app.hasher = cryptox.NewPasswordHasher(pepper)

	secret, err := loadJWTSecret(app.cfg, app.logger)
	if err != nil {
		return err
	}
	signer, err := jwtx.NewSignerHS256(secret)
	if err != nil {
		return fmt.Errorf("failed to create signer: %w", err)
	}
	app.signer = signer
	app.verifier = jwtx.NewVerifierHS256(secret, app.cfg.Issuer, app.cfg.Audiences, verifierLeeway)
	return nil
}

// initServices initializes the session manager and its collaborators
func (app *Application) initServices() error {
	sessions, err := service.NewSessionManager(app.db, app.hasher, app.signer, app.cfg.Policy())
	if err != nil {
		return fmt.Errorf("failed to create session manager: %w", err)
	}

	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := service.NewMetrics(app.registry)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	sessions.Metrics = metrics

	// A nil *AttemptLimiter must not end up in the interface field.
	if limiter := service.NewAttemptLimiter(app.cfg.LockoutThreshold, app.cfg.LockoutWindow); limiter != nil {
		app.limiter = limiter
		sessions.Throttle = limiter
	}

	app.sessions = sessions
	app.housekeepingService = service.NewHousekeepingService(
		sessions,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	return nil
}

// seedAdmin creates the configured admin when the users table is empty
func (app *Application) seedAdmin() error {
	if app.cfg.AdminEmail == "" {
		return nil
	}

	bs := &service.BootstrapService{Store: app.db, Hasher: app.hasher}
	created, err := bs.SeedAdmin(context.Background(), app.cfg.AdminEmail, app.cfg.AdminPassword, "Administrator")
	if err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}
	if created {
		app.logger.Info("admin user seeded", "email", app.cfg.AdminEmail)
	}
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.verifier,
		BuildVersion,
		app.db,
		app.sessions,
		app.logger,
		app.cfg.RequestTimeout,
	)
	router.Metrics = promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{})
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
