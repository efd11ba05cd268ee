package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"trainalert.app/api"
	"trainalert.app/config"
	"trainalert.app/database"
	"trainalert.app/providers"
	"trainalert.app/providers/cache"
	"trainalert.app/repository"
	"trainalert.app/scheduler"
	"trainalert.app/service"
)

// Application represents the main application with all its dependencies
type Application struct {
	config    *config.Config
	db        *gorm.DB
	server    *api.Server
	scheduler *scheduler.Scheduler
	cancel    context.CancelFunc
}

// NewApplication creates and initializes a new application instance
func NewApplication() (*Application, error) {
	app := &Application{}

	if err := app.loadConfiguration(); err != nil {
		return nil, err
	}

	if err := app.initializeDatabase(); err != nil {
		return nil, err
	}

	if err := app.initializeServices(); err != nil {
		return nil, err
	}

	return app, nil
}

func (app *Application) loadConfiguration() error {
	slog.Info("Loading configuration...")

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return fmt.Errorf("load application configuration: %w", err)
	}

	app.config = cfg
	slog.Info("Configuration loaded successfully")
	return nil
}

func (app *Application) initializeDatabase() error {
	slog.Info("Initializing database...")

	db, err := database.InitDB(app.config.Database)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		return fmt.Errorf("initialize database connection: %w", err)
	}

	if err := database.RunMigrations(db); err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		return fmt.Errorf("run database migrations: %w", err)
	}

	if err := database.SeedCities(db, app.config.CityCodesPath); err != nil {
		slog.Error("Failed to seed city codes", "error", err)
		return fmt.Errorf("seed city codes: %w", err)
	}

	app.db = db
	slog.Info("Database initialized successfully")
	return nil
}

func (app *Application) initializeServices() error {
	slog.Info("Initializing services...")

	routeRepo := repository.NewRouteRepository(app.db)
	subscriptionRepo := repository.NewSubscriptionRepository(app.db)
	userRepo := repository.NewUserRepository(app.db)
	ticketRepo := repository.NewTicketRepository(app.db)
	cityRepo := repository.NewCityRepository(app.db)
	stationRepo := repository.NewStationRepository(app.db)

	rzdProvider := providers.NewRZDProvider(&app.config.RZD)
	notifier := providers.NewTelegramNotifier(&app.config.Telegram)

	// The search path goes through the cache; the reconciliation engine
	// always talks to the raw provider.
	searchSource := app.createSearchSource(rzdProvider)

	ticketService := service.NewTicketService(searchSource, cityRepo, stationRepo)
	subscriptionService := service.NewSubscriptionService(userRepo, routeRepo, subscriptionRepo, ticketRepo, stationRepo)
	notifierService := service.NewNotifierService(notifier, subscriptionRepo, stationRepo)
	reconciliationService := service.NewReconciliationService(routeRepo, ticketRepo, rzdProvider, notifierService)

	app.server = api.NewServer(app.db, app.config, ticketService, subscriptionService)
	app.scheduler = scheduler.NewScheduler(app.config, reconciliationService)

	slog.Info("Services initialized successfully")
	return nil
}

// createSearchSource wraps the raw provider in a result cache according to
// configuration. A redis connection failure falls back to the in-memory
// cache rather than failing startup.
func (app *Application) createSearchSource(source providers.RouteSource) providers.RouteSource {
	cacheConfig := app.config.Cache
	if cacheConfig.Type == "none" {
		return source
	}

	ttl := time.Duration(cacheConfig.TTLMinutes) * time.Minute

	if cacheConfig.Type == "redis" {
		timeout := time.Duration(cacheConfig.RedisTimeoutSecs) * time.Second
		redisCache, err := cache.NewRedisCache(&cache.RedisCacheConfig{
			Addr:         cacheConfig.RedisAddr,
			Password:     cacheConfig.RedisPassword,
			DB:           cacheConfig.RedisDB,
			DialTimeout:  timeout,
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		})
		if err == nil {
			return providers.NewCachingRouteSource(source, redisCache, ttl, "redis")
		}
		slog.Warn("Redis cache unavailable, falling back to memory cache", "error", err)
	}

	return providers.NewCachingRouteSource(source, cache.NewMemoryCache(), ttl, "memory")
}

// Start starts the application
func (app *Application) Start() error {
	slog.Info("Starting application...")

	ctx, cancel := context.WithCancel(context.Background())
	app.cancel = cancel

	slog.Info("Starting scheduler...")
	app.scheduler.Start(ctx)

	slog.Info("Starting HTTP server", "port", app.config.Server.Port)
	return app.server.Start()
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	slog.Info("Shutting down application...")

	if app.cancel != nil {
		app.cancel()
	}

	if app.db != nil {
		if err := database.CloseDB(app.db); err != nil {
			slog.Warn("Error closing database", "error", err)
		}
	}

	slog.Info("Application shutdown complete")
	return nil
}

// Config returns the application configuration
func (app *Application) Config() *config.Config {
	return app.config
}
