package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	memcache "github.com/SscSPs/family_ledger_app/internal/adapters/cache"
	"github.com/SscSPs/family_ledger_app/internal/adapters/database/pgsql"
	"github.com/SscSPs/family_ledger_app/internal/core/services"
	"github.com/SscSPs/family_ledger_app/internal/handlers"
	"github.com/SscSPs/family_ledger_app/internal/middleware"
	"github.com/SscSPs/family_ledger_app/pkg/config"
	"github.com/SscSPs/family_ledger_app/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	limitermem "github.com/ulule/limiter/v3/drivers/store/memory"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection pool (for application use)
	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()
	logger.Info("Database connection pool established.")

	if err := runMigrations(logger, cfg.DatabaseURL); err != nil {
		os.Exit(1)
	}

	// Wire repositories, price lookup, cache and services
	repos := pgsql.NewRepositoryProvider(dbPool)
	priceLookup := pgsql.NewPriceLookup(dbPool)
	balanceCache := memcache.NewMemoryBalanceCache()
	serviceContainer := services.NewServiceContainer(repos, priceLookup, balanceCache, services.ContainerConfig{
		StoreRetryMax:      cfg.StoreRetryMax,
		PriceLookupTimeout: cfg.PriceLookupTimeout,
	})

	// Set up the HTTP surface
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.StructuredLoggingMiddleware(logger))
	router.Use(cors.Default())

	rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
	if err != nil {
		logger.Error("Invalid rate limit format", slog.String("error", err.Error()))
		os.Exit(1)
	}
	router.Use(middleware.RateLimit(limiter.New(limitermem.NewStore(), rate)))

	handlers.RegisterRoutes(router, serviceContainer)

	logger.Info("Starting server", slog.String("port", cfg.Port))
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Error("Server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// runMigrations applies all pending "up" migrations using a temporary
// database/sql connection on the pgx stdlib driver.
func runMigrations(logger *slog.Logger, databaseURL string) error {
	logger.Info("Running database migrations...")
	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		logger.Error("Failed to open database connection for migrations", slog.String("error", err.Error()))
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		logger.Error("Could not create postgres driver instance for migrations", slog.String("error", err.Error()))
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		logger.Error("Could not create migrate instance", slog.String("error", err.Error()))
		return err
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Database migrations applied.")
	return nil
}
