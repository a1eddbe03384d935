package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tender-discovery-api/internal/api"
	"github.com/tender-discovery-api/internal/config"
	"github.com/tender-discovery-api/internal/database"
	"github.com/tender-discovery-api/internal/repository"
	"github.com/tender-discovery-api/internal/service"
	"github.com/tender-discovery-api/pkg/logger"
)

func main() {
	migrateDown := flag.Bool("migrate-down", false, "roll back the last migration and exit")
	flag.Parse()

	// Bootstrap logger until the configured level is known
	log := logger.New("info", os.Getenv("LOG_FORMAT"))
	log.Info().Msg("Starting Tender Discovery API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log = logger.New(cfg.Log.Level, cfg.Log.Format)

	// Initialize database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if *migrateDown {
		if err := db.MigrateDown(cfg.Server.MigrationsPath); err != nil {
			log.Fatal().Err(err).Msg("Failed to roll back migration")
		}
		log.Info().Msg("Rolled back last migration")
		return
	}

	// Run migrations
	if err := db.RunMigrations(cfg.Server.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	repos := repository.New(db)
	if n, err := repos.UserRecords.Count(context.Background()); err == nil {
		log.Info().Int("user_records", n).Msg("User record store ready")
	}

	// Initialize upstream clients and services
	upstreams := service.NewUpstreams(&cfg.Upstream, log)
	services := service.NewServices(repos, upstreams, cfg, log)

	// Start preference mirror
	go services.Mirror.StartProcessor(context.Background())
	log.Info().Msg("Preference mirror processor started")

	// Initialize router
	router := api.NewRouter(services, cfg, log, db.HealthCheck)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop the mirror once no handler can enqueue
	services.Mirror.StopProcessor()

	log.Info().Msg("Server exited gracefully")
}
