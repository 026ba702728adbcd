package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/ordersaga/internal/bus"
	"github.com/cypherlabdev/ordersaga/internal/config"
	"github.com/cypherlabdev/ordersaga/internal/eventstore"
	healthhttp "github.com/cypherlabdev/ordersaga/internal/handler/http"
	"github.com/cypherlabdev/ordersaga/internal/httpmiddleware"
	inventoryHandler "github.com/cypherlabdev/ordersaga/internal/inventory/handler/http"
	"github.com/cypherlabdev/ordersaga/internal/inventory/repository"
	"github.com/cypherlabdev/ordersaga/internal/inventory/service"
	"github.com/cypherlabdev/ordersaga/internal/observability"
)

func main() {
	cfg := config.LoadInventoryAuthority()

	logger := initLogger(cfg.Logging)
	logger.Info().Str("service", cfg.Service.Name).Str("environment", cfg.Service.Environment).Msg("inventory authority starting")

	metrics := observability.NewMetrics()

	dbPool, err := pgxpool.New(context.Background(), cfg.Database.URL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer dbPool.Close()
	if err := dbPool.Ping(context.Background()); err != nil {
		logger.Fatal().Err(err).Msg("failed to ping database")
	}
	logger.Info().Msg("database connection established")

	redisOpts, err := redis.ParseURL(cfg.Bus.URL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse bus URL")
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	store := eventstore.New(dbPool, logger)
	repo := repository.New(dbPool, logger)
	publisher := bus.NewPublisher(redisClient, logger)
	svc := service.New(dbPool, store, repo, publisher, metrics, logger)
	handler := inventoryHandler.New(svc, repo, logger)

	router := chi.NewRouter()
	router.Use(httpmiddleware.Recoverer(logger))
	router.Use(httpmiddleware.RequestLogger(logger))
	router.Get("/health", healthhttp.HealthHandler())
	router.Get("/ready", healthhttp.ReadyHandler(logger, healthhttp.Pinger{Name: "database", Ping: dbPool.Ping}))
	router.Handle("/metrics", promhttp.Handler())
	handler.Routes(router)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.HTTP.Port).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}
	logger.Info().Msg("shutdown complete")
}

func initLogger(cfg config.LoggingConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Caller().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()
}
