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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/ordersaga/internal/bus"
	"github.com/cypherlabdev/ordersaga/internal/config"
	healthhttp "github.com/cypherlabdev/ordersaga/internal/handler/http"
	"github.com/cypherlabdev/ordersaga/internal/httpmiddleware"
	"github.com/cypherlabdev/ordersaga/internal/observability"
	"github.com/cypherlabdev/ordersaga/internal/saga"
	sagaHandler "github.com/cypherlabdev/ordersaga/internal/saga/handler/http"
)

func main() {
	cfg := config.LoadSaga()

	logger := initLogger(cfg.Logging)
	logger.Info().Str("service", cfg.Service.Name).Str("environment", cfg.Service.Environment).Msg("saga orchestrator starting")

	metrics := observability.NewMetrics()

	redisOpts, err := redis.ParseURL(cfg.Bus.URL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse bus URL")
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	publisher := bus.NewPublisher(redisClient, logger)
	orchestrator := saga.New(cfg.OrderServiceURL, cfg.InventoryServiceURL, publisher, metrics, logger)
	handler := sagaHandler.New(orchestrator, logger)

	router := chi.NewRouter()
	router.Use(httpmiddleware.Recoverer(logger))
	router.Use(httpmiddleware.RequestLogger(logger))
	router.Get("/health", healthhttp.HealthHandler())
	router.Get("/ready", healthhttp.ReadyHandler(logger, healthhttp.Pinger{Name: "bus", Ping: func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	}}))
	router.Handle("/metrics", promhttp.Handler())
	handler.Routes(router)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 100 * time.Second, // up to 3 sequential 30s downstream calls (forward + compensation)
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
