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
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/ordersaga/internal/config"
	"github.com/cypherlabdev/ordersaga/internal/gateway"
	gatewayHandler "github.com/cypherlabdev/ordersaga/internal/gateway/handler/http"
	healthhttp "github.com/cypherlabdev/ordersaga/internal/handler/http"
	"github.com/cypherlabdev/ordersaga/internal/httpmiddleware"
)

func main() {
	cfg := config.LoadGateway()

	logger := initLogger(cfg.Logging)
	logger.Info().Str("service", cfg.Service.Name).Str("environment", cfg.Service.Environment).Msg("gateway starting")

	client := gateway.NewClient()
	handler := gatewayHandler.New(client, cfg.OrderServiceURL, cfg.InventoryServiceURL, cfg.SagaServiceURL, cfg.MarketingServiceURL, logger)

	router := chi.NewRouter()
	router.Use(httpmiddleware.Recoverer(logger))
	router.Use(httpmiddleware.RequestLogger(logger))
	router.Use(httpmiddleware.CORS)
	router.Get("/health", healthhttp.HealthHandler())
	router.Handle("/metrics", promhttp.Handler())
	handler.Routes(router)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second, // the place-order fan-out makes two sequential downstream calls
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
