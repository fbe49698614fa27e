package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"linewatch-worker-go/internal/config"
	"linewatch-worker-go/internal/logging"
	"linewatch-worker-go/internal/services"
)

// @title LineWatch Worker API
// @version 1.0.0
// @description Per-camera line counting and alarm worker: camera administration, live view, logs and artifacts
// @BasePath /
// @securityDefinitions.apikey AdminToken
// @in header
// @name Authorization
// @description Bearer token checked against ADMIN_TOKEN_HASH
func main() {
	// Setup structured logging
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Load configuration
	cfg := config.Load()

	if cfg.LogdyEnabled {
		ld, _, err := logging.StartLogdy(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("Logdy disabled")
		} else {
			log.Logger = log.Output(zerolog.MultiLevelWriter(zerolog.ConsoleWriter{Out: os.Stderr}, ld))
		}
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("Invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("worker_id", cfg.WorkerID).
		Str("version", cfg.Version).
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Str("storage", cfg.Storage.Driver).
		Str("event_bus", cfg.EventBus).
		Msg("Starting LineWatch Worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := services.NewServiceContainer(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create services")
	}
	if err := container.Seed(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to seed cameras")
	}
	if err := container.ResumePipelines(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to resume pipelines")
	}

	if err := container.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Worker stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("Worker shutdown complete")
}
