package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"marketbridge/internal/config"
	"marketbridge/internal/database"
	"marketbridge/internal/logger"
	"marketbridge/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel, cfg.IsProduction())
	defer logger.Sync()

	db, err := database.New(cfg.DatabaseURL, false)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	services, err := worker.NewServices(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize services: %v", err)
	}

	// Initialize worker
	w := worker.New(cfg, services.Pipeline(cfg, logger, db), logger)
	defer w.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting worker on topic %s...", cfg.KafkaRequestTopic)
	if err := w.Start(ctx); err != nil {
		logger.Error("Worker stopped: %v", err)
	}
	logger.Info("Shutting down worker...")
}
