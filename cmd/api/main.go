package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketbridge/internal/api"
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

	// Initialize database
	db, err := database.New(cfg.DatabaseURL, !cfg.IsProduction())
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	services, err := worker.NewServices(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize services: %v", err)
	}
	pipeline := services.Pipeline(cfg, logger, db)

	// Initialize API server
	server := api.New(cfg, logger, db, pipeline)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed: %v", err)
	}
}
