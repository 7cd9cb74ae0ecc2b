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

	"ledgersync/internal/api"
	"ledgersync/internal/app"
	"ledgersync/internal/config"
	"ledgersync/internal/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize logger
	logger := logger.NewForEnvironment(cfg.Env, cfg.LogLevel)
	defer logger.Sync()

	// Wire database, credential store, catalog and sinks
	a, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize: %v", err)
	}
	defer a.Close()

	// Initialize API server
	server := api.New(a)

	go func() {
		logger.Info("Starting API server on port %s", cfg.APIPort)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		logger.Error("Server shutdown failed: %v", err)
	}
}
