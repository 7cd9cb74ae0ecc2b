package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ledgersync/internal/config"
	"ledgersync/internal/logger"
	"ledgersync/internal/synclog"
	"ledgersync/internal/worker"
	"ledgersync/internal/worker/processors"
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

	if len(cfg.KafkaBrokerList()) == 0 {
		logger.Fatal("KAFKA_BROKERS is not set; the API writes the sync log itself")
	}

	syncLog, err := synclog.NewWriter(cfg.SyncLogDir)
	if err != nil {
		logger.Fatal("Failed to open sync log: %v", err)
	}

	// Initialize worker
	w := worker.New(cfg, logger, processors.NewEventProcessor(syncLog, logger))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	// Start worker
	logger.Info("Starting worker on topic %s...", cfg.OutcomeTopic)
	go func() {
		w.Start(ctx)
		close(done)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	cancel()
	w.Stop()
	<-done
}
