package main

import (
	"context"
	"os"
	"time"

	expamqp "expenser/internal/amqp"
	"expenser/internal/cli"
	"expenser/internal/log"
	"expenser/internal/storage"
	"expenser/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting expenser-worker", log.FieldOperation, log.OpStartup)

	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the ledger worker")
		os.Exit(1)
	}

	ledger, err := storage.NewLedger(cfg.LedgerDBPath, logger)
	if err != nil {
		logger.Error("Failed to open ledger database",
			log.FieldError, err,
			log.FieldPath, cfg.LedgerDBPath)
		os.Exit(1)
	}
	defer ledger.Close()

	amqpClient, err := expamqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ledgerWorker := worker.NewLedgerWorker(
		ledger, amqpClient, cfg.LedgerPollInterval, cfg.LedgerCleanupAge, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	// Trim once at startup so a long-idle ledger does not wait for the
	// first tick.
	if _, err := ledger.DeleteOlderThan(ctx, cfg.LedgerCleanupAge); err != nil {
		logger.Error("Startup ledger cleanup failed", log.FieldError, err)
	}

	if err := ledgerWorker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("Ledger worker stopped", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully", log.FieldOperation, log.OpShutdown)
}
