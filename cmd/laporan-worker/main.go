package main

import (
	"context"
	"os"
	"time"

	"laporan/internal/amqp"
	"laporan/internal/cli"
	"laporan/internal/log"
	gsheet "laporan/internal/sheets/google"
	"laporan/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, "laporan-worker")

	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Worker configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Starting laporan-worker",
		"backend", cfg.DataBackend,
		"queue", cfg.AMQPQueue,
		"sheet", cfg.GoogleSheetName)

	// The worker reads entries straight from the store and never publishes.
	storeCfg := *cfg
	storeCfg.AMQPURL = ""
	be := cli.OpenBackend(context.Background(), logger, &storeCfg)

	mirror, err := gsheet.New(context.Background(), gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsFile: cfg.GoogleCredentialsFile,
		CredentialsJSON: cfg.GoogleCredentialsJSON,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}

	consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP", log.FieldError, err)
		os.Exit(1)
	}

	w := worker.NewMirrorWorker(be.Store, mirror, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if err := consumer.Close(); err != nil {
			logger.Error("AMQP close error", log.FieldError, err)
		}
		if err := be.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	// Catch up on anything written while the worker was down.
	stats, err := w.Resync(ctx)
	if err != nil {
		logger.Warn("Initial resync incomplete", log.FieldError, err, "synced", stats.Synced, "errors", stats.Errors)
	} else {
		logger.Info("Initial resync complete", "total", stats.Total, "synced", stats.Synced, "removed", stats.Removed)
	}

	if err := w.Run(ctx, consumer); err != nil {
		logger.Error("Mirror worker stopped", log.FieldError, err)
		_ = consumer.Close()
		_ = be.Cleanup()
		os.Exit(1)
	}
	cli.WaitForShutdown(ctx, done)
}
