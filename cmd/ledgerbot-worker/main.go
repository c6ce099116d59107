package main

import (
	"context"
	"os"
	"time"

	"ledgerbot/internal/cli"
	"ledgerbot/internal/events"
	"ledgerbot/internal/export/google"
	"ledgerbot/internal/log"
	"ledgerbot/internal/worker"
)

func main() {
	logger := cli.SetupLogger()
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the export worker")
		os.Exit(1)
	}

	amqpClient, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to connect to AMQP", log.FieldError, err)
		os.Exit(1)
	}

	appender, err := google.New(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		if err := amqpClient.Close(); err != nil {
			logger.Error("AMQP close error", log.FieldError, err)
		}
	})

	logger.Info("Export worker started", log.FieldOperation, log.OpStartup)
	w := worker.New(amqpClient, appender, logger)
	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("Worker stopped", log.FieldError, err)
	}

	cli.WaitForShutdown(ctx, done)
}
