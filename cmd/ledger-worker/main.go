package main

import (
	"context"
	"errors"
	"os"

	"ledger/internal/amqp"
	"ledger/internal/cli"
	"ledger/internal/config"
	"ledger/internal/log"
	"ledger/internal/sheets"
	gsheet "ledger/internal/sheets/google"
	mem "ledger/internal/sheets/memory"
	"ledger/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting ledger-worker")

	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateWorker)

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, nil)

	var writer sheets.EventWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID: cfg.GoogleSpreadsheetID,
			SheetName:     cfg.GoogleSheetName,
			Logger:        logger,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		if err := client.EnsureHeader(ctx); err != nil {
			logger.Error("Failed to prepare sheet", log.FieldError, err, "sheet", cfg.GoogleSheetName)
			os.Exit(1)
		}
		writer = client
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	} else {
		writer = mem.New()
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, events are only logged")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	exportWorker := worker.NewExportWorker(writer, logger)
	if err := exportWorker.Run(ctx, amqpClient); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
