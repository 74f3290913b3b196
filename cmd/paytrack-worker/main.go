package main

import (
	"context"
	"errors"
	"os"

	"paytrack/internal/amqp"
	"paytrack/internal/cli"
	"paytrack/internal/config"
	"paytrack/internal/log"
	"paytrack/internal/sheets"
	gsheet "paytrack/internal/sheets/google"
	memsheet "paytrack/internal/sheets/memory"
	"paytrack/internal/worker"
)

func main() {
	cfg, logger, err := cli.Bootstrap(log.ComponentWorker)
	if err != nil {
		os.Exit(1)
	}
	logger.Info("Starting paytrack-worker", log.FieldOperation, log.OpStartup)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	ledger, err := newLedger(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize ledger", log.FieldError, err)
		os.Exit(1)
	}

	w := worker.NewLedgerWorker(ledger, logger.Slog())
	dial := func() (*amqp.Client, error) {
		return amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger.Slog())
	}

	err = amqp.ConsumeWithReconnect(ctx, dial, w.HandleEntryEvent, logger.Slog())
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped",
		log.FieldOperation, log.OpShutdown,
		"events_processed", w.Processed())
}

// newLedger picks Google Sheets when a spreadsheet is configured and an
// in-memory sheet otherwise.
func newLedger(ctx context.Context, cfg *config.Config, logger *log.Logger) (sheets.LedgerWriter, error) {
	if cfg.GoogleSpreadsheetID == "" {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, keeping ledger in memory")
		return memsheet.New(), nil
	}
	client, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
	if err != nil {
		return nil, err
	}
	logger.Info("Google Sheets ledger initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client, nil
}
