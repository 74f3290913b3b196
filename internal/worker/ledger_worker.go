// Package worker turns entry change events into ledger rows.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"paytrack/internal/amqp"
	"paytrack/internal/log"
	"paytrack/internal/sheets"
)

// LedgerWorker appends one row per EntryEvent.
type LedgerWorker struct {
	ledger    sheets.LedgerWriter
	logger    *slog.Logger
	processed atomic.Int64
}

func NewLedgerWorker(ledger sheets.LedgerWriter, logger *slog.Logger) *LedgerWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &LedgerWorker{
		ledger: ledger,
		logger: logger.With(log.FieldComponent, log.ComponentWorker),
	}
}

// HandleEntryEvent satisfies amqp.Handler. An error makes the broker
// redeliver the event.
func (w *LedgerWorker) HandleEntryEvent(ctx context.Context, event *amqp.EntryEvent) error {
	row := RowFromEvent(event)

	ref, err := w.ledger.AppendRow(ctx, row)
	if err != nil {
		return fmt.Errorf("append ledger row for %s: %w", event.EntryID, err)
	}

	w.processed.Add(1)
	w.logger.InfoContext(ctx, "Ledger row written",
		log.FieldEventType, event.Type,
		log.FieldEntryID, event.EntryID,
		"ref", ref)
	return nil
}

// Processed returns how many events reached the ledger.
func (w *LedgerWorker) Processed() int64 {
	return w.processed.Load()
}

// RowFromEvent maps an event onto the ledger columns.
func RowFromEvent(event *amqp.EntryEvent) sheets.LedgerRow {
	row := sheets.LedgerRow{
		At:      event.Timestamp,
		Event:   string(event.Type),
		EntryID: event.EntryID,
		Status:  event.Status,
	}
	if event.Entry != nil {
		amount := event.Entry.Amount
		row.Name = event.Entry.Name
		row.Amount = &amount
		row.Status = event.Entry.Status
	}
	return row
}
