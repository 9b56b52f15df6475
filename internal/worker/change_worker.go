// Package worker runs the background consumer that mirrors budget changes to
// the spreadsheet export.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"budgetr/internal/amqp"
	"budgetr/internal/store"
)

// Consumer delivers change events until ctx is done. *amqp.Client implements it.
type Consumer interface {
	ConsumeWithRetry(ctx context.Context, handler func(context.Context, *amqp.ChangeEvent) error) error
}

// Handler processes one change event.
type Handler interface {
	Handle(ctx context.Context, ev *amqp.ChangeEvent) error
}

// ChangeWorker connects a Consumer to a Handler.
type ChangeWorker struct {
	consumer Consumer
	handler  Handler
	records  store.RecordLister
	exporter store.ExpenditureExporter
}

// NewChangeWorker creates a worker. records and exporter are used only by
// StartupExportCheck and may be nil.
func NewChangeWorker(consumer Consumer, handler Handler, records store.RecordLister, exporter store.ExpenditureExporter) *ChangeWorker {
	return &ChangeWorker{
		consumer: consumer,
		handler:  handler,
		records:  records,
		exporter: exporter,
	}
}

// Run consumes until ctx is cancelled. Cancellation is not an error.
func (w *ChangeWorker) Run(ctx context.Context) error {
	slog.InfoContext(ctx, "Change worker started")
	err := w.consumer.ConsumeWithRetry(ctx, w.handler.Handle)
	if errors.Is(err, context.Canceled) {
		slog.InfoContext(ctx, "Change worker stopped")
		return nil
	}
	return err
}

// StartupExportCheck exports every stored record that is not yet in the
// sheet. It recovers events lost while the worker was down.
func (w *ChangeWorker) StartupExportCheck(ctx context.Context) error {
	if w.records == nil || w.exporter == nil {
		return nil
	}

	records, err := w.records.ListExpenditures(ctx)
	if err != nil {
		return fmt.Errorf("list expenditures for startup export: %w", err)
	}
	if len(records) == 0 {
		slog.InfoContext(ctx, "No expenditures found on startup")
		return nil
	}

	exported, skipped, failed := 0, 0, 0
	for _, e := range records {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, err := w.exporter.Export(ctx, e)
		switch {
		case err == nil:
			exported++
		case errors.Is(err, store.ErrAlreadyExported):
			skipped++
		default:
			slog.ErrorContext(ctx, "Failed to export expenditure during startup",
				"record_id", e.ID, "error", err)
			failed++
		}
	}

	slog.InfoContext(ctx, "Startup export completed",
		"total", len(records),
		"exported", exported,
		"already_exported", skipped,
		"errors", failed)
	return nil
}
