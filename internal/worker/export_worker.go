package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/cache"
	"ledger/internal/log"
	"ledger/internal/sheets"
)

// Bounds of the redelivery guard.
const (
	recentCapacity = 1024
	recentTTL      = time.Hour
)

// Consumer delivers ledger events until ctx ends. A non-nil handler error
// asks for redelivery.
type Consumer interface {
	ConsumeWithReconnect(ctx context.Context, handler func(context.Context, *amqp.LedgerEvent) error) error
}

// ExportWorker appends every ledger event to the audit sheet.
type ExportWorker struct {
	writer sheets.EventWriter
	logger *log.Logger
	// recent maps event keys to the sheet range they were written to.
	recent *cache.LRU[string]
}

func NewExportWorker(writer sheets.EventWriter, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.Nop()
	}
	return &ExportWorker{
		writer: writer,
		logger: logger.WithComponent(log.ComponentWorker),
		recent: cache.NewLRU[string](recentCapacity, recentTTL),
	}
}

// Run consumes until ctx is cancelled.
func (w *ExportWorker) Run(ctx context.Context, consumer Consumer) error {
	w.logger.InfoContext(ctx, "Export worker started")
	err := consumer.ConsumeWithReconnect(ctx, w.HandleLedgerEvent)
	w.logger.InfoContext(ctx, "Export worker stopped", log.FieldError, err)
	return err
}

// HandleLedgerEvent writes one row. Events already written recently are
// acknowledged without a second row, so a redelivery after a lost ack does
// not duplicate the audit trail.
func (w *ExportWorker) HandleLedgerEvent(ctx context.Context, event *amqp.LedgerEvent) error {
	key := eventKey(event)
	if ref, ok := w.recent.Get(key); ok {
		w.logger.DebugContext(ctx, "Skipping duplicate ledger event",
			log.FieldKind, event.Kind,
			log.FieldRecordID, event.ID,
			log.FieldSheetsRef, ref)
		return nil
	}

	ref, err := w.writer.AppendEvent(ctx, event)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to export ledger event",
			log.FieldOperation, log.OpAppend,
			log.FieldKind, event.Kind,
			log.FieldRecordID, event.ID,
			log.FieldError, err)
		return fmt.Errorf("append ledger event: %w", err)
	}
	w.recent.Set(key, ref)

	w.logger.InfoContext(ctx, "Exported ledger event",
		log.FieldOperation, log.OpAppend,
		log.FieldKind, event.Kind,
		log.FieldRecordID, event.ID,
		log.FieldUserID, event.UserID,
		log.FieldSheetsRef, ref)
	return nil
}

func eventKey(e *amqp.LedgerEvent) string {
	return e.Action + "/" + e.Kind + "/" + strconv.FormatInt(e.ID, 10) + "/" + strconv.FormatInt(e.Timestamp.UnixNano(), 10)
}
