// Package worker consumes transaction events and exports the recorded
// rows to the configured spreadsheet.
package worker

import (
	"context"
	"fmt"
	"sync"

	"moneybook/internal/core"
	"moneybook/internal/events"
	"moneybook/internal/ledger"
	"moneybook/internal/log"
)

// RowAppender is the export destination.
type RowAppender interface {
	AppendTransaction(ctx context.Context, tx core.Transaction) error
}

// ExportWorker resolves event IDs against the ledger and forwards the
// rows to the appender. Deliveries are at-least-once, so already exported
// IDs are skipped.
type ExportWorker struct {
	lister   ledger.TransactionLister
	appender RowAppender
	logger   *log.Logger

	mu       sync.Mutex
	exported map[string]struct{}
}

func NewExportWorker(lister ledger.TransactionLister, appender RowAppender, logger *log.Logger) *ExportWorker {
	return &ExportWorker{
		lister:   lister,
		appender: appender,
		logger:   logger.WithComponent(log.ComponentWorker),
		exported: make(map[string]struct{}),
	}
}

// HandleTransactionCreated exports the transaction named by the event.
// Unknown IDs are an error so the delivery gets requeued; the row may not
// be visible yet when the event races the write.
func (w *ExportWorker) HandleTransactionCreated(ctx context.Context, msg *events.TransactionCreatedMessage) error {
	w.mu.Lock()
	_, done := w.exported[msg.TransactionID]
	w.mu.Unlock()
	if done {
		w.logger.InfoContext(ctx, "skipping already exported transaction",
			log.FieldTransaction, msg.TransactionID)
		return nil
	}

	tx, err := w.findTransaction(ctx, msg.TransactionID)
	if err != nil {
		return err
	}

	if err := w.appender.AppendTransaction(ctx, tx); err != nil {
		return fmt.Errorf("export transaction %s: %w", msg.TransactionID, err)
	}

	w.mu.Lock()
	w.exported[msg.TransactionID] = struct{}{}
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "exported transaction",
		log.FieldTransaction, tx.ID,
		log.FieldCategory, tx.Category,
		log.FieldAmount, tx.Amount.String(),
	)
	return nil
}

// ExportBacklog exports every transaction not yet seen by this worker.
// Used at startup to recover from missed deliveries.
func (w *ExportWorker) ExportBacklog(ctx context.Context) error {
	txs, err := w.lister.List(ctx, core.TransactionFilter{})
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}

	exportedCount := 0
	for _, tx := range txs {
		w.mu.Lock()
		_, done := w.exported[tx.ID]
		w.mu.Unlock()
		if done {
			continue
		}
		if err := w.appender.AppendTransaction(ctx, tx); err != nil {
			w.logger.ErrorContext(ctx, "backlog export failed",
				log.FieldTransaction, tx.ID,
				log.FieldError, err,
			)
			continue
		}
		w.mu.Lock()
		w.exported[tx.ID] = struct{}{}
		w.mu.Unlock()
		exportedCount++
	}

	w.logger.InfoContext(ctx, "backlog export completed",
		"total", len(txs),
		"exported", exportedCount,
	)
	return nil
}

func (w *ExportWorker) findTransaction(ctx context.Context, id string) (core.Transaction, error) {
	txs, err := w.lister.List(ctx, core.TransactionFilter{})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("list transactions: %w", err)
	}
	for _, tx := range txs {
		if tx.ID == id {
			return tx, nil
		}
	}
	return core.Transaction{}, fmt.Errorf("transaction %s not found", id)
}
