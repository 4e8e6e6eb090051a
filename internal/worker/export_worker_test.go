package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"moneybook/internal/core"
	"moneybook/internal/events"
	"moneybook/internal/log"
)

type fakeLister struct {
	txs []core.Transaction
	err error
}

func (f *fakeLister) List(_ context.Context, filter core.TransactionFilter) ([]core.Transaction, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []core.Transaction
	for _, tx := range f.txs {
		if filter.Matches(tx) {
			out = append(out, tx)
		}
	}
	return out, nil
}

type fakeAppender struct {
	rows []core.Transaction
	err  error
}

func (f *fakeAppender) AppendTransaction(_ context.Context, tx core.Transaction) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, tx)
	return nil
}

func sampleTx(id string) core.Transaction {
	return core.Transaction{
		ID:        id,
		Type:      core.Expense,
		Amount:    decimal.NewFromInt(5000),
		Category:  "식비",
		Date:      core.NewDate(2026, 3, 1),
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func newTestWorker(lister *fakeLister, appender *fakeAppender) *ExportWorker {
	return NewExportWorker(lister, appender, log.New(log.ComponentWorker, nil))
}

func TestHandleTransactionCreated(t *testing.T) {
	lister := &fakeLister{txs: []core.Transaction{sampleTx("100"), sampleTx("200")}}
	appender := &fakeAppender{}
	w := newTestWorker(lister, appender)

	msg := &events.TransactionCreatedMessage{TransactionID: "200"}
	if err := w.HandleTransactionCreated(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(appender.rows) != 1 || appender.rows[0].ID != "200" {
		t.Fatalf("exported rows: %+v", appender.rows)
	}
}

func TestHandleSkipsAlreadyExported(t *testing.T) {
	lister := &fakeLister{txs: []core.Transaction{sampleTx("100")}}
	appender := &fakeAppender{}
	w := newTestWorker(lister, appender)

	msg := &events.TransactionCreatedMessage{TransactionID: "100"}
	if err := w.HandleTransactionCreated(context.Background(), msg); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := w.HandleTransactionCreated(context.Background(), msg); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if len(appender.rows) != 1 {
		t.Fatalf("redelivery must not export twice, got %d rows", len(appender.rows))
	}
}

func TestHandleUnknownIDFails(t *testing.T) {
	w := newTestWorker(&fakeLister{}, &fakeAppender{})
	msg := &events.TransactionCreatedMessage{TransactionID: "999"}
	if err := w.HandleTransactionCreated(context.Background(), msg); err == nil {
		t.Fatal("unknown transaction must return an error for requeue")
	}
}

func TestHandleDoesNotMarkFailedExports(t *testing.T) {
	lister := &fakeLister{txs: []core.Transaction{sampleTx("100")}}
	appender := &fakeAppender{err: errors.New("sheet unavailable")}
	w := newTestWorker(lister, appender)

	msg := &events.TransactionCreatedMessage{TransactionID: "100"}
	if err := w.HandleTransactionCreated(context.Background(), msg); err == nil {
		t.Fatal("append failure must propagate")
	}

	appender.err = nil
	if err := w.HandleTransactionCreated(context.Background(), msg); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if len(appender.rows) != 1 {
		t.Fatalf("retry must export the row, got %d", len(appender.rows))
	}
}

func TestExportBacklog(t *testing.T) {
	lister := &fakeLister{txs: []core.Transaction{sampleTx("100"), sampleTx("200"), sampleTx("300")}}
	appender := &fakeAppender{}
	w := newTestWorker(lister, appender)

	// One row already exported through the event path.
	msg := &events.TransactionCreatedMessage{TransactionID: "200"}
	if err := w.HandleTransactionCreated(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if err := w.ExportBacklog(context.Background()); err != nil {
		t.Fatalf("backlog: %v", err)
	}
	if len(appender.rows) != 3 {
		t.Fatalf("backlog must export remaining rows exactly once, got %d", len(appender.rows))
	}
}
