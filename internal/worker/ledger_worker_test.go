package worker

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"expenser/internal/amqp"
	"expenser/internal/log"
	"expenser/internal/storage"
)

func testSetup(t *testing.T) (*storage.Ledger, *log.Logger) {
	t.Helper()

	logger := log.New(log.Config{
		Handler: slog.NewTextHandler(io.Discard, nil),
	})

	ledger, err := storage.NewLedger(filepath.Join(t.TempDir(), "ledger.db"), logger)
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	t.Cleanup(func() { ledger.Close() })
	return ledger, logger
}

func TestHandleActivityRecordsEntry(t *testing.T) {
	ledger, logger := testSetup(t)
	ctx := context.Background()

	w := NewLedgerWorker(ledger, nil, time.Hour, time.Hour, logger)
	handle := w.HandleActivity(ctx)

	msg := amqp.NewActivityMessage(amqp.ActionCreate, "expenses")
	msg.EntityID = 42
	msg.Name = "Coffee"
	msg.Amount = "150"
	msg.Date = "11/09/2025"
	msg.Source = "cli"

	if err := handle(msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	// Redelivery of the same message must not duplicate.
	if err := handle(msg); err != nil {
		t.Fatalf("handle redelivery: %v", err)
	}

	entries, err := ledger.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Action != "create" || e.Entity != "expenses" || e.EntityID != 42 || e.Amount != "150" {
		t.Errorf("recorded entry %+v", e)
	}
}

func TestHandleActivityStampsMissingTimestamp(t *testing.T) {
	ledger, logger := testSetup(t)
	ctx := context.Background()

	w := NewLedgerWorker(ledger, nil, time.Hour, time.Hour, logger)
	handle := w.HandleActivity(ctx)

	if err := handle(&amqp.ActivityMessage{Action: "skip", Entity: "incomes", Name: "Refund"}); err != nil {
		t.Fatalf("handle: %v", err)
	}

	entries, err := ledger.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 1 || entries[0].OccurredAt.IsZero() {
		t.Fatalf("entry missing occurred_at: %+v", entries)
	}
}

// fakeConsumer delivers its messages then cancels the run.
type fakeConsumer struct {
	msgs   []*amqp.ActivityMessage
	cancel context.CancelFunc
}

func (f *fakeConsumer) ConsumeActivity(ctx context.Context, handler func(*amqp.ActivityMessage) error) error {
	for _, m := range f.msgs {
		if err := handler(m); err != nil {
			return err
		}
	}
	f.cancel()
	<-ctx.Done()
	return ctx.Err()
}

func TestRunConsumesUntilCancelled(t *testing.T) {
	ledger, logger := testSetup(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := amqp.NewActivityMessage(amqp.ActionCreate, "expenses")
	first.EntityID = 1
	second := amqp.NewActivityMessage(amqp.ActionDelete, "incomes")
	second.EntityID = 2

	consumer := &fakeConsumer{msgs: []*amqp.ActivityMessage{first, second}, cancel: cancel}
	w := NewLedgerWorker(ledger, consumer, time.Hour, time.Hour, logger)

	if err := w.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	entries, err := ledger.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
}
