// Package worker runs the ledger worker: it consumes activity events
// published by the mutation layer and appends them to the local SQLite
// ledger, trimming old entries on a timer.
package worker

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"expenser/internal/amqp"
	"expenser/internal/log"
	"expenser/internal/storage"
)

// Consumer delivers activity messages to a handler until the context is
// cancelled. *amqp.Client satisfies this.
type Consumer interface {
	ConsumeActivity(ctx context.Context, handler func(*amqp.ActivityMessage) error) error
}

type LedgerWorker struct {
	ledger       *storage.Ledger
	consumer     Consumer
	pollInterval time.Duration
	cleanupAge   time.Duration
	logger       *log.Logger
}

func NewLedgerWorker(ledger *storage.Ledger, consumer Consumer, pollInterval, cleanupAge time.Duration, logger *log.Logger) *LedgerWorker {
	return &LedgerWorker{
		ledger:       ledger,
		consumer:     consumer,
		pollInterval: pollInterval,
		cleanupAge:   cleanupAge,
		logger:       logger.WithComponent(log.ComponentWorker),
	}
}

// HandleActivity records one activity message. Returning an error makes
// the consumer requeue the delivery, so only storage failures propagate.
func (w *LedgerWorker) HandleActivity(ctx context.Context) func(*amqp.ActivityMessage) error {
	return func(msg *amqp.ActivityMessage) error {
		entry := storage.Entry{
			Action:     msg.Action,
			Entity:     msg.Entity,
			EntityID:   msg.EntityID,
			Name:       msg.Name,
			Amount:     msg.Amount,
			Date:       msg.Date,
			Source:     msg.Source,
			OccurredAt: msg.Timestamp,
		}
		if entry.OccurredAt.IsZero() {
			entry.OccurredAt = time.Now()
		}

		if err := w.ledger.Record(ctx, entry); err != nil {
			return fmt.Errorf("record activity entry: %w", err)
		}
		return nil
	}
}

// Run consumes events and trims old ledger rows until the context is
// cancelled. It returns the first failure from either loop.
func (w *LedgerWorker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := w.consumer.ConsumeActivity(ctx, w.HandleActivity(ctx))
		if err != nil && ctx.Err() == nil {
			return fmt.Errorf("consume activity: %w", err)
		}
		return err
	})

	g.Go(func() error {
		ticker := time.NewTicker(w.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if _, err := w.ledger.DeleteOlderThan(ctx, w.cleanupAge); err != nil {
					w.logger.ErrorContext(ctx, "Ledger cleanup failed",
						log.FieldError, err)
				}
			}
		}
	})

	err := g.Wait()
	if err == context.Canceled {
		return nil
	}
	return err
}
