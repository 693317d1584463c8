// Package notify is the user-facing notification channel, the terminal
// equivalent of the UI's toasts. Mutation outcomes and import review
// events land here; they are never returned as errors to the command
// layer.
package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"expenser/internal/log"
)

// Notifier receives user-facing outcome messages.
type Notifier interface {
	Success(ctx context.Context, msg string)
	Error(ctx context.Context, msg string)
	Info(ctx context.Context, msg string)
}

// Console writes notifications to a terminal writer.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Success(_ context.Context, msg string) { c.print("ok", msg) }
func (c *Console) Error(_ context.Context, msg string)   { c.print("error", msg) }
func (c *Console) Info(_ context.Context, msg string)    { c.print("info", msg) }

func (c *Console) print(prefix, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "[%s] %s\n", prefix, msg)
}

// Log mirrors notifications into the structured log.
type Log struct {
	logger *log.Logger
}

func NewLog(logger *log.Logger) *Log {
	return &Log{logger: logger.WithComponent(log.ComponentNotify)}
}

func (l *Log) Success(ctx context.Context, msg string) {
	l.logger.InfoContext(ctx, msg, log.FieldSuccess, true)
}

func (l *Log) Error(ctx context.Context, msg string) {
	l.logger.WarnContext(ctx, msg, log.FieldSuccess, false)
}

func (l *Log) Info(ctx context.Context, msg string) {
	l.logger.InfoContext(ctx, msg)
}

// Multi fans a notification out to several sinks in order.
type Multi []Notifier

func (m Multi) Success(ctx context.Context, msg string) {
	for _, n := range m {
		n.Success(ctx, msg)
	}
}

func (m Multi) Error(ctx context.Context, msg string) {
	for _, n := range m {
		n.Error(ctx, msg)
	}
}

func (m Multi) Info(ctx context.Context, msg string) {
	for _, n := range m {
		n.Info(ctx, msg)
	}
}

// Discard drops everything. Used where a Notifier is required but no
// user is watching.
type Discard struct{}

func (Discard) Success(context.Context, string) {}
func (Discard) Error(context.Context, string)   {}
func (Discard) Info(context.Context, string)    {}
