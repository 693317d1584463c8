// Package storage keeps the local activity ledger: a SQLite append log of
// settled mutations and import review decisions, fed by the ledger worker
// and read back by the history command.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"expenser/internal/log"

	_ "modernc.org/sqlite"
)

// Entry is one recorded activity row.
type Entry struct {
	ID         int64
	Action     string
	Entity     string
	EntityID   int64
	Name       string
	Amount     string
	Date       string
	Source     string
	OccurredAt time.Time
	RecordedAt time.Time
}

type Ledger struct {
	db     *sql.DB
	logger *log.Logger
}

func NewLedger(dbPath string, logger *log.Logger) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Ledger{
		db:     db,
		logger: logger.WithComponent(log.ComponentLedger),
	}, nil
}

func (l *Ledger) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

// Record appends an entry. Redelivered events dedupe on
// (action, entity, entity_id, occurred_at), so recording the same
// message twice is a no-op.
func (l *Ledger) Record(ctx context.Context, e Entry) error {
	res, err := l.db.ExecContext(ctx, `
		INSERT INTO activity (action, entity, entity_id, name, amount, date, source, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (action, entity, entity_id, occurred_at) DO NOTHING`,
		e.Action, e.Entity, e.EntityID, e.Name, e.Amount, e.Date, e.Source, e.OccurredAt.UTC())
	if err != nil {
		return fmt.Errorf("record activity: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err == nil && inserted == 0 {
		l.logger.DebugContext(ctx, "Duplicate activity entry ignored",
			log.FieldOperation, e.Action,
			log.FieldEntity, e.Entity,
			log.FieldEntityID, e.EntityID)
		return nil
	}

	l.logger.InfoContext(ctx, "Activity recorded",
		log.FieldOperation, e.Action,
		log.FieldEntity, e.Entity,
		log.FieldEntityID, e.EntityID)
	return nil
}

// Recent returns the newest entries, most recent first.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT id, action, entity, entity_id, name, amount, date, source, occurred_at, recorded_at
		FROM activity
		ORDER BY occurred_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent activity: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Action, &e.Entity, &e.EntityID,
			&e.Name, &e.Amount, &e.Date, &e.Source, &e.OccurredAt, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan activity row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity rows: %w", err)
	}

	return entries, nil
}

// DeleteOlderThan trims entries whose occurred_at is older than age.
func (l *Ledger) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age).UTC()

	res, err := l.db.ExecContext(ctx, `DELETE FROM activity WHERE occurred_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old activity: %w", err)
	}

	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted rows: %w", err)
	}

	if removed > 0 {
		l.logger.InfoContext(ctx, "Old activity entries trimmed",
			log.FieldOperation, log.OpDelete,
			"removed", removed)
	}
	return removed, nil
}
