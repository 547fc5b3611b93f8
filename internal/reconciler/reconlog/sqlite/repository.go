// Package sqlite provides a SQLite-backed implementation of reconlog.Repository.
//
// WAL mode is enabled on Open so the queue worker can append while the gRPC
// handlers read history.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jcmexdev/pos-reconciler/internal/reconciler/reconlog"

	// Pure-Go driver, no CGO.
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS reconciliation_logs (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id          TEXT        NOT NULL,
    order_id        TEXT        NOT NULL,
    kind            TEXT        NOT NULL,
    status          TEXT        NOT NULL,
    fingerprint     TEXT        NOT NULL DEFAULT '',
    -- JSON array of applied stock adjustments.
    adjustments     TEXT        NOT NULL DEFAULT '[]',
    -- JSON array of per-ingredient failure messages.
    failures        TEXT        NOT NULL DEFAULT '[]',
    trace_id        TEXT        NOT NULL DEFAULT '',
    span_id         TEXT        NOT NULL DEFAULT '',
    at              TEXT        NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reconciliation_logs_order_id ON reconciliation_logs(order_id, at);
CREATE INDEX IF NOT EXISTS idx_reconciliation_logs_trace_id ON reconciliation_logs(trace_id);
`

var _ reconlog.Repository = (*Repository)(nil)

type Repository struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
//
//	repo, err := sqlite.Open("./data/reconciler.db")
func Open(path string) (*Repository, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repository{db: db}, nil
}

// New wraps an already opened database, applying the schema.
func New(db *sql.DB) (*Repository, error) {
	if err := applySchema(db); err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) Save(ctx context.Context, entry *reconlog.Entry) error {
	const q = `
		INSERT INTO reconciliation_logs
			(run_id, order_id, kind, status, fingerprint, adjustments, failures, trace_id, span_id, at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, q,
		entry.RunID,
		entry.OrderID,
		entry.Kind,
		string(entry.Status),
		entry.Fingerprint,
		entry.Adjustments,
		entry.Failures,
		entry.TraceID,
		entry.SpanID,
		formatTime(entry.At),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save reconciliation log for %q: %w", entry.OrderID, err)
	}
	return nil
}

const selectColumns = `SELECT run_id, order_id, kind, status, fingerprint, adjustments, failures, trace_id, span_id, at
		FROM reconciliation_logs`

func (r *Repository) Latest(ctx context.Context, orderID string) (*reconlog.Entry, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+`
		WHERE order_id = ?
		ORDER BY at DESC, id DESC
		LIMIT 1`, orderID)

	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite: order %q: %w", orderID, reconlog.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: latest for %q: %w", orderID, err)
	}
	return entry, nil
}

func (r *Repository) History(ctx context.Context, orderID string) ([]*reconlog.Entry, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+`
		WHERE order_id = ?
		ORDER BY at ASC, id ASC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: history for %q: %w", orderID, err)
	}
	defer rows.Close()

	var out []*reconlog.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: history for %q: %w", orderID, err)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*reconlog.Entry, error) {
	var (
		entry reconlog.Entry
		at    string
	)
	err := s.Scan(
		&entry.RunID,
		&entry.OrderID,
		&entry.Kind,
		&entry.Status,
		&entry.Fingerprint,
		&entry.Adjustments,
		&entry.Failures,
		&entry.TraceID,
		&entry.SpanID,
		&at,
	)
	if err != nil {
		return nil, err
	}
	entry.At, err = parseRFC3339(at)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return nil
}
