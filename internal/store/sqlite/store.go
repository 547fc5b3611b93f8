// Package sqlite persists orders, recipes and inventory in one SQLite file.
// Structured columns (order items, baselines, ingredients) are stored as JSON
// and validated when read back, so a hand-edited or corrupt row is rejected
// instead of reconciled.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jcmexdev/pos-reconciler/internal/reconciler"

	// Pure-Go driver, no CGO.
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS orders (
    id                   TEXT PRIMARY KEY,
    items                TEXT NOT NULL DEFAULT '[]',
    saved_quantities     TEXT NOT NULL DEFAULT '{}',
    status               TEXT NOT NULL,
    last_fingerprint     TEXT NOT NULL DEFAULT '',
    created_at           TEXT NOT NULL,
    updated_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS recipes (
    menu_item_id         TEXT PRIMARY KEY,
    ingredients          TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS inventory_items (
    id                   TEXT PRIMARY KEY,
    -- normalised: trimmed and lower-cased
    name                 TEXT NOT NULL UNIQUE,
    stock_quantity       REAL NOT NULL DEFAULT 0,
    unit                 TEXT NOT NULL DEFAULT '',
    updated_at           TEXT NOT NULL
);
`

var (
	_ reconciler.OrderStore     = (*Store)(nil)
	_ reconciler.MenuCatalog    = (*Store)(nil)
	_ reconciler.InventoryStore = (*Store)(nil)
)

// Store implements the order, menu and inventory ports on one database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the database at path in WAL mode and applies the
// schema.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	s, err := New(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func New(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// DB exposes the handle so the reconciliation log can share the file.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	return s.db.Close()
}

const timeLayout = "2006-01-02T15:04:05.999999999Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
