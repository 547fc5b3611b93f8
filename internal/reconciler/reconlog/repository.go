package reconlog

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("reconciliation log entry not found")

// Repository persists log entries. The engine treats a nil Repository as
// "logging disabled".
type Repository interface {
	// Save appends a new entry; entries are never updated.
	Save(ctx context.Context, entry *Entry) error
	// Latest returns ErrNotFound when the order has no entries.
	Latest(ctx context.Context, orderID string) (*Entry, error)
	// History returns all entries for an order, oldest first.
	History(ctx context.Context, orderID string) ([]*Entry, error)
}
