package domain

import "time"

type EventKind string

const (
	EventSave     EventKind = "save"
	EventCancel   EventKind = "cancel"
	EventComplete EventKind = "complete"
)

// Event is an order action handed to the reconciliation queue.
type Event struct {
	OrderID        string
	Kind           EventKind
	RequestID      string
	IdempotencyKey string
	At             time.Time
}
