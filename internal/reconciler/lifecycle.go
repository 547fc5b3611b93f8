package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jcmexdev/pos-reconciler/internal/reconciler/domain"
)

// Enqueuer accepts order events for asynchronous processing.
type Enqueuer interface {
	Enqueue(ev domain.Event) error
}

// Lifecycle applies order actions. It validates the status transition,
// persists it, and queues the inventory side effect without waiting for it.
type Lifecycle struct {
	orders OrderStore
	queue  Enqueuer
	now    func() time.Time
}

func NewLifecycle(orders OrderStore, queue Enqueuer) *Lifecycle {
	return &Lifecycle{orders: orders, queue: queue, now: time.Now}
}

// EventMeta carries request correlation data into the queued event.
type EventMeta struct {
	RequestID      string
	IdempotencyKey string
}

func (l *Lifecycle) CreateOrder(ctx context.Context, items []domain.OrderItem) (*domain.Order, error) {
	order := domain.NewOrder(uuid.NewString(), items, l.now().UTC())
	if err := domain.ValidateOrder(order); err != nil {
		return nil, err
	}
	if err := l.orders.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("reconciler: create order: %w", err)
	}
	slog.InfoContext(ctx, "order created", "component", "lifecycle", "order_id", order.ID, "items", len(items))
	return order, nil
}

// SetItems replaces the item list of an ongoing order. Nothing is reconciled
// until the order is saved.
func (l *Lifecycle) SetItems(ctx context.Context, orderID string, items []domain.OrderItem) (*domain.Order, error) {
	order, err := l.ongoing(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	if err := domain.ValidateOrder(order); err != nil {
		return nil, err
	}
	if err := l.orders.SetItems(ctx, orderID, items); err != nil {
		return nil, fmt.Errorf("reconciler: set items of %q: %w", orderID, err)
	}
	return order, nil
}

// Save queues reconciliation of the order's unreconciled quantities.
func (l *Lifecycle) Save(ctx context.Context, orderID string, meta EventMeta) error {
	if _, err := l.ongoing(ctx, orderID); err != nil {
		return err
	}
	return l.enqueue(ctx, orderID, domain.EventSave, meta)
}

// Cancel marks the order cancelled and queues restoration of its stock. When
// the restoration cannot be queued the order goes back to ongoing, so the
// cancel can be retried.
func (l *Lifecycle) Cancel(ctx context.Context, orderID string, meta EventMeta) error {
	if err := l.transition(ctx, orderID, domain.StatusCancelled); err != nil {
		return err
	}
	err := l.enqueue(ctx, orderID, domain.EventCancel, meta)
	if err == nil {
		return nil
	}
	if rerr := l.orders.SetStatus(ctx, orderID, domain.StatusOngoing); rerr != nil {
		slog.ErrorContext(ctx, "failed to reopen order after queue rejection",
			"component", "lifecycle", "order_id", orderID, "error", rerr)
		return errors.Join(err, fmt.Errorf("reconciler: reopen %q: %w", orderID, rerr))
	}
	slog.WarnContext(ctx, "cancel not queued, order reopened",
		"component", "lifecycle", "order_id", orderID, "error", err)
	return err
}

// Complete marks the order completed. Stock was already deducted on save; the
// queued event only releases per-order reconciliation state, so failing to
// queue it does not fail the completion.
func (l *Lifecycle) Complete(ctx context.Context, orderID string) error {
	if err := l.transition(ctx, orderID, domain.StatusCompleted); err != nil {
		return err
	}
	if err := l.enqueue(ctx, orderID, domain.EventComplete, EventMeta{}); err != nil {
		slog.WarnContext(ctx, "completion cleanup not queued",
			"component", "lifecycle", "order_id", orderID, "error", err)
	}
	return nil
}

func (l *Lifecycle) transition(ctx context.Context, orderID string, to domain.OrderStatus) error {
	order, err := l.orders.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if err := order.Transition(to); err != nil {
		return fmt.Errorf("reconciler: order %q: %w", orderID, err)
	}
	if err := l.orders.SetStatus(ctx, orderID, to); err != nil {
		return fmt.Errorf("reconciler: set status of %q: %w", orderID, err)
	}
	slog.InfoContext(ctx, "order status changed", "component", "lifecycle", "order_id", orderID, "status", to)
	return nil
}

func (l *Lifecycle) ongoing(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := l.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.StatusOngoing {
		return nil, fmt.Errorf("reconciler: order %q is %s: %w", orderID, order.Status, ErrOrderNotOngoing)
	}
	return order, nil
}

func (l *Lifecycle) enqueue(ctx context.Context, orderID string, kind domain.EventKind, meta EventMeta) error {
	ev := domain.Event{
		OrderID:        orderID,
		Kind:           kind,
		RequestID:      meta.RequestID,
		IdempotencyKey: meta.IdempotencyKey,
		At:             l.now(),
	}
	if err := l.queue.Enqueue(ev); err != nil {
		return fmt.Errorf("reconciler: queue %s for %q: %w", kind, orderID, err)
	}
	slog.InfoContext(ctx, "order event queued", "component", "lifecycle", "order_id", orderID, "kind", kind)
	return nil
}
