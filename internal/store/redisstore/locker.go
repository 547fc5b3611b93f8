package redisstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bsm/redislock"

	"github.com/jcmexdev/pos-reconciler/internal/reconciler"
)

var _ reconciler.OrderLocker = (*OrderLocker)(nil)

// ErrLockBusy is returned when another worker holds the order's lock past the
// retry budget.
var ErrLockBusy = errors.New("order lock is held elsewhere")

// Obtainer is the part of *redislock.Client the locker needs.
type Obtainer interface {
	Obtain(ctx context.Context, key string, ttl time.Duration, opt *redislock.Options) (*redislock.Lock, error)
}

type OrderLocker struct {
	client    Obtainer
	namespace string
	ttl       time.Duration
	retry     redislock.RetryStrategy
}

// NewOrderLocker holds each lock for at most ttl and polls every backoff,
// up to attempts times, while it is taken.
func NewOrderLocker(client Obtainer, namespace string, ttl, backoff time.Duration, attempts int) *OrderLocker {
	return &OrderLocker{
		client:    client,
		namespace: namespace,
		ttl:       ttl,
		retry:     redislock.LimitRetry(redislock.LinearBackoff(backoff), attempts),
	}
}

func (l *OrderLocker) key(orderID string) string {
	return fmt.Sprintf("%s:lock:order:%s", l.namespace, orderID)
}

func (l *OrderLocker) Lock(ctx context.Context, orderID string) (func(context.Context), error) {
	lock, err := l.client.Obtain(ctx, l.key(orderID), l.ttl, &redislock.Options{RetryStrategy: l.retry})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("redisstore: order %q: %w", orderID, ErrLockBusy)
	}
	if err != nil {
		return nil, fmt.Errorf("redisstore: lock order %q: %w", orderID, err)
	}
	return func(ctx context.Context) {
		if err := lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			slog.WarnContext(ctx, "failed to release order lock",
				"component", "redisstore", "order_id", orderID, "error", err)
		}
	}, nil
}
