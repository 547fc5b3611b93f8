package reconciler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jcmexdev/pos-reconciler/internal/reconciler/domain"
)

var (
	ErrQueueFull   = errors.New("reconciliation queue is full")
	ErrQueueClosed = errors.New("reconciliation queue is closed")
)

// HandlerFunc processes one order event.
type HandlerFunc func(ctx context.Context, ev domain.Event) error

type QueueConfig struct {
	// Size is the channel buffer. Enqueue fails with ErrQueueFull beyond it.
	Size int
	// SettleDelay is the minimum age of an event before it is processed, so
	// writes issued by the triggering action land first.
	SettleDelay time.Duration
	// MaxAttempts bounds how many times an event is run when it fails with
	// ErrStoreRead. Other errors are never retried.
	MaxAttempts int
	// Backoff is multiplied by the attempt number between retries.
	Backoff time.Duration
}

func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		Size:        256,
		SettleDelay: 300 * time.Millisecond,
		MaxAttempts: 3,
		Backoff:     200 * time.Millisecond,
	}
}

// Queue decouples order actions from their inventory side effects. A single
// worker processes events in arrival order, which keeps the per-terminal
// ordering of saves and cancels.
type Queue struct {
	cfg     QueueConfig
	handler HandlerFunc
	events  chan domain.Event
	now     func() time.Time

	mu     sync.RWMutex
	closed bool
}

func NewQueue(handler HandlerFunc, cfg QueueConfig) *Queue {
	def := DefaultQueueConfig()
	if cfg.Size <= 0 {
		cfg.Size = def.Size
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = 0
	}
	return &Queue{
		cfg:     cfg,
		handler: handler,
		events:  make(chan domain.Event, cfg.Size),
		now:     time.Now,
	}
}

// Enqueue hands an event to the worker without waiting for it to run.
func (q *Queue) Enqueue(ev domain.Event) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	if ev.At.IsZero() {
		ev.At = q.now()
	}
	select {
	case q.events <- ev:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting events. Run drains what is already queued and
// returns.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.events)
}

// Len reports the number of events waiting.
func (q *Queue) Len() int {
	return len(q.events)
}

// Run processes events until the queue is closed and drained, or ctx ends.
func (q *Queue) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-q.events:
			if !ok {
				return nil
			}
			if err := q.settle(ctx, ev); err != nil {
				return err
			}
			q.process(ctx, ev)
		}
	}
}

func (q *Queue) settle(ctx context.Context, ev domain.Event) error {
	wait := ev.At.Add(q.cfg.SettleDelay).Sub(q.now())
	if wait <= 0 {
		return nil
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (q *Queue) process(ctx context.Context, ev domain.Event) {
	for attempt := 1; ; attempt++ {
		err := q.handler(ctx, ev)
		if err == nil {
			return
		}
		if !errors.Is(err, ErrStoreRead) || attempt >= q.cfg.MaxAttempts {
			slog.ErrorContext(ctx, "order event processing failed",
				"component", "reconciler_queue",
				"order_id", ev.OrderID,
				"kind", ev.Kind,
				"request_id", ev.RequestID,
				"attempt", attempt,
				"error", err)
			return
		}

		slog.WarnContext(ctx, "order event failed on read, retrying",
			"component", "reconciler_queue", "order_id", ev.OrderID, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(q.cfg.Backoff * time.Duration(attempt)):
		}
	}
}
