package reconciler_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/pos-reconciler/internal/reconciler"
	"github.com/jcmexdev/pos-reconciler/internal/reconciler/domain"
)

type callLog struct {
	mu     sync.Mutex
	events []domain.Event
	times  []time.Time
}

func (c *callLog) record(ev domain.Event) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	c.times = append(c.times, time.Now())
	return len(c.events)
}

func (c *callLog) orderIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.events))
	for _, ev := range c.events {
		out = append(out, ev.OrderID)
	}
	return out
}

func fastQueue(handler reconciler.HandlerFunc, size int) *reconciler.Queue {
	return reconciler.NewQueue(handler, reconciler.QueueConfig{
		Size:        size,
		MaxAttempts: 3,
		Backoff:     time.Millisecond,
	})
}

func TestQueue_ProcessesInArrivalOrderAndDrains(t *testing.T) {
	calls := &callLog{}
	q := fastQueue(func(_ context.Context, ev domain.Event) error {
		calls.record(ev)
		return nil
	}, 8)

	for _, id := range []string{"O1", "O2", "O1", "O3"} {
		require.NoError(t, q.Enqueue(domain.Event{OrderID: id, Kind: domain.EventSave}))
	}
	assert.Equal(t, 4, q.Len())
	q.Close()

	require.NoError(t, q.Run(context.Background()))
	assert.Equal(t, []string{"O1", "O2", "O1", "O3"}, calls.orderIDs())
	assert.Equal(t, 0, q.Len())
}

func TestQueue_RejectsWhenFullOrClosed(t *testing.T) {
	q := fastQueue(func(context.Context, domain.Event) error { return nil }, 1)

	require.NoError(t, q.Enqueue(domain.Event{OrderID: "O1", Kind: domain.EventSave}))
	assert.ErrorIs(t, q.Enqueue(domain.Event{OrderID: "O2", Kind: domain.EventSave}), reconciler.ErrQueueFull)

	q.Close()
	q.Close()
	assert.ErrorIs(t, q.Enqueue(domain.Event{OrderID: "O3", Kind: domain.EventSave}), reconciler.ErrQueueClosed)
}

func TestQueue_WaitsForSettleDelay(t *testing.T) {
	const delay = 60 * time.Millisecond
	calls := &callLog{}
	q := reconciler.NewQueue(func(_ context.Context, ev domain.Event) error {
		calls.record(ev)
		return nil
	}, reconciler.QueueConfig{Size: 4, SettleDelay: delay})

	enqueued := time.Now()
	require.NoError(t, q.Enqueue(domain.Event{OrderID: "O1", Kind: domain.EventSave, At: enqueued}))
	q.Close()
	require.NoError(t, q.Run(context.Background()))

	require.Len(t, calls.times, 1)
	assert.GreaterOrEqual(t, calls.times[0].Sub(enqueued), delay)
}

func TestQueue_RetriesStoreReadFailures(t *testing.T) {
	calls := &callLog{}
	q := fastQueue(func(_ context.Context, ev domain.Event) error {
		if n := calls.record(ev); n < 3 {
			return fmt.Errorf("get order: %w", reconciler.ErrStoreRead)
		}
		return nil
	}, 4)

	require.NoError(t, q.Enqueue(domain.Event{OrderID: "O1", Kind: domain.EventSave}))
	q.Close()
	require.NoError(t, q.Run(context.Background()))

	assert.Len(t, calls.events, 3)
}

func TestQueue_GivesUpAfterMaxAttempts(t *testing.T) {
	calls := &callLog{}
	q := fastQueue(func(_ context.Context, ev domain.Event) error {
		calls.record(ev)
		return reconciler.ErrStoreRead
	}, 4)

	require.NoError(t, q.Enqueue(domain.Event{OrderID: "O1", Kind: domain.EventSave}))
	require.NoError(t, q.Enqueue(domain.Event{OrderID: "O2", Kind: domain.EventSave}))
	q.Close()
	require.NoError(t, q.Run(context.Background()))

	assert.Equal(t, []string{"O1", "O1", "O1", "O2", "O2", "O2"}, calls.orderIDs())
}

func TestQueue_DoesNotRetryOtherErrors(t *testing.T) {
	calls := &callLog{}
	q := fastQueue(func(_ context.Context, ev domain.Event) error {
		calls.record(ev)
		return errors.New("boom")
	}, 4)

	require.NoError(t, q.Enqueue(domain.Event{OrderID: "O1", Kind: domain.EventCancel}))
	q.Close()
	require.NoError(t, q.Run(context.Background()))

	assert.Len(t, calls.events, 1)
}

func TestQueue_StopsOnContextCancel(t *testing.T) {
	q := fastQueue(func(context.Context, domain.Event) error { return nil }, 4)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- q.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestQueue_DrivesEngine(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "bun", 50, domain.UnitPiece)
	f.recipe(t, "m1", ing("bun", 2, domain.UnitPiece))
	f.order(t, "O1", item("m1", 2))

	q := fastQueue(f.engine.Handle, 8)
	require.NoError(t, q.Enqueue(domain.Event{OrderID: "O1", Kind: domain.EventSave}))
	require.NoError(t, q.Enqueue(domain.Event{OrderID: "O1", Kind: domain.EventSave}))
	q.Close()
	require.NoError(t, q.Run(context.Background()))

	assert.Equal(t, 46.0, f.level(t, "bun"))
}
