package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jcmexdev/pos-reconciler/internal/pkg/quantity"
	"github.com/jcmexdev/pos-reconciler/internal/reconciler/domain"
	"github.com/jcmexdev/pos-reconciler/internal/reconciler/reconlog"
)

// ErrStoreRead wraps failures to read the order or the inventory listing.
// Nothing has been mutated when it is returned, so the run can be retried.
var ErrStoreRead = errors.New("store read failed")

var ErrOrderNotCancelled = errors.New("order is not cancelled")

const tracerName = "github.com/jcmexdev/pos-reconciler/internal/reconciler"

type Engine struct {
	orders       OrderStore
	menu         MenuCatalog
	inventory    InventoryStore
	fingerprints FingerprintStore
	locker       OrderLocker
	log          reconlog.Repository
	tracer       trace.Tracer
}

type Option func(*Engine)

func WithFingerprintStore(fs FingerprintStore) Option {
	return func(e *Engine) { e.fingerprints = fs }
}

func WithLocker(l OrderLocker) Option {
	return func(e *Engine) { e.locker = l }
}

// WithLog enables the audit trail. A nil repository leaves it disabled.
func WithLog(repo reconlog.Repository) Option {
	return func(e *Engine) { e.log = repo }
}

// NewEngine wires the engine to its stores. Without options it keeps
// fingerprints in memory, takes no locks and writes no audit trail.
func NewEngine(orders OrderStore, menu MenuCatalog, inventory InventoryStore, opts ...Option) *Engine {
	e := &Engine{
		orders:       orders,
		menu:         menu,
		inventory:    inventory,
		fingerprints: NewMemoryFingerprints(),
		locker:       noopLocker{},
		tracer:       otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Handle dispatches a queued order event.
func (e *Engine) Handle(ctx context.Context, ev domain.Event) error {
	switch ev.Kind {
	case domain.EventSave:
		_, err := e.Reconcile(ctx, ev.OrderID)
		return err
	case domain.EventCancel:
		if _, err := e.Restore(ctx, ev.OrderID); err != nil {
			return err
		}
		e.forget(ctx, ev.OrderID)
		return nil
	case domain.EventComplete:
		e.forget(ctx, ev.OrderID)
		return nil
	default:
		return fmt.Errorf("reconciler: unknown event kind %q", ev.Kind)
	}
}

// Reconcile deducts the ingredients for everything added to the order since
// its baseline, at most once per distinct delta set. Per-ingredient problems
// are reported in the Result, not as an error; the baseline advances even
// when some ingredients could not be adjusted.
func (e *Engine) Reconcile(ctx context.Context, orderID string) (*Result, error) {
	ctx, span := e.tracer.Start(ctx, "reconciler.Reconcile",
		trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	res, err := e.reconcile(ctx, orderID)
	e.finish(ctx, span, res, orderID, domain.EventSave, err)
	return res, err
}

func (e *Engine) reconcile(ctx context.Context, orderID string) (*Result, error) {
	unlock, err := e.locker.Lock(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("reconciler: lock order %q: %w", orderID, err)
	}
	defer unlock(context.WithoutCancel(ctx))

	order, err := e.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("reconciler: get order %q: %w: %w", orderID, ErrStoreRead, err)
	}

	res := newResult(order.ID, domain.EventSave)
	deltas := ComputeDeltas(order.Items, order.SavedQuantities)
	if len(deltas) == 0 {
		res.skip("no delta")
		return res, nil
	}

	items, err := e.inventory.ListInventoryItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconciler: list inventory: %w: %w", ErrStoreRead, err)
	}

	reqs, missing := ExpandRequirements(ctx, e.menu, deltas)
	res.MissingRecipes = missing
	agg := Aggregate(reqs, NativeUnits(items))
	res.Fingerprint = Fingerprint(order.ID, order.SavedQuantities, agg)

	if e.alreadyApplied(ctx, order, res.Fingerprint) {
		res.skip("delta set already applied")
	} else {
		e.apply(ctx, res, agg, items, deduct)
		if err := e.fingerprints.Record(ctx, order.ID, res.Fingerprint); err != nil {
			slog.WarnContext(ctx, "failed to record fingerprint",
				"component", "reconciler", "order_id", order.ID, "error", err)
		}
	}

	// A duplicate still advances the baseline: the deduction it stands for
	// has been applied, only the baseline write may have been lost.
	if err := e.orders.AdvanceSavedQuantities(ctx, order.ID, order.Quantities(), res.Fingerprint); err != nil {
		return res, fmt.Errorf("reconciler: advance baseline of %q: %w", order.ID, err)
	}
	return res, nil
}

func (e *Engine) alreadyApplied(ctx context.Context, order *domain.Order, fp string) bool {
	if order.LastAppliedFingerprint == fp {
		return true
	}
	last, err := e.fingerprints.Last(ctx, order.ID)
	if err != nil {
		slog.WarnContext(ctx, "fingerprint lookup failed",
			"component", "reconciler", "order_id", order.ID, "error", err)
		return false
	}
	return last == fp
}

// forget releases the shared fingerprint of a terminal order. The order row
// keeps its own LastAppliedFingerprint.
func (e *Engine) forget(ctx context.Context, orderID string) {
	if err := e.fingerprints.Forget(ctx, orderID); err != nil {
		slog.WarnContext(ctx, "failed to forget fingerprint",
			"component", "reconciler", "order_id", orderID, "error", err)
	}
}

// Restore adds back the ingredients of every item of a cancelled order,
// using full quantities. There is no duplicate guard on this path.
func (e *Engine) Restore(ctx context.Context, orderID string) (*Result, error) {
	ctx, span := e.tracer.Start(ctx, "reconciler.Restore",
		trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	res, err := e.restore(ctx, orderID)
	e.finish(ctx, span, res, orderID, domain.EventCancel, err)
	return res, err
}

func (e *Engine) restore(ctx context.Context, orderID string) (*Result, error) {
	unlock, err := e.locker.Lock(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("reconciler: lock order %q: %w", orderID, err)
	}
	defer unlock(context.WithoutCancel(ctx))

	order, err := e.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("reconciler: get order %q: %w: %w", orderID, ErrStoreRead, err)
	}
	if order.Status != domain.StatusCancelled {
		return nil, fmt.Errorf("reconciler: restore %q (%s): %w", orderID, order.Status, ErrOrderNotCancelled)
	}

	res := newResult(order.ID, domain.EventCancel)
	full := FullQuantities(order.Items)
	if len(full) == 0 {
		res.skip("empty order")
		return res, nil
	}

	items, err := e.inventory.ListInventoryItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconciler: list inventory: %w: %w", ErrStoreRead, err)
	}

	reqs, missing := ExpandRequirements(ctx, e.menu, full)
	res.MissingRecipes = missing
	agg := Aggregate(reqs, NativeUnits(items))

	e.apply(ctx, res, agg, items, restore)
	return res, nil
}

type stockOp func(current, qty float64) float64

func deduct(current, qty float64) float64 {
	return quantity.FloorZero(quantity.Sub(current, qty, quantity.StockPlaces))
}

func restore(current, qty float64) float64 {
	return quantity.Add(current, qty, quantity.StockPlaces)
}

// apply writes one stock update per aggregated ingredient. A failed write is
// retried once against the item re-resolved by name from the store; failures
// never stop the remaining ingredients.
func (e *Engine) apply(ctx context.Context, res *Result, agg []Aggregated, items []*domain.InventoryItem, op stockOp) {
	for _, a := range agg {
		item := ResolveIdentity(items, a.Name)
		if item == nil {
			slog.WarnContext(ctx, "no inventory item for ingredient, skipping",
				"component", "reconciler", "order_id", res.OrderID, "ingredient", a.Name)
			res.MissingInventory = append(res.MissingInventory, a.Name)
			continue
		}
		if a.Approximate {
			slog.WarnContext(ctx, "incompatible units summed without conversion",
				"component", "reconciler", "order_id", res.OrderID, "ingredient", a.Name, "unit", a.Unit)
		}

		adj, err := e.write(ctx, item, a, op)
		if err != nil {
			slog.ErrorContext(ctx, "failed to adjust stock",
				"component", "reconciler", "order_id", res.OrderID, "ingredient", a.Name, "error", err)
			res.Failures = append(res.Failures, Failure{Ingredient: a.Name, Reason: err.Error()})
			continue
		}
		res.Adjustments = append(res.Adjustments, adj)
	}
}

func (e *Engine) write(ctx context.Context, item *domain.InventoryItem, a Aggregated, op stockOp) (Adjustment, error) {
	next := op(item.StockQuantity, a.Quantity)
	err := e.inventory.UpdateStock(ctx, item.ID, next)
	if err == nil {
		return newAdjustment(item, a.Quantity, next, a.Approximate), nil
	}

	slog.WarnContext(ctx, "stock write failed, re-resolving item by name",
		"component", "reconciler", "ingredient", a.Name, "item_id", item.ID, "error", err)

	fresh, gerr := e.inventory.GetInventoryItem(ctx, a.Name)
	if gerr != nil {
		return Adjustment{}, errors.Join(err, gerr)
	}
	if fresh == nil {
		return Adjustment{}, fmt.Errorf("%w: %q disappeared", err, a.Name)
	}

	qty := a.Quantity
	approx := a.Approximate
	if fresh.Unit != item.Unit {
		var ok bool
		qty, ok = Convert(a.Quantity, a.Unit, fresh.Unit)
		approx = approx || !ok
	}
	next = op(fresh.StockQuantity, qty)
	if err := e.inventory.UpdateStock(ctx, fresh.ID, next); err != nil {
		return Adjustment{}, fmt.Errorf("retry on %q: %w", fresh.ID, err)
	}
	return newAdjustment(fresh, qty, next, approx), nil
}

func (e *Engine) finish(ctx context.Context, span trace.Span, res *Result, orderID string, kind domain.EventKind, err error) {
	status := reconlog.StatusFailed
	var (
		runID       = uuid.NewString()
		fingerprint string
		adjustments []Adjustment
		failures    []string
	)
	if res != nil {
		status = res.Status()
		runID = res.RunID
		fingerprint = res.Fingerprint
		adjustments = res.Adjustments
		failures = res.failureMessages()
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		failures = append(failures, err.Error())
		status = reconlog.StatusFailed
	}
	span.SetAttributes(attribute.String("reconcile.status", string(status)))

	slog.InfoContext(ctx, "reconciliation run finished",
		"component", "reconciler",
		"order_id", orderID,
		"kind", kind,
		"status", status,
		"adjustments", len(adjustments),
		"failures", len(failures))

	if e.log == nil {
		return
	}
	entry := reconlog.NewEntry(ctx, runID, orderID, string(kind), status, fingerprint, adjustments, failures)
	if lerr := e.log.Save(context.WithoutCancel(ctx), entry); lerr != nil {
		slog.ErrorContext(ctx, "failed to write reconciliation log",
			"component", "reconciler", "order_id", orderID, "error", lerr)
	}
}
