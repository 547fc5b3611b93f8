package reconciler_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/pos-reconciler/internal/reconciler"
	"github.com/jcmexdev/pos-reconciler/internal/reconciler/domain"
	"github.com/jcmexdev/pos-reconciler/internal/reconciler/reconlog"
	"github.com/jcmexdev/pos-reconciler/internal/store/memory"
)

type fixture struct {
	orders    *memory.OrderStore
	menu      *memory.MenuCatalog
	inventory *memory.InventoryStore
	log       *recordingLog
	engine    *reconciler.Engine
}

func newFixture(t *testing.T, opts ...reconciler.Option) *fixture {
	t.Helper()
	f := &fixture{
		orders:    memory.NewOrderStore(),
		menu:      memory.NewMenuCatalog(),
		inventory: memory.NewInventoryStore(),
		log:       &recordingLog{},
	}
	opts = append([]reconciler.Option{reconciler.WithLog(f.log)}, opts...)
	f.engine = reconciler.NewEngine(f.orders, f.menu, f.inventory, opts...)
	return f
}

func (f *fixture) stock(t *testing.T, name string, qty float64, unit domain.Unit) *domain.InventoryItem {
	t.Helper()
	it, err := f.inventory.UpsertInventoryItem(context.Background(), &domain.InventoryItem{
		Name: name, StockQuantity: qty, Unit: unit,
	})
	require.NoError(t, err)
	return it
}

func (f *fixture) recipe(t *testing.T, menuItemID string, ingredients ...domain.Ingredient) {
	t.Helper()
	require.NoError(t, f.menu.PutRecipe(context.Background(), &domain.Recipe{
		MenuItemID: menuItemID, Ingredients: ingredients,
	}))
}

func (f *fixture) order(t *testing.T, id string, items ...domain.OrderItem) *domain.Order {
	t.Helper()
	o := domain.NewOrder(id, items, time.Now())
	require.NoError(t, f.orders.CreateOrder(context.Background(), o))
	return o
}

func (f *fixture) level(t *testing.T, name string) float64 {
	t.Helper()
	it, err := f.inventory.GetInventoryItem(context.Background(), name)
	require.NoError(t, err)
	require.NotNil(t, it, "inventory item %q", name)
	return it.StockQuantity
}

func (f *fixture) setItems(t *testing.T, id string, items ...domain.OrderItem) {
	t.Helper()
	require.NoError(t, f.orders.SetItems(context.Background(), id, items))
}

func (f *fixture) cancel(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, f.orders.SetStatus(context.Background(), id, domain.StatusCancelled))
}

func ing(name string, qty float64, unit domain.Unit) domain.Ingredient {
	return domain.Ingredient{Name: name, Quantity: qty, Unit: unit}
}

func item(menuItemID string, qty float64) domain.OrderItem {
	return domain.OrderItem{MenuItemID: menuItemID, Name: menuItemID, Quantity: qty}
}

type recordingLog struct {
	entries []*reconlog.Entry
}

func (r *recordingLog) Save(_ context.Context, e *reconlog.Entry) error {
	r.entries = append(r.entries, e)
	return nil
}

func (r *recordingLog) Latest(_ context.Context, orderID string) (*reconlog.Entry, error) {
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].OrderID == orderID {
			return r.entries[i], nil
		}
	}
	return nil, reconlog.ErrNotFound
}

func (r *recordingLog) History(_ context.Context, orderID string) ([]*reconlog.Entry, error) {
	var out []*reconlog.Entry
	for _, e := range r.entries {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestReconcile_BurgerScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.stock(t, "Bun", 50, domain.UnitPiece)
	f.stock(t, "Patty", 30, domain.UnitPiece)
	f.recipe(t, "m1", ing("Bun", 2, domain.UnitPiece), ing("Patty", 1, domain.UnitPiece))
	f.order(t, "O1", domain.OrderItem{MenuItemID: "m1", Name: "Burger", Quantity: 2})

	res, err := f.engine.Reconcile(ctx, "O1")
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Len(t, res.Adjustments, 2)
	assert.Equal(t, 46.0, f.level(t, "bun"))
	assert.Equal(t, 28.0, f.level(t, "patty"))

	o, err := f.orders.GetOrder(ctx, "O1")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"m1": 2}, o.SavedQuantities)
	assert.Equal(t, res.Fingerprint, o.LastAppliedFingerprint)

	res, err = f.engine.Reconcile(ctx, "O1")
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Equal(t, 46.0, f.level(t, "bun"))
	assert.Equal(t, 28.0, f.level(t, "patty"))

	require.Len(t, f.log.entries, 2)
	assert.Equal(t, reconlog.StatusApplied, f.log.entries[0].Status)
	assert.Equal(t, reconlog.StatusSkipped, f.log.entries[1].Status)
}

func TestReconcile_OnlyDeductsNewQuantity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.stock(t, "bun", 50, domain.UnitPiece)
	f.recipe(t, "m1", ing("bun", 2, domain.UnitPiece))
	f.order(t, "O1", item("m1", 2))

	_, err := f.engine.Reconcile(ctx, "O1")
	require.NoError(t, err)

	f.setItems(t, "O1", item("m1", 5))
	_, err = f.engine.Reconcile(ctx, "O1")
	require.NoError(t, err)

	// 2*2 then 3*2.
	assert.Equal(t, 40.0, f.level(t, "bun"))
}

func TestReconcile_SameSizedIncrementIsNotADuplicate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.stock(t, "bun", 50, domain.UnitPiece)
	f.recipe(t, "m1", ing("bun", 2, domain.UnitPiece))
	f.order(t, "O1", item("m1", 1))

	_, err := f.engine.Reconcile(ctx, "O1")
	require.NoError(t, err)
	f.setItems(t, "O1", item("m1", 2))
	res, err := f.engine.Reconcile(ctx, "O1")
	require.NoError(t, err)

	assert.False(t, res.Skipped)
	assert.Equal(t, 46.0, f.level(t, "bun"))
}

// lostBaselineStore drops baseline writes so the same delta set is presented
// to the engine twice.
type lostBaselineStore struct {
	*memory.OrderStore
}

func (lostBaselineStore) AdvanceSavedQuantities(context.Context, string, map[string]float64, string) error {
	return nil
}

func TestReconcile_IdempotentWhenBaselineIsLost(t *testing.T) {
	ctx := context.Background()
	orders := lostBaselineStore{memory.NewOrderStore()}
	menu := memory.NewMenuCatalog()
	inventory := memory.NewInventoryStore()
	engine := reconciler.NewEngine(orders, menu, inventory)

	_, err := inventory.UpsertInventoryItem(ctx, &domain.InventoryItem{Name: "tomato", StockQuantity: 1000, Unit: domain.UnitGram})
	require.NoError(t, err)
	require.NoError(t, menu.PutRecipe(ctx, &domain.Recipe{MenuItemID: "salad", Ingredients: []domain.Ingredient{ing("tomato", 100, domain.UnitGram)}}))
	require.NoError(t, orders.CreateOrder(ctx, domain.NewOrder("O1", []domain.OrderItem{item("salad", 1)}, time.Now())))

	first, err := engine.Reconcile(ctx, "O1")
	require.NoError(t, err)
	second, err := engine.Reconcile(ctx, "O1")
	require.NoError(t, err)

	assert.False(t, first.Skipped)
	assert.True(t, second.Skipped)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)

	it, err := inventory.GetInventoryItem(ctx, "tomato")
	require.NoError(t, err)
	assert.Equal(t, 900.0, it.StockQuantity)
}

func TestReconcile_SharedFingerprintStore(t *testing.T) {
	ctx := context.Background()
	fps := reconciler.NewMemoryFingerprints()
	orders := lostBaselineStore{memory.NewOrderStore()}
	menu := memory.NewMenuCatalog()
	inventory := memory.NewInventoryStore()

	_, err := inventory.UpsertInventoryItem(ctx, &domain.InventoryItem{Name: "rice", StockQuantity: 10, Unit: domain.UnitKilogram})
	require.NoError(t, err)
	require.NoError(t, menu.PutRecipe(ctx, &domain.Recipe{MenuItemID: "bowl", Ingredients: []domain.Ingredient{ing("rice", 200, domain.UnitGram)}}))
	require.NoError(t, orders.CreateOrder(ctx, domain.NewOrder("O1", []domain.OrderItem{item("bowl", 5)}, time.Now())))

	_, err = reconciler.NewEngine(orders, menu, inventory, reconciler.WithFingerprintStore(fps)).Reconcile(ctx, "O1")
	require.NoError(t, err)
	res, err := reconciler.NewEngine(orders, menu, inventory, reconciler.WithFingerprintStore(fps)).Reconcile(ctx, "O1")
	require.NoError(t, err)

	assert.True(t, res.Skipped)
	it, err := inventory.GetInventoryItem(ctx, "rice")
	require.NoError(t, err)
	assert.Equal(t, 9.0, it.StockQuantity)
}

func TestReconcile_StockNeverNegative(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "cheese", 3, domain.UnitPiece)
	f.recipe(t, "m1", ing("cheese", 2, domain.UnitPiece))
	f.order(t, "O1", item("m1", 4))

	_, err := f.engine.Reconcile(context.Background(), "O1")
	require.NoError(t, err)

	assert.Equal(t, 0.0, f.level(t, "cheese"))
}

func TestReconcile_UnitConversionToInventoryUnit(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "flour", 5, domain.UnitKilogram)
	f.recipe(t, "bread", ing("Flour", 250, domain.UnitGram))
	f.recipe(t, "cake", ing("flour", 0.5, domain.UnitKilogram))
	f.order(t, "O1", item("bread", 2), item("cake", 1))

	_, err := f.engine.Reconcile(context.Background(), "O1")
	require.NoError(t, err)

	assert.Equal(t, 4.0, f.level(t, "flour"))
}

func TestReconcile_FreeFormUnitsAreConverted(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "Flour", 5000, "g ")
	f.recipe(t, "bread", ing("flour", 1, "KG"))
	f.order(t, "O1", item("bread", 1))

	res, err := f.engine.Reconcile(context.Background(), "O1")
	require.NoError(t, err)
	require.Len(t, res.Adjustments, 1)
	assert.False(t, res.Adjustments[0].Approximate)
	assert.Equal(t, 4000.0, f.level(t, "flour"))
}

func TestReconcile_PartialFailureIsolation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.stock(t, "B", 10, domain.UnitPiece)
	f.recipe(t, "m1", ing("A", 1, domain.UnitPiece), ing("B", 1, domain.UnitPiece))
	f.order(t, "O1", item("m1", 3))

	res, err := f.engine.Reconcile(ctx, "O1")
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, res.MissingInventory)
	assert.Equal(t, 7.0, f.level(t, "b"))
	o, err := f.orders.GetOrder(ctx, "O1")
	require.NoError(t, err)
	assert.Equal(t, 3.0, o.SavedQuantities["m1"])
	assert.Equal(t, reconlog.StatusPartial, f.log.entries[0].Status)
}

func TestReconcile_MissingRecipeIsNotFatal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.stock(t, "bun", 10, domain.UnitPiece)
	f.recipe(t, "m1", ing("bun", 1, domain.UnitPiece), ing("", 1, domain.UnitPiece), ing("air", 0, domain.UnitGram))
	f.order(t, "O1", item("m1", 1), item("water", 2))

	res, err := f.engine.Reconcile(ctx, "O1")
	require.NoError(t, err)

	assert.Equal(t, []string{"water"}, res.MissingRecipes)
	assert.Equal(t, 9.0, f.level(t, "bun"))
	o, err := f.orders.GetOrder(ctx, "O1")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"m1": 1, "water": 2}, o.SavedQuantities)
}

// driftingInventory rekeys an item on the first write to it, so the id the
// engine read from the listing is stale by the time it writes.
type driftingInventory struct {
	*memory.InventoryStore
	drift   string
	drifted bool
}

func (d *driftingInventory) UpdateStock(ctx context.Context, itemID string, qty float64) error {
	if !d.drifted {
		it, _ := d.InventoryStore.GetInventoryItem(ctx, d.drift)
		if it != nil && it.ID == itemID {
			d.drifted = true
			if err := d.InventoryStore.Rekey(d.drift, "canonical-"+d.drift); err != nil {
				return err
			}
		}
	}
	return d.InventoryStore.UpdateStock(ctx, itemID, qty)
}

func TestReconcile_RetriesAfterIdentityDrift(t *testing.T) {
	ctx := context.Background()
	orders := memory.NewOrderStore()
	menu := memory.NewMenuCatalog()
	inventory := &driftingInventory{InventoryStore: memory.NewInventoryStore(), drift: "patty"}
	engine := reconciler.NewEngine(orders, menu, inventory)

	_, err := inventory.UpsertInventoryItem(ctx, &domain.InventoryItem{Name: "patty", StockQuantity: 30, Unit: domain.UnitPiece})
	require.NoError(t, err)
	require.NoError(t, menu.PutRecipe(ctx, &domain.Recipe{MenuItemID: "m1", Ingredients: []domain.Ingredient{ing("patty", 1, domain.UnitPiece)}}))
	require.NoError(t, orders.CreateOrder(ctx, domain.NewOrder("O1", []domain.OrderItem{item("m1", 2)}, time.Now())))

	res, err := engine.Reconcile(ctx, "O1")
	require.NoError(t, err)

	assert.Empty(t, res.Failures)
	require.Len(t, res.Adjustments, 1)
	assert.Equal(t, "canonical-patty", res.Adjustments[0].ItemID)
	it, err := inventory.GetInventoryItem(ctx, "patty")
	require.NoError(t, err)
	assert.Equal(t, 28.0, it.StockQuantity)
}

// failingInventory rejects every write to one ingredient.
type failingInventory struct {
	*memory.InventoryStore
	failID string
}

func (f *failingInventory) UpdateStock(ctx context.Context, itemID string, qty float64) error {
	if itemID == f.failID {
		return errors.New("backend unavailable")
	}
	return f.InventoryStore.UpdateStock(ctx, itemID, qty)
}

func TestReconcile_WriteFailureDoesNotBlockOthers(t *testing.T) {
	ctx := context.Background()
	orders := memory.NewOrderStore()
	menu := memory.NewMenuCatalog()
	inventory := &failingInventory{InventoryStore: memory.NewInventoryStore()}
	engine := reconciler.NewEngine(orders, menu, inventory)

	bun, err := inventory.UpsertInventoryItem(ctx, &domain.InventoryItem{Name: "bun", StockQuantity: 10, Unit: domain.UnitPiece})
	require.NoError(t, err)
	_, err = inventory.UpsertInventoryItem(ctx, &domain.InventoryItem{Name: "patty", StockQuantity: 10, Unit: domain.UnitPiece})
	require.NoError(t, err)
	inventory.failID = bun.ID
	require.NoError(t, menu.PutRecipe(ctx, &domain.Recipe{MenuItemID: "m1", Ingredients: []domain.Ingredient{
		ing("bun", 2, domain.UnitPiece), ing("patty", 1, domain.UnitPiece),
	}}))
	require.NoError(t, orders.CreateOrder(ctx, domain.NewOrder("O1", []domain.OrderItem{item("m1", 1)}, time.Now())))

	res, err := engine.Reconcile(ctx, "O1")
	require.NoError(t, err)

	require.Len(t, res.Failures, 1)
	assert.Equal(t, "bun", res.Failures[0].Ingredient)
	patty, err := inventory.GetInventoryItem(ctx, "patty")
	require.NoError(t, err)
	assert.Equal(t, 9.0, patty.StockQuantity)
	o, err := orders.GetOrder(ctx, "O1")
	require.NoError(t, err)
	assert.Equal(t, 1.0, o.SavedQuantities["m1"])
}

func TestReconcile_UnknownOrder(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Reconcile(context.Background(), "nope")

	assert.ErrorIs(t, err, reconciler.ErrOrderNotFound)
	assert.ErrorIs(t, err, reconciler.ErrStoreRead)
	require.Len(t, f.log.entries, 1)
	assert.Equal(t, reconlog.StatusFailed, f.log.entries[0].Status)
}

func TestRestore_AddsBackFullQuantity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.stock(t, "tomato", 1000, domain.UnitGram)
	f.recipe(t, "m1", ing("tomato", 50, domain.UnitGram))
	f.order(t, "O1", item("m1", 4))
	require.NoError(t, f.orders.AdvanceSavedQuantities(ctx, "O1", map[string]float64{"m1": 1}, ""))
	f.cancel(t, "O1")

	res, err := f.engine.Restore(ctx, "O1")
	require.NoError(t, err)

	assert.Equal(t, 1200.0, f.level(t, "tomato"))
	assert.Empty(t, res.Fingerprint)
	o, err := f.orders.GetOrder(ctx, "O1")
	require.NoError(t, err)
	assert.Equal(t, 1.0, o.SavedQuantities["m1"], "baseline is not cleared")
}

func TestRestore_UndoesDeduction(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.stock(t, "milk", 2, domain.UnitLiter)
	f.recipe(t, "latte", ing("milk", 200, domain.UnitMilliliter))
	f.order(t, "O1", item("latte", 3))

	_, err := f.engine.Reconcile(ctx, "O1")
	require.NoError(t, err)
	assert.Equal(t, 1.4, f.level(t, "milk"))

	f.cancel(t, "O1")
	_, err = f.engine.Restore(ctx, "O1")
	require.NoError(t, err)
	assert.Equal(t, 2.0, f.level(t, "milk"))
}

func TestRestore_RequiresCancelledOrder(t *testing.T) {
	f := newFixture(t)
	f.order(t, "O1", item("m1", 1))

	_, err := f.engine.Restore(context.Background(), "O1")

	assert.ErrorIs(t, err, reconciler.ErrOrderNotCancelled)
}

func TestRestore_MissingItemDoesNotBlockOthers(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "bun", 10, domain.UnitPiece)
	f.recipe(t, "m1", ing("bun", 1, domain.UnitPiece), ing("sauce", 10, domain.UnitMilliliter))
	f.order(t, "O1", item("m1", 2))
	f.cancel(t, "O1")

	res, err := f.engine.Restore(context.Background(), "O1")
	require.NoError(t, err)

	assert.Equal(t, []string{"sauce"}, res.MissingInventory)
	assert.Equal(t, 12.0, f.level(t, "bun"))
}

func TestHandle_Dispatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.stock(t, "bun", 10, domain.UnitPiece)
	f.recipe(t, "m1", ing("bun", 1, domain.UnitPiece))
	f.order(t, "O1", item("m1", 2))

	require.NoError(t, f.engine.Handle(ctx, domain.Event{OrderID: "O1", Kind: domain.EventSave}))
	assert.Equal(t, 8.0, f.level(t, "bun"))

	require.NoError(t, f.engine.Handle(ctx, domain.Event{OrderID: "O1", Kind: domain.EventComplete}))
	assert.Equal(t, 8.0, f.level(t, "bun"))

	assert.Error(t, f.engine.Handle(ctx, domain.Event{OrderID: "O1", Kind: "refund"}))
}

func TestHandle_TerminalEventsForgetSharedFingerprint(t *testing.T) {
	ctx := context.Background()
	fps := reconciler.NewMemoryFingerprints()
	f := newFixture(t, reconciler.WithFingerprintStore(fps))
	f.stock(t, "bun", 10, domain.UnitPiece)
	f.recipe(t, "m1", ing("bun", 1, domain.UnitPiece))
	f.order(t, "done", item("m1", 1))
	f.order(t, "void", item("m1", 2))

	for _, id := range []string{"done", "void"} {
		require.NoError(t, f.engine.Handle(ctx, domain.Event{OrderID: id, Kind: domain.EventSave}))
		last, err := fps.Last(ctx, id)
		require.NoError(t, err)
		require.NotEmpty(t, last)
	}
	assert.Equal(t, 7.0, f.level(t, "bun"))

	require.NoError(t, f.orders.SetStatus(ctx, "done", domain.StatusCompleted))
	require.NoError(t, f.engine.Handle(ctx, domain.Event{OrderID: "done", Kind: domain.EventComplete}))
	f.cancel(t, "void")
	require.NoError(t, f.engine.Handle(ctx, domain.Event{OrderID: "void", Kind: domain.EventCancel}))

	for _, id := range []string{"done", "void"} {
		last, err := fps.Last(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, last, id)
	}
	assert.Equal(t, 9.0, f.level(t, "bun"))

	o, err := f.orders.GetOrder(ctx, "done")
	require.NoError(t, err)
	assert.NotEmpty(t, o.LastAppliedFingerprint)
}
