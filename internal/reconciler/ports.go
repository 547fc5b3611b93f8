// Package reconciler turns order activity into inventory stock mutations.
//
// On save, the quantities added to an order since its last reconciled baseline
// are expanded through the menu recipes, aggregated per ingredient in the
// inventory's native unit and deducted exactly once per distinct delta set. On
// cancel, the full order is expanded the same way and added back.
//
// The stores below are the collaborators the engine reads and mutates. They
// are implemented in internal/store.
package reconciler

import (
	"context"
	"errors"

	"github.com/jcmexdev/pos-reconciler/internal/reconciler/domain"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrOrderNotOngoing = errors.New("order is not ongoing")
	// ErrStaleItem is returned by InventoryStore.UpdateStock when the item id
	// no longer identifies a record.
	ErrStaleItem = errors.New("inventory item is stale or missing")
)

type OrderStore interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	SetItems(ctx context.Context, orderID string, items []domain.OrderItem) error
	SetStatus(ctx context.Context, orderID string, status domain.OrderStatus) error
	// AdvanceSavedQuantities replaces the order's reconciled baseline and
	// records the fingerprint of the delta set that produced it.
	AdvanceSavedQuantities(ctx context.Context, orderID string, baseline map[string]float64, fingerprint string) error
}

type MenuCatalog interface {
	// GetRecipe returns nil, nil when the menu item has no recipe.
	GetRecipe(ctx context.Context, menuItemID string) (*domain.Recipe, error)
	PutRecipe(ctx context.Context, recipe *domain.Recipe) error
}

type InventoryStore interface {
	ListInventoryItems(ctx context.Context) ([]*domain.InventoryItem, error)
	// GetInventoryItem looks an item up by normalised name and returns nil, nil
	// when it does not exist.
	GetInventoryItem(ctx context.Context, name string) (*domain.InventoryItem, error)
	UpdateStock(ctx context.Context, itemID string, stockQuantity float64) error
	UpsertInventoryItem(ctx context.Context, item *domain.InventoryItem) (*domain.InventoryItem, error)
}

// FingerprintStore remembers the last applied deduction fingerprint per order.
type FingerprintStore interface {
	// Last returns "" when nothing has been recorded for the order.
	Last(ctx context.Context, orderID string) (string, error)
	Record(ctx context.Context, orderID, fingerprint string) error
	// Forget drops the entry once the order can no longer be saved.
	Forget(ctx context.Context, orderID string) error
}

// OrderLocker serialises processing of one order across processes.
type OrderLocker interface {
	Lock(ctx context.Context, orderID string) (unlock func(context.Context), err error)
}

type noopLocker struct{}

func (noopLocker) Lock(context.Context, string) (func(context.Context), error) {
	return func(context.Context) {}, nil
}
