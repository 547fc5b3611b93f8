package ports

import (
	"context"
	"errors"

	"github.com/jcmexdev/pos-reconciler/internal/api-gateway/core/domain/entity"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalid     = errors.New("invalid request")
	ErrConflict    = errors.New("conflicts with order status")
	ErrUnavailable = errors.New("backend unavailable")
)

// ReconcilerService is the gateway's view of the reconciler backend. Save and
// cancel return once the inventory work is queued.
type ReconcilerService interface {
	CreateOrder(ctx context.Context, items []entity.OrderItem) (*entity.Order, error)
	GetOrder(ctx context.Context, id string) (*entity.Order, error)
	SetOrderItems(ctx context.Context, id string, items []entity.OrderItem) (*entity.Order, error)
	SaveOrder(ctx context.Context, id string) error
	CancelOrder(ctx context.Context, id string) error
	CompleteOrder(ctx context.Context, id string) error

	PutRecipe(ctx context.Context, recipe entity.Recipe) (*entity.Recipe, error)
	GetRecipe(ctx context.Context, menuItemID string) (*entity.Recipe, error)

	ListInventory(ctx context.Context) ([]entity.InventoryItem, error)
	UpsertInventoryItem(ctx context.Context, item entity.InventoryItem) (*entity.InventoryItem, error)

	ReconciliationHistory(ctx context.Context, orderID string) ([]entity.ReconciliationRun, error)
	// LatestReconciliation returns ErrNotFound when the order has no runs.
	LatestReconciliation(ctx context.Context, orderID string) (*entity.ReconciliationRun, error)
}
