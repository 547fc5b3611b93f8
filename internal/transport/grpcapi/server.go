package grpcapi

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jcmexdev/pos-reconciler/internal/pkg/interceptors"
	"github.com/jcmexdev/pos-reconciler/internal/reconciler"
	"github.com/jcmexdev/pos-reconciler/internal/reconciler/domain"
	"github.com/jcmexdev/pos-reconciler/internal/reconciler/reconlog"
)

var _ ReconcilerServer = (*Server)(nil)

// Server exposes order actions, catalog and inventory maintenance, and the
// reconciliation trail. Order actions return as soon as their side effect is
// queued.
type Server struct {
	lifecycle *reconciler.Lifecycle
	orders    reconciler.OrderStore
	menu      reconciler.MenuCatalog
	inventory reconciler.InventoryStore
	log       reconlog.Repository
}

func NewServer(
	lifecycle *reconciler.Lifecycle,
	orders reconciler.OrderStore,
	menu reconciler.MenuCatalog,
	inventory reconciler.InventoryStore,
	log reconlog.Repository,
) *Server {
	return &Server{lifecycle: lifecycle, orders: orders, menu: menu, inventory: inventory, log: log}
}

func (s *Server) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*OrderResponse, error) {
	order, err := s.lifecycle.CreateOrder(ctx, req.Items)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return orderResponse(order), nil
}

func (s *Server) GetOrder(ctx context.Context, req *GetOrderRequest) (*OrderResponse, error) {
	if req.OrderID == "" {
		return nil, status.Error(codes.InvalidArgument, "order_id is required")
	}
	order, err := s.orders.GetOrder(ctx, req.OrderID)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return orderResponse(order), nil
}

func (s *Server) SetOrderItems(ctx context.Context, req *SetOrderItemsRequest) (*OrderResponse, error) {
	if req.OrderID == "" {
		return nil, status.Error(codes.InvalidArgument, "order_id is required")
	}
	order, err := s.lifecycle.SetItems(ctx, req.OrderID, req.Items)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return orderResponse(order), nil
}

func (s *Server) SaveOrder(ctx context.Context, req *OrderActionRequest) (*OrderActionResponse, error) {
	if req.OrderID == "" {
		return nil, status.Error(codes.InvalidArgument, "order_id is required")
	}
	if err := s.lifecycle.Save(ctx, req.OrderID, eventMeta(ctx)); err != nil {
		return nil, toStatus(ctx, err)
	}
	return &OrderActionResponse{OrderID: req.OrderID, Status: domain.StatusOngoing, Queued: true}, nil
}

func (s *Server) CancelOrder(ctx context.Context, req *OrderActionRequest) (*OrderActionResponse, error) {
	if req.OrderID == "" {
		return nil, status.Error(codes.InvalidArgument, "order_id is required")
	}
	if err := s.lifecycle.Cancel(ctx, req.OrderID, eventMeta(ctx)); err != nil {
		return nil, toStatus(ctx, err)
	}
	return &OrderActionResponse{OrderID: req.OrderID, Status: domain.StatusCancelled, Queued: true}, nil
}

func (s *Server) CompleteOrder(ctx context.Context, req *OrderActionRequest) (*OrderActionResponse, error) {
	if req.OrderID == "" {
		return nil, status.Error(codes.InvalidArgument, "order_id is required")
	}
	if err := s.lifecycle.Complete(ctx, req.OrderID); err != nil {
		return nil, toStatus(ctx, err)
	}
	return &OrderActionResponse{OrderID: req.OrderID, Status: domain.StatusCompleted}, nil
}

func (s *Server) PutRecipe(ctx context.Context, req *PutRecipeRequest) (*RecipeResponse, error) {
	if err := s.menu.PutRecipe(ctx, req.Recipe); err != nil {
		return nil, toStatus(ctx, err)
	}
	// Read back the stored form, with units canonicalised.
	recipe, err := s.menu.GetRecipe(ctx, req.Recipe.MenuItemID)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return &RecipeResponse{Recipe: recipe}, nil
}

func (s *Server) GetRecipe(ctx context.Context, req *GetRecipeRequest) (*RecipeResponse, error) {
	recipe, err := s.menu.GetRecipe(ctx, req.MenuItemID)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	if recipe == nil {
		return nil, status.Errorf(codes.NotFound, "no recipe for menu item %q", req.MenuItemID)
	}
	return &RecipeResponse{Recipe: recipe}, nil
}

func (s *Server) UpsertInventoryItem(ctx context.Context, req *UpsertInventoryItemRequest) (*InventoryItemResponse, error) {
	if req.Item == nil {
		return nil, status.Error(codes.InvalidArgument, "item is required")
	}
	item, err := s.inventory.UpsertInventoryItem(ctx, req.Item)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return &InventoryItemResponse{Item: item}, nil
}

func (s *Server) ListInventory(ctx context.Context, _ *ListInventoryRequest) (*ListInventoryResponse, error) {
	items, err := s.inventory.ListInventoryItems(ctx)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return &ListInventoryResponse{Items: items}, nil
}

func (s *Server) GetReconciliationLog(ctx context.Context, req *GetReconciliationLogRequest) (*ReconciliationLogResponse, error) {
	if s.log == nil {
		return nil, status.Error(codes.Unimplemented, "reconciliation log is disabled")
	}
	if req.Latest {
		entry, err := s.log.Latest(ctx, req.OrderID)
		if err != nil {
			return nil, toStatus(ctx, err)
		}
		return &ReconciliationLogResponse{Entries: []LogEntry{toLogEntry(entry)}}, nil
	}
	entries, err := s.log.History(ctx, req.OrderID)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	out := &ReconciliationLogResponse{Entries: make([]LogEntry, 0, len(entries))}
	for _, e := range entries {
		out.Entries = append(out.Entries, toLogEntry(e))
	}
	return out, nil
}

func orderResponse(o *domain.Order) *OrderResponse {
	return &OrderResponse{Order: o, Total: o.Total()}
}

func eventMeta(ctx context.Context) reconciler.EventMeta {
	return reconciler.EventMeta{
		RequestID:      interceptors.RequestIDFromContext(ctx),
		IdempotencyKey: interceptors.IdempotencyKeyFromContext(ctx),
	}
}

// toStatus maps domain errors onto gRPC codes. Unknown errors are logged and
// returned as Internal.
func toStatus(ctx context.Context, err error) error {
	var code codes.Code
	switch {
	case errors.Is(err, reconciler.ErrOrderNotFound), errors.Is(err, reconlog.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, domain.ErrMalformed):
		code = codes.InvalidArgument
	case errors.Is(err, reconciler.ErrOrderNotOngoing), errors.Is(err, domain.ErrInvalidTransition):
		code = codes.FailedPrecondition
	case errors.Is(err, reconciler.ErrQueueFull):
		code = codes.ResourceExhausted
	case errors.Is(err, reconciler.ErrQueueClosed):
		code = codes.Unavailable
	default:
		slog.ErrorContext(ctx, "unexpected error", "component", "grpcapi", "error", err)
		code = codes.Internal
	}
	return status.Error(code, err.Error())
}
