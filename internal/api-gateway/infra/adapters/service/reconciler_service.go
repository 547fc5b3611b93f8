package service

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jcmexdev/pos-reconciler/internal/api-gateway/core/domain/entity"
	"github.com/jcmexdev/pos-reconciler/internal/api-gateway/core/ports"
	"github.com/jcmexdev/pos-reconciler/internal/reconciler/domain"
	"github.com/jcmexdev/pos-reconciler/internal/transport/grpcapi"
)

var _ ports.ReconcilerService = (*GRPCReconcilerService)(nil)

// GRPCReconcilerService adapts the reconciler gRPC API to the gateway port.
// backend is usually a *grpcapi.Client; a *grpcapi.Server works in-process.
type GRPCReconcilerService struct {
	backend grpcapi.ReconcilerServer
}

func NewGRPCReconcilerService(backend grpcapi.ReconcilerServer) ports.ReconcilerService {
	return &GRPCReconcilerService{backend: backend}
}

func (s *GRPCReconcilerService) CreateOrder(ctx context.Context, items []entity.OrderItem) (*entity.Order, error) {
	res, err := s.backend.CreateOrder(ctx, &grpcapi.CreateOrderRequest{Items: toDomainItems(items)})
	if err != nil {
		return nil, mapError("CreateOrder", err)
	}
	return toOrder(res), nil
}

func (s *GRPCReconcilerService) GetOrder(ctx context.Context, id string) (*entity.Order, error) {
	res, err := s.backend.GetOrder(ctx, &grpcapi.GetOrderRequest{OrderID: id})
	if err != nil {
		return nil, mapError("GetOrder", err)
	}
	return toOrder(res), nil
}

func (s *GRPCReconcilerService) SetOrderItems(ctx context.Context, id string, items []entity.OrderItem) (*entity.Order, error) {
	res, err := s.backend.SetOrderItems(ctx, &grpcapi.SetOrderItemsRequest{OrderID: id, Items: toDomainItems(items)})
	if err != nil {
		return nil, mapError("SetOrderItems", err)
	}
	return toOrder(res), nil
}

func (s *GRPCReconcilerService) SaveOrder(ctx context.Context, id string) error {
	_, err := s.backend.SaveOrder(ctx, &grpcapi.OrderActionRequest{OrderID: id})
	return mapError("SaveOrder", err)
}

func (s *GRPCReconcilerService) CancelOrder(ctx context.Context, id string) error {
	_, err := s.backend.CancelOrder(ctx, &grpcapi.OrderActionRequest{OrderID: id})
	return mapError("CancelOrder", err)
}

func (s *GRPCReconcilerService) CompleteOrder(ctx context.Context, id string) error {
	_, err := s.backend.CompleteOrder(ctx, &grpcapi.OrderActionRequest{OrderID: id})
	return mapError("CompleteOrder", err)
}

func (s *GRPCReconcilerService) PutRecipe(ctx context.Context, recipe entity.Recipe) (*entity.Recipe, error) {
	r := &domain.Recipe{MenuItemID: recipe.MenuItemID}
	for _, ing := range recipe.Ingredients {
		r.Ingredients = append(r.Ingredients, domain.Ingredient{
			Name:     ing.Name,
			Quantity: ing.Quantity,
			Unit:     domain.ParseUnit(ing.Unit),
		})
	}
	res, err := s.backend.PutRecipe(ctx, &grpcapi.PutRecipeRequest{Recipe: r})
	if err != nil {
		return nil, mapError("PutRecipe", err)
	}
	return toRecipe(res.Recipe), nil
}

func (s *GRPCReconcilerService) GetRecipe(ctx context.Context, menuItemID string) (*entity.Recipe, error) {
	res, err := s.backend.GetRecipe(ctx, &grpcapi.GetRecipeRequest{MenuItemID: menuItemID})
	if err != nil {
		return nil, mapError("GetRecipe", err)
	}
	return toRecipe(res.Recipe), nil
}

func (s *GRPCReconcilerService) ListInventory(ctx context.Context) ([]entity.InventoryItem, error) {
	res, err := s.backend.ListInventory(ctx, &grpcapi.ListInventoryRequest{})
	if err != nil {
		return nil, mapError("ListInventory", err)
	}
	out := make([]entity.InventoryItem, 0, len(res.Items))
	for _, it := range res.Items {
		out = append(out, toInventoryItem(it))
	}
	return out, nil
}

func (s *GRPCReconcilerService) UpsertInventoryItem(ctx context.Context, item entity.InventoryItem) (*entity.InventoryItem, error) {
	res, err := s.backend.UpsertInventoryItem(ctx, &grpcapi.UpsertInventoryItemRequest{Item: &domain.InventoryItem{
		Name:          item.Name,
		StockQuantity: item.StockQuantity,
		Unit:          domain.ParseUnit(item.Unit),
	}})
	if err != nil {
		return nil, mapError("UpsertInventoryItem", err)
	}
	out := toInventoryItem(res.Item)
	return &out, nil
}

func (s *GRPCReconcilerService) ReconciliationHistory(ctx context.Context, orderID string) ([]entity.ReconciliationRun, error) {
	res, err := s.backend.GetReconciliationLog(ctx, &grpcapi.GetReconciliationLogRequest{OrderID: orderID})
	if err != nil {
		return nil, mapError("GetReconciliationLog", err)
	}
	out := make([]entity.ReconciliationRun, 0, len(res.Entries))
	for _, e := range res.Entries {
		out = append(out, toRun(e))
	}
	return out, nil
}

func (s *GRPCReconcilerService) LatestReconciliation(ctx context.Context, orderID string) (*entity.ReconciliationRun, error) {
	res, err := s.backend.GetReconciliationLog(ctx, &grpcapi.GetReconciliationLogRequest{OrderID: orderID, Latest: true})
	if err != nil {
		return nil, mapError("GetReconciliationLog", err)
	}
	if len(res.Entries) == 0 {
		return nil, fmt.Errorf("grpc GetReconciliationLog: %w: no runs for %q", ports.ErrNotFound, orderID)
	}
	run := toRun(res.Entries[0])
	return &run, nil
}

func toRun(e grpcapi.LogEntry) entity.ReconciliationRun {
	return entity.ReconciliationRun{
		RunID:       e.RunID,
		Kind:        e.Kind,
		Status:      string(e.Status),
		Fingerprint: e.Fingerprint,
		Adjustments: e.Adjustments,
		Failures:    e.Failures,
		TraceID:     e.TraceID,
		At:          formatTime(e.At),
	}
}

// mapError turns gRPC status codes into port errors, keeping the server's
// message.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var kind error
	switch status.Code(err) {
	case codes.NotFound:
		kind = ports.ErrNotFound
	case codes.InvalidArgument:
		kind = ports.ErrInvalid
	case codes.FailedPrecondition:
		kind = ports.ErrConflict
	case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded:
		kind = ports.ErrUnavailable
	default:
		return fmt.Errorf("grpc %s: %w", op, err)
	}
	return fmt.Errorf("grpc %s: %w: %s", op, kind, status.Convert(err).Message())
}

func toDomainItems(items []entity.OrderItem) []domain.OrderItem {
	out := make([]domain.OrderItem, 0, len(items))
	for _, it := range items {
		out = append(out, domain.OrderItem{
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			Quantity:   it.Quantity,
			Price:      it.Price,
			Unit:       it.Unit,
			OrderType:  it.OrderType,
		})
	}
	return out
}

func toOrder(res *grpcapi.OrderResponse) *entity.Order {
	o := res.Order
	if o == nil {
		return &entity.Order{}
	}
	items := make([]entity.OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, entity.OrderItem{
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			Quantity:   it.Quantity,
			Price:      it.Price,
			Unit:       it.Unit,
			OrderType:  it.OrderType,
		})
	}
	return &entity.Order{
		ID:              o.ID,
		Status:          string(o.Status),
		Total:           res.Total,
		Items:           items,
		SavedQuantities: o.SavedQuantities,
		CreatedAt:       formatTime(o.CreatedAt),
		UpdatedAt:       formatTime(o.UpdatedAt),
	}
}

func toRecipe(r *domain.Recipe) *entity.Recipe {
	if r == nil {
		return nil
	}
	out := &entity.Recipe{MenuItemID: r.MenuItemID}
	for _, ing := range r.Ingredients {
		out.Ingredients = append(out.Ingredients, entity.Ingredient{
			Name:     ing.Name,
			Quantity: ing.Quantity,
			Unit:     string(ing.Unit),
		})
	}
	return out
}

func toInventoryItem(it *domain.InventoryItem) entity.InventoryItem {
	if it == nil {
		return entity.InventoryItem{}
	}
	return entity.InventoryItem{
		ID:            it.ID,
		Name:          it.Name,
		StockQuantity: it.StockQuantity,
		Unit:          string(it.Unit),
		UpdatedAt:     formatTime(it.UpdatedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
