package grpcapi

import (
	"encoding/json"
	"time"

	"github.com/jcmexdev/pos-reconciler/internal/reconciler/domain"
	"github.com/jcmexdev/pos-reconciler/internal/reconciler/reconlog"
)

type CreateOrderRequest struct {
	Items []domain.OrderItem `json:"items"`
}

type GetOrderRequest struct {
	OrderID string `json:"order_id"`
}

type SetOrderItemsRequest struct {
	OrderID string             `json:"order_id"`
	Items   []domain.OrderItem `json:"items"`
}

type OrderResponse struct {
	Order *domain.Order `json:"order"`
	Total float64       `json:"total"`
}

// OrderActionRequest drives save, cancel and complete.
type OrderActionRequest struct {
	OrderID string `json:"order_id"`
}

type OrderActionResponse struct {
	OrderID string             `json:"order_id"`
	Status  domain.OrderStatus `json:"status"`
	// Queued is true when an inventory side effect was scheduled.
	Queued bool `json:"queued"`
}

type PutRecipeRequest struct {
	Recipe *domain.Recipe `json:"recipe"`
}

type GetRecipeRequest struct {
	MenuItemID string `json:"menu_item_id"`
}

type RecipeResponse struct {
	Recipe *domain.Recipe `json:"recipe"`
}

type UpsertInventoryItemRequest struct {
	Item *domain.InventoryItem `json:"item"`
}

type InventoryItemResponse struct {
	Item *domain.InventoryItem `json:"item"`
}

type ListInventoryRequest struct{}

type ListInventoryResponse struct {
	Items []*domain.InventoryItem `json:"items"`
}

type GetReconciliationLogRequest struct {
	OrderID string `json:"order_id"`
	// Latest limits the response to the most recent run.
	Latest bool `json:"latest,omitempty"`
}

type LogEntry struct {
	RunID       string          `json:"run_id"`
	OrderID     string          `json:"order_id"`
	Kind        string          `json:"kind"`
	Status      reconlog.Status `json:"status"`
	Fingerprint string          `json:"fingerprint,omitempty"`
	Adjustments json.RawMessage `json:"adjustments"`
	Failures    json.RawMessage `json:"failures"`
	TraceID     string          `json:"trace_id,omitempty"`
	At          time.Time       `json:"at"`
}

type ReconciliationLogResponse struct {
	Entries []LogEntry `json:"entries"`
}

func toLogEntry(e *reconlog.Entry) LogEntry {
	return LogEntry{
		RunID:       e.RunID,
		OrderID:     e.OrderID,
		Kind:        e.Kind,
		Status:      e.Status,
		Fingerprint: e.Fingerprint,
		Adjustments: rawOrEmpty(e.Adjustments),
		Failures:    rawOrEmpty(e.Failures),
		TraceID:     e.TraceID,
		At:          e.At,
	}
}

func rawOrEmpty(s string) json.RawMessage {
	if !json.Valid([]byte(s)) {
		return json.RawMessage("[]")
	}
	return json.RawMessage(s)
}
