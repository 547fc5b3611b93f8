package httpx

import "encoding/json"

type OrderItemDTO struct {
	MenuItemID string  `json:"menu_item_id"`
	Name       string  `json:"name,omitempty"`
	Quantity   float64 `json:"quantity"`
	Price      float64 `json:"price"`
	Unit       string  `json:"unit,omitempty"`
	OrderType  string  `json:"order_type,omitempty"`
}

type CreateOrderRequest struct {
	Items []OrderItemDTO `json:"items"`
}

type SetItemsRequest struct {
	Items []OrderItemDTO `json:"items"`
}

type OrderResponse struct {
	ID              string             `json:"id"`
	Status          string             `json:"status"`
	Total           float64            `json:"total"`
	Items           []OrderItemDTO     `json:"items"`
	SavedQuantities map[string]float64 `json:"saved_quantities"`
	CreatedAt       string             `json:"created_at"`
	UpdatedAt       string             `json:"updated_at"`
}

type ActionResponse struct {
	OrderID string `json:"order_id"`
	Action  string `json:"action"`
	// Queued is true when inventory reconciliation was scheduled.
	Queued bool `json:"queued"`
}

type IngredientDTO struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

type RecipeDTO struct {
	MenuItemID  string          `json:"menu_item_id"`
	Ingredients []IngredientDTO `json:"ingredients"`
}

type InventoryItemDTO struct {
	ID            string  `json:"id,omitempty"`
	Name          string  `json:"name"`
	StockQuantity float64 `json:"stock_quantity"`
	Unit          string  `json:"unit"`
	UpdatedAt     string  `json:"updated_at,omitempty"`
}

type ReconciliationRunDTO struct {
	RunID       string          `json:"run_id"`
	Kind        string          `json:"kind"`
	Status      string          `json:"status"`
	Fingerprint string          `json:"fingerprint,omitempty"`
	Adjustments json.RawMessage `json:"adjustments"`
	Failures    json.RawMessage `json:"failures"`
	TraceID     string          `json:"trace_id,omitempty"`
	At          string          `json:"at"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
