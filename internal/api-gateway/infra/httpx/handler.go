package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/pos-reconciler/internal/api-gateway/core/domain/entity"
	"github.com/jcmexdev/pos-reconciler/internal/api-gateway/core/ports"
	"github.com/jcmexdev/pos-reconciler/internal/pkg/interceptors"
)

// Handler serves the POS-facing HTTP API on top of the reconciler backend.
type Handler struct {
	service ports.ReconcilerService
}

func NewHandler(service ports.ReconcilerService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	items, ok := toItems(w, req.Items)
	if !ok {
		return
	}

	slog.InfoContext(r.Context(), "creating order",
		"request_id", interceptors.RequestIDFromContext(r.Context()), "items", len(items))

	order, err := h.service.CreateOrder(r.Context(), items)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapOrderToResponse(order))
}

func (h *Handler) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrderToResponse(order))
}

// SetItems replaces the order's items. Nothing reaches inventory until the
// order is saved.
func (h *Handler) SetItems(w http.ResponseWriter, r *http.Request) {
	var req SetItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	items, ok := toItems(w, req.Items)
	if !ok {
		return
	}
	order, err := h.service.SetOrderItems(r.Context(), chi.URLParam(r, "id"), items)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrderToResponse(order))
}

func (h *Handler) SaveOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.SaveOrder(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ActionResponse{OrderID: id, Action: "save", Queued: true})
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.CancelOrder(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ActionResponse{OrderID: id, Action: "cancel", Queued: true})
}

func (h *Handler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.CompleteOrder(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ActionResponse{OrderID: id, Action: "complete"})
}

func (h *Handler) ReconciliationHistory(w http.ResponseWriter, r *http.Request) {
	runs, err := h.service.ReconciliationHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]ReconciliationRunDTO, 0, len(runs))
	for _, run := range runs {
		out = append(out, mapRun(run))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) LatestReconciliation(w http.ResponseWriter, r *http.Request) {
	run, err := h.service.LatestReconciliation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapRun(*run))
}

func mapRun(run entity.ReconciliationRun) ReconciliationRunDTO {
	return ReconciliationRunDTO{
		RunID:       run.RunID,
		Kind:        run.Kind,
		Status:      run.Status,
		Fingerprint: run.Fingerprint,
		Adjustments: json.RawMessage(run.Adjustments),
		Failures:    json.RawMessage(run.Failures),
		TraceID:     run.TraceID,
		At:          run.At,
	}
}

func (h *Handler) PutRecipe(w http.ResponseWriter, r *http.Request) {
	var req RecipeDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	recipe := entity.Recipe{MenuItemID: chi.URLParam(r, "id")}
	for _, ing := range req.Ingredients {
		recipe.Ingredients = append(recipe.Ingredients, entity.Ingredient(ing))
	}
	saved, err := h.service.PutRecipe(r.Context(), recipe)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapRecipe(saved))
}

func (h *Handler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	recipe, err := h.service.GetRecipe(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapRecipe(recipe))
}

func (h *Handler) ListInventory(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListInventory(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]InventoryItemDTO, 0, len(items))
	for _, it := range items {
		out = append(out, InventoryItemDTO(it))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) UpsertInventoryItem(w http.ResponseWriter, r *http.Request) {
	var req InventoryItemDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.StockQuantity < 0 {
		writeError(w, http.StatusBadRequest, "invalid_item", "stock_quantity must not be negative")
		return
	}
	item, err := h.service.UpsertInventoryItem(r.Context(), entity.InventoryItem{
		Name:          chi.URLParam(r, "name"),
		StockQuantity: req.StockQuantity,
		Unit:          req.Unit,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, InventoryItemDTO(*item))
}

func toItems(w http.ResponseWriter, dtos []OrderItemDTO) ([]entity.OrderItem, bool) {
	items := make([]entity.OrderItem, 0, len(dtos))
	for _, it := range dtos {
		if it.MenuItemID == "" || it.Quantity < 0 || it.Price < 0 {
			writeError(w, http.StatusBadRequest, "invalid_item", "menu_item_id is required; quantity and price must not be negative")
			return nil, false
		}
		items = append(items, entity.OrderItem(it))
	}
	return items, true
}

func mapOrderToResponse(order *entity.Order) OrderResponse {
	items := make([]OrderItemDTO, len(order.Items))
	for i, it := range order.Items {
		items[i] = OrderItemDTO(it)
	}
	saved := order.SavedQuantities
	if saved == nil {
		saved = map[string]float64{}
	}
	return OrderResponse{
		ID:              order.ID,
		Status:          order.Status,
		Total:           order.Total,
		Items:           items,
		SavedQuantities: saved,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
}

func mapRecipe(r *entity.Recipe) RecipeDTO {
	out := RecipeDTO{MenuItemID: r.MenuItemID, Ingredients: make([]IngredientDTO, 0, len(r.Ingredients))}
	for _, ing := range r.Ingredients {
		out.Ingredients = append(out.Ingredients, IngredientDTO(ing))
	}
	return out
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ports.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ports.ErrInvalid):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, ports.ErrConflict):
		writeError(w, http.StatusConflict, "order_not_ongoing", err.Error())
	case errors.Is(err, ports.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err.Error())
	default:
		writeError(w, http.StatusBadGateway, "reconciler_error", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}
