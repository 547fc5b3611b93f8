package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTransition is returned when an order is asked to move to a status
// that is not reachable from its current one.
var ErrInvalidTransition = errors.New("invalid order status transition")

type Order struct {
	ID    string      `json:"id" validate:"required"`
	Items []OrderItem `json:"items" validate:"dive"`
	// SavedQuantities is the baseline already reconciled against inventory,
	// keyed by menu item id.
	SavedQuantities        map[string]float64 `json:"saved_quantities"`
	Status                 OrderStatus        `json:"status" validate:"required,oneof=ongoing completed cancelled"`
	LastAppliedFingerprint string             `json:"last_applied_fingerprint,omitempty"`
	CreatedAt              time.Time          `json:"created_at"`
	UpdatedAt              time.Time          `json:"updated_at"`
}

type OrderItem struct {
	MenuItemID string  `json:"menu_item_id" validate:"required"`
	Name       string  `json:"name"`
	Quantity   float64 `json:"quantity" validate:"gte=0"`
	Price      float64 `json:"price" validate:"gte=0"`
	Unit       string  `json:"unit,omitempty"`
	OrderType  string  `json:"order_type,omitempty"`
}

func (i OrderItem) Subtotal() float64 {
	return i.Quantity * i.Price
}

type OrderStatus string

const (
	StatusOngoing   OrderStatus = "ongoing"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// NewOrder returns an ongoing order with an empty baseline.
func NewOrder(id string, items []OrderItem, now time.Time) *Order {
	return &Order{
		ID:              id,
		Items:           items,
		SavedQuantities: make(map[string]float64),
		Status:          StatusOngoing,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Quantities sums the current item quantities per menu item id.
func (o *Order) Quantities() map[string]float64 {
	out := make(map[string]float64, len(o.Items))
	for _, it := range o.Items {
		out[it.MenuItemID] += it.Quantity
	}
	return out
}

func (o *Order) Total() float64 {
	var total float64
	for _, it := range o.Items {
		total += it.Subtotal()
	}
	return total
}

// Transition moves the order to the given status. Only ongoing orders may
// change status.
func (o *Order) Transition(to OrderStatus) error {
	if o.Status != StatusOngoing || (to != StatusCompleted && to != StatusCancelled) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, to)
	}
	o.Status = to
	return nil
}

// Clone returns a deep copy so stores never hand out shared maps or slices.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Items = append([]OrderItem(nil), o.Items...)
	c.SavedQuantities = make(map[string]float64, len(o.SavedQuantities))
	for k, v := range o.SavedQuantities {
		c.SavedQuantities[k] = v
	}
	return &c
}
