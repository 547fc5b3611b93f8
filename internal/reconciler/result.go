package reconciler

import (
	"github.com/google/uuid"

	"github.com/jcmexdev/pos-reconciler/internal/reconciler/domain"
	"github.com/jcmexdev/pos-reconciler/internal/reconciler/reconlog"
)

// Result describes one engine run.
type Result struct {
	RunID       string           `json:"run_id"`
	OrderID     string           `json:"order_id"`
	Kind        domain.EventKind `json:"kind"`
	Fingerprint string           `json:"fingerprint,omitempty"`
	Skipped     bool             `json:"skipped"`
	SkipReason  string           `json:"skip_reason,omitempty"`

	Adjustments      []Adjustment `json:"adjustments"`
	Failures         []Failure    `json:"failures,omitempty"`
	MissingRecipes   []string     `json:"missing_recipes,omitempty"`
	MissingInventory []string     `json:"missing_inventory,omitempty"`
}

// Adjustment is one applied stock change.
type Adjustment struct {
	ItemID      string      `json:"item_id"`
	Name        string      `json:"name"`
	Quantity    float64     `json:"quantity"`
	Unit        domain.Unit `json:"unit"`
	Before      float64     `json:"before"`
	After       float64     `json:"after"`
	Approximate bool        `json:"approximate,omitempty"`
}

type Failure struct {
	Ingredient string `json:"ingredient"`
	Reason     string `json:"reason"`
}

func newResult(orderID string, kind domain.EventKind) *Result {
	return &Result{
		RunID:   uuid.NewString(),
		OrderID: orderID,
		Kind:    kind,
	}
}

func newAdjustment(item *domain.InventoryItem, qty, after float64, approx bool) Adjustment {
	return Adjustment{
		ItemID:      item.ID,
		Name:        domain.NormalizeName(item.Name),
		Quantity:    qty,
		Unit:        item.Unit,
		Before:      item.StockQuantity,
		After:       after,
		Approximate: approx,
	}
}

func (r *Result) skip(reason string) {
	r.Skipped = true
	r.SkipReason = reason
}

// Status classifies the run for the audit trail. Missing inventory items
// count as partial, missing recipes do not: a menu item without a recipe has
// no inventory effect by definition.
func (r *Result) Status() reconlog.Status {
	switch {
	case r.Skipped:
		return reconlog.StatusSkipped
	case len(r.Failures) > 0 || len(r.MissingInventory) > 0:
		return reconlog.StatusPartial
	default:
		return reconlog.StatusApplied
	}
}

func (r *Result) failureMessages() []string {
	out := make([]string, 0, len(r.Failures)+len(r.MissingInventory))
	for _, f := range r.Failures {
		out = append(out, f.Ingredient+": "+f.Reason)
	}
	for _, name := range r.MissingInventory {
		out = append(out, name+": inventory item not found")
	}
	return out
}
