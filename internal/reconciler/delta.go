package reconciler

import "github.com/jcmexdev/pos-reconciler/internal/reconciler/domain"

// ItemDelta is a menu item quantity that still has to be reconciled.
type ItemDelta struct {
	MenuItemID string
	Quantity   float64
}

// ComputeDeltas returns, in first-seen order, the quantity of each menu item
// added since the saved baseline. Items at or below their baseline are left
// out. Lines sharing a menu item id are summed first since the baseline is
// kept per menu item.
func ComputeDeltas(items []domain.OrderItem, saved map[string]float64) []ItemDelta {
	totals := make(map[string]float64, len(items))
	order := make([]string, 0, len(items))
	for _, it := range items {
		if _, seen := totals[it.MenuItemID]; !seen {
			order = append(order, it.MenuItemID)
		}
		totals[it.MenuItemID] += it.Quantity
	}

	deltas := make([]ItemDelta, 0, len(order))
	for _, id := range order {
		d := totals[id] - saved[id]
		if d <= 0 {
			continue
		}
		deltas = append(deltas, ItemDelta{MenuItemID: id, Quantity: d})
	}
	return deltas
}

// FullQuantities treats every item's whole quantity as the delta. Used by the
// restoration path, which ignores the baseline.
func FullQuantities(items []domain.OrderItem) []ItemDelta {
	return ComputeDeltas(items, nil)
}
