package reconciler

import "github.com/jcmexdev/pos-reconciler/internal/reconciler/domain"

// ResolveIdentity finds the inventory item whose normalised name matches.
// Names are the only key shared by orders, recipes and inventory, so this is
// how a requirement is tied to a concrete record.
func ResolveIdentity(items []*domain.InventoryItem, name string) *domain.InventoryItem {
	want := domain.NormalizeName(name)
	if want == "" {
		return nil
	}
	for _, it := range items {
		if it != nil && domain.NormalizeName(it.Name) == want {
			return it
		}
	}
	return nil
}
