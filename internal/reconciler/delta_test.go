package reconciler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jcmexdev/pos-reconciler/internal/reconciler/domain"
)

func TestComputeDeltas(t *testing.T) {
	items := []domain.OrderItem{
		{MenuItemID: "m1", Quantity: 5},
		{MenuItemID: "m2", Quantity: 2},
		{MenuItemID: "m3", Quantity: 1},
	}
	saved := map[string]float64{"m1": 2, "m2": 2, "m3": 4}

	got := ComputeDeltas(items, saved)

	assert.Equal(t, []ItemDelta{{MenuItemID: "m1", Quantity: 3}}, got)
}

func TestComputeDeltas_EmptyBaselineKeepsOrder(t *testing.T) {
	items := []domain.OrderItem{
		{MenuItemID: "b", Quantity: 1},
		{MenuItemID: "a", Quantity: 2},
		{MenuItemID: "b", Quantity: 1},
	}

	got := ComputeDeltas(items, nil)

	assert.Equal(t, []ItemDelta{
		{MenuItemID: "b", Quantity: 2},
		{MenuItemID: "a", Quantity: 2},
	}, got)
}

func TestComputeDeltas_ZeroQuantityExcluded(t *testing.T) {
	got := ComputeDeltas([]domain.OrderItem{{MenuItemID: "m1", Quantity: 0}}, map[string]float64{})
	assert.Empty(t, got)
}

func TestFullQuantitiesIgnoresBaseline(t *testing.T) {
	got := FullQuantities([]domain.OrderItem{{MenuItemID: "m1", Quantity: 4}})
	assert.Equal(t, []ItemDelta{{MenuItemID: "m1", Quantity: 4}}, got)
}
