package reconciler

import (
	"context"
	"log/slog"
	"strings"

	"github.com/jcmexdev/pos-reconciler/internal/pkg/quantity"
	"github.com/jcmexdev/pos-reconciler/internal/reconciler/domain"
)

// Requirement is one (menu item, ingredient) pair's need, not yet aggregated.
type Requirement struct {
	MenuItemID string
	Ingredient string
	Quantity   float64
	Unit       domain.Unit
}

// ExpandRequirements multiplies each delta through its recipe. Menu items
// without a recipe are skipped and returned so callers can report them; a
// catalog read error is handled the same way.
func ExpandRequirements(ctx context.Context, catalog MenuCatalog, deltas []ItemDelta) ([]Requirement, []string) {
	var (
		reqs    []Requirement
		skipped []string
	)
	for _, d := range deltas {
		recipe, err := catalog.GetRecipe(ctx, d.MenuItemID)
		if err != nil {
			slog.WarnContext(ctx, "recipe lookup failed, skipping menu item",
				"component", "reconciler", "menu_item_id", d.MenuItemID, "error", err)
			skipped = append(skipped, d.MenuItemID)
			continue
		}
		if recipe.Empty() {
			slog.InfoContext(ctx, "menu item has no recipe",
				"component", "reconciler", "menu_item_id", d.MenuItemID)
			skipped = append(skipped, d.MenuItemID)
			continue
		}
		reqs = append(reqs, expandRecipe(d, recipe)...)
	}
	return reqs, skipped
}

func expandRecipe(d ItemDelta, recipe *domain.Recipe) []Requirement {
	out := make([]Requirement, 0, len(recipe.Ingredients))
	for _, ing := range recipe.Ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			continue
		}
		required := quantity.Mul(ing.Quantity, d.Quantity)
		if required <= 0 {
			continue
		}
		out = append(out, Requirement{
			MenuItemID: d.MenuItemID,
			Ingredient: ing.Name,
			Quantity:   required,
			Unit:       ing.Unit,
		})
	}
	return out
}
