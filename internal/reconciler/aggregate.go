package reconciler

import (
	"sort"

	"github.com/jcmexdev/pos-reconciler/internal/pkg/quantity"
	"github.com/jcmexdev/pos-reconciler/internal/reconciler/domain"
)

// Aggregated is the net requirement for one ingredient in the inventory's
// native unit.
type Aggregated struct {
	Name     string
	Quantity float64
	Unit     domain.Unit
	// Approximate is set when at least one contribution had a unit that
	// could not be converted and was summed as-is.
	Approximate bool
}

// UnitResolver returns the native unit of the inventory item with the given
// normalised name, or UnitUnknown when there is none.
type UnitResolver func(name string) domain.Unit

// Aggregate groups requirements by normalised ingredient name and sums them
// in the inventory unit. When the inventory unit is unknown the first
// declared unit of the group is used instead; a requirement with no unit is
// taken to be in the target unit. The result is sorted by name.
func Aggregate(reqs []Requirement, native UnitResolver) []Aggregated {
	groups := make(map[string]*Aggregated)
	var names []string

	for _, r := range reqs {
		name := domain.NormalizeName(r.Ingredient)
		if name == "" {
			continue
		}
		g, ok := groups[name]
		if !ok {
			target := domain.UnitUnknown
			if native != nil {
				target = native(name)
			}
			g = &Aggregated{Name: name, Unit: target}
			groups[name] = g
			names = append(names, name)
		}
		if g.Unit == domain.UnitUnknown {
			g.Unit = r.Unit
		}

		qty, ok := Convert(r.Quantity, r.Unit, g.Unit)
		if !ok {
			g.Approximate = true
		}
		g.Quantity = quantity.Add(g.Quantity, qty, quantity.AggregatePlaces)
	}

	sort.Strings(names)
	out := make([]Aggregated, 0, len(names))
	for _, n := range names {
		out = append(out, *groups[n])
	}
	return out
}

// NativeUnits builds a UnitResolver from an inventory listing.
func NativeUnits(items []*domain.InventoryItem) UnitResolver {
	units := make(map[string]domain.Unit, len(items))
	for _, it := range items {
		units[domain.NormalizeName(it.Name)] = it.Unit
	}
	return func(name string) domain.Unit {
		return units[domain.NormalizeName(name)]
	}
}
