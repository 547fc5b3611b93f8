package reconciler

import (
	"github.com/jcmexdev/pos-reconciler/internal/pkg/quantity"
	"github.com/jcmexdev/pos-reconciler/internal/reconciler/domain"
)

// baseUnits maps each scalable unit to its base unit and the number of base
// units in one of it.
var baseUnits = map[domain.Unit]struct {
	base   domain.Unit
	factor float64
}{
	domain.UnitGram:       {domain.UnitGram, 1},
	domain.UnitKilogram:   {domain.UnitGram, 1000},
	domain.UnitMilliliter: {domain.UnitMilliliter, 1},
	domain.UnitLiter:      {domain.UnitMilliliter, 1000},
}

// Convert expresses qty given in from as an amount of to. The bool is false
// when the pair is not convertible, in which case qty is returned unchanged.
// Identical units, and an unknown unit on either side, pass through. Units
// are compared in canonical form.
func Convert(qty float64, from, to domain.Unit) (float64, bool) {
	from, to = from.Canonical(), to.Canonical()
	if from == to || from == domain.UnitUnknown || to == domain.UnitUnknown {
		return qty, true
	}
	f, okFrom := baseUnits[from]
	t, okTo := baseUnits[to]
	if !okFrom || !okTo || f.base != t.base {
		return qty, false
	}
	inBase := quantity.Scale(qty, f.factor, false)
	return quantity.Scale(inBase, t.factor, true), true
}
