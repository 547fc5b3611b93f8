package domain

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrMalformed marks payloads rejected at a store boundary.
var ErrMalformed = errors.New("malformed record")

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

func ValidateOrder(o *Order) error {
	if o == nil {
		return fmt.Errorf("%w: nil order", ErrMalformed)
	}
	if err := validatorInstance().Struct(o); err != nil {
		return fmt.Errorf("%w: order %q: %v", ErrMalformed, o.ID, err)
	}
	return nil
}

// ValidateInventoryItem rewrites the unit to its canonical form before
// checking, so "KG" and "kilogram" are stored and read back as "kg".
func ValidateInventoryItem(item *InventoryItem) error {
	if item == nil {
		return fmt.Errorf("%w: nil inventory item", ErrMalformed)
	}
	item.Unit = item.Unit.Canonical()
	if err := validatorInstance().Struct(item); err != nil {
		return fmt.Errorf("%w: inventory item %q: %v", ErrMalformed, item.Name, err)
	}
	return nil
}

// ValidateRecipe checks the recipe envelope and canonicalises ingredient
// units. Individual ingredients with a blank name or non-positive quantity are
// tolerated here and skipped during expansion.
func ValidateRecipe(r *Recipe) error {
	if r == nil {
		return fmt.Errorf("%w: nil recipe", ErrMalformed)
	}
	for i := range r.Ingredients {
		r.Ingredients[i].Unit = r.Ingredients[i].Unit.Canonical()
	}
	if err := validatorInstance().Struct(r); err != nil {
		return fmt.Errorf("%w: recipe %q: %v", ErrMalformed, r.MenuItemID, err)
	}
	return nil
}
