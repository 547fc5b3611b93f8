package domain

// Recipe is the menu catalog entry for one menu item: the ingredients consumed
// by a single unit of it.
type Recipe struct {
	MenuItemID  string       `json:"menu_item_id" validate:"required"`
	Ingredients []Ingredient `json:"ingredients" validate:"dive"`
}

type Ingredient struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     Unit    `json:"unit" validate:"omitempty,oneof=g kg ml l pcs other"`
}

// Clone returns a copy that shares no ingredient storage with r.
func (r *Recipe) Clone() *Recipe {
	return &Recipe{
		MenuItemID:  r.MenuItemID,
		Ingredients: append([]Ingredient(nil), r.Ingredients...),
	}
}

func (r *Recipe) Empty() bool {
	return r == nil || len(r.Ingredients) == 0
}
