package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jcmexdev/pos-reconciler/internal/reconciler/domain"
)

// GetRecipe returns nil and no error when the menu item has no recipe.
func (s *Store) GetRecipe(ctx context.Context, menuItemID string) (*domain.Recipe, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT ingredients FROM recipes WHERE menu_item_id = ?`, menuItemID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get recipe %q: %w", menuItemID, err)
	}

	r := &domain.Recipe{MenuItemID: menuItemID}
	if err := json.Unmarshal([]byte(raw), &r.Ingredients); err != nil {
		return nil, fmt.Errorf("sqlite: recipe %q: %w: %v", menuItemID, domain.ErrMalformed, err)
	}
	if err := domain.ValidateRecipe(r); err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	return r, nil
}

func (s *Store) PutRecipe(ctx context.Context, recipe *domain.Recipe) error {
	if recipe == nil {
		return domain.ValidateRecipe(nil)
	}
	recipe = recipe.Clone()
	if err := domain.ValidateRecipe(recipe); err != nil {
		return err
	}
	ingredients := recipe.Ingredients
	if ingredients == nil {
		ingredients = []domain.Ingredient{}
	}
	raw, err := json.Marshal(ingredients)
	if err != nil {
		return fmt.Errorf("sqlite: encode recipe %q: %w", recipe.MenuItemID, err)
	}

	const q = `
		INSERT INTO recipes (menu_item_id, ingredients) VALUES (?, ?)
		ON CONFLICT(menu_item_id) DO UPDATE SET ingredients = excluded.ingredients`
	if _, err := s.db.ExecContext(ctx, q, recipe.MenuItemID, string(raw)); err != nil {
		return fmt.Errorf("sqlite: put recipe %q: %w", recipe.MenuItemID, err)
	}
	return nil
}
