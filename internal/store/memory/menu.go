package memory

import (
	"context"
	"sync"

	"github.com/jcmexdev/pos-reconciler/internal/reconciler"
	"github.com/jcmexdev/pos-reconciler/internal/reconciler/domain"
)

var _ reconciler.MenuCatalog = (*MenuCatalog)(nil)

type MenuCatalog struct {
	mu      sync.RWMutex
	recipes map[string]*domain.Recipe
}

func NewMenuCatalog() *MenuCatalog {
	return &MenuCatalog{recipes: make(map[string]*domain.Recipe)}
}

func (c *MenuCatalog) GetRecipe(_ context.Context, menuItemID string) (*domain.Recipe, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r, ok := c.recipes[menuItemID]
	if !ok {
		return nil, nil
	}
	return r.Clone(), nil
}

func (c *MenuCatalog) PutRecipe(_ context.Context, recipe *domain.Recipe) error {
	if recipe == nil {
		return domain.ValidateRecipe(nil)
	}
	r := recipe.Clone()
	if err := domain.ValidateRecipe(r); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.recipes[r.MenuItemID] = r
	return nil
}
