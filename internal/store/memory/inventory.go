package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jcmexdev/pos-reconciler/internal/reconciler"
	"github.com/jcmexdev/pos-reconciler/internal/reconciler/domain"
)

var _ reconciler.InventoryStore = (*InventoryStore)(nil)

// InventoryStore keeps items by id with a secondary index on normalised name.
type InventoryStore struct {
	mu     sync.RWMutex
	items  map[string]*domain.InventoryItem
	byName map[string]string
}

func NewInventoryStore() *InventoryStore {
	return &InventoryStore{
		items:  make(map[string]*domain.InventoryItem),
		byName: make(map[string]string),
	}
}

func (s *InventoryStore) ListInventoryItems(_ context.Context) ([]*domain.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.InventoryItem, 0, len(s.items))
	for _, it := range s.items {
		c := *it
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InventoryStore) GetInventoryItem(_ context.Context, name string) (*domain.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byName[domain.NormalizeName(name)]
	if !ok {
		return nil, nil
	}
	c := *s.items[id]
	return &c, nil
}

func (s *InventoryStore) UpdateStock(_ context.Context, itemID string, stockQuantity float64) error {
	if stockQuantity < 0 {
		return fmt.Errorf("memory: negative stock %v for %q: %w", stockQuantity, itemID, domain.ErrMalformed)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[itemID]
	if !ok {
		return fmt.Errorf("memory: inventory item %q: %w", itemID, reconciler.ErrStaleItem)
	}
	it.StockQuantity = stockQuantity
	it.UpdatedAt = time.Now().UTC()
	return nil
}

// UpsertInventoryItem inserts or replaces by normalised name. An empty id is
// assigned; an existing record keeps its id.
func (s *InventoryStore) UpsertInventoryItem(_ context.Context, item *domain.InventoryItem) (*domain.InventoryItem, error) {
	c := *item
	c.Name = domain.NormalizeName(c.Name)

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byName[c.Name]; ok {
		c.ID = id
	} else if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if err := domain.ValidateInventoryItem(&c); err != nil {
		return nil, err
	}
	c.UpdatedAt = time.Now().UTC()
	s.items[c.ID] = &c
	s.byName[c.Name] = c.ID

	out := c
	return &out, nil
}

// Rekey moves an item to a new id, simulating a canonical record replacing a
// cached one. Writes to the old id fail with ErrStaleItem afterwards.
func (s *InventoryStore) Rekey(name, newID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := domain.NormalizeName(name)
	oldID, ok := s.byName[key]
	if !ok {
		return fmt.Errorf("memory: inventory item %q not found", name)
	}
	it := s.items[oldID]
	delete(s.items, oldID)
	it.ID = newID
	s.items[newID] = it
	s.byName[key] = newID
	return nil
}
