// Package memory holds map-backed stores for development and tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jcmexdev/pos-reconciler/internal/reconciler"
	"github.com/jcmexdev/pos-reconciler/internal/reconciler/domain"
)

var _ reconciler.OrderStore = (*OrderStore)(nil)

type OrderStore struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

func NewOrderStore() *OrderStore {
	return &OrderStore{orders: make(map[string]*domain.Order)}
}

func (s *OrderStore) CreateOrder(_ context.Context, order *domain.Order) error {
	if err := domain.ValidateOrder(order); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[order.ID]; exists {
		return fmt.Errorf("memory: order %q already exists", order.ID)
	}
	s.orders[order.ID] = order.Clone()
	return nil
}

func (s *OrderStore) GetOrder(_ context.Context, orderID string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("memory: order %q: %w", orderID, reconciler.ErrOrderNotFound)
	}
	return order.Clone(), nil
}

func (s *OrderStore) SetItems(_ context.Context, orderID string, items []domain.OrderItem) error {
	return s.update(orderID, func(o *domain.Order) {
		o.Items = append([]domain.OrderItem(nil), items...)
	})
}

func (s *OrderStore) SetStatus(_ context.Context, orderID string, status domain.OrderStatus) error {
	return s.update(orderID, func(o *domain.Order) {
		o.Status = status
	})
}

func (s *OrderStore) AdvanceSavedQuantities(_ context.Context, orderID string, baseline map[string]float64, fingerprint string) error {
	return s.update(orderID, func(o *domain.Order) {
		o.SavedQuantities = make(map[string]float64, len(baseline))
		for k, v := range baseline {
			o.SavedQuantities[k] = v
		}
		o.LastAppliedFingerprint = fingerprint
	})
}

func (s *OrderStore) update(orderID string, fn func(o *domain.Order)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		return fmt.Errorf("memory: order %q: %w", orderID, reconciler.ErrOrderNotFound)
	}
	fn(order)
	order.UpdatedAt = time.Now().UTC()
	return nil
}
