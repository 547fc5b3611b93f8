package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jcmexdev/pos-reconciler/internal/reconciler"
	"github.com/jcmexdev/pos-reconciler/internal/reconciler/domain"
)

func (s *Store) CreateOrder(ctx context.Context, order *domain.Order) error {
	if err := domain.ValidateOrder(order); err != nil {
		return err
	}
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("sqlite: encode items of %q: %w", order.ID, err)
	}
	saved, err := json.Marshal(nonNilBaseline(order.SavedQuantities))
	if err != nil {
		return fmt.Errorf("sqlite: encode baseline of %q: %w", order.ID, err)
	}

	const q = `
		INSERT INTO orders (id, items, saved_quantities, status, last_fingerprint, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, q,
		order.ID,
		string(items),
		string(saved),
		string(order.Status),
		order.LastAppliedFingerprint,
		formatTime(order.CreatedAt),
		formatTime(order.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: create order %q: %w", order.ID, err)
	}
	return nil
}

func (s *Store) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	const q = `
		SELECT id, items, saved_quantities, status, last_fingerprint, created_at, updated_at
		FROM orders WHERE id = ?`

	var (
		o                domain.Order
		items, saved     string
		status           string
		created, updated string
	)
	err := s.db.QueryRowContext(ctx, q, orderID).Scan(
		&o.ID, &items, &saved, &status, &o.LastAppliedFingerprint, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite: order %q: %w", orderID, reconciler.ErrOrderNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get order %q: %w", orderID, err)
	}

	o.Status = domain.OrderStatus(status)
	if err := json.Unmarshal([]byte(items), &o.Items); err != nil {
		return nil, fmt.Errorf("sqlite: order %q items: %w: %v", orderID, domain.ErrMalformed, err)
	}
	if err := json.Unmarshal([]byte(saved), &o.SavedQuantities); err != nil {
		return nil, fmt.Errorf("sqlite: order %q baseline: %w: %v", orderID, domain.ErrMalformed, err)
	}
	o.SavedQuantities = nonNilBaseline(o.SavedQuantities)
	if o.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("sqlite: order %q: %w: %v", orderID, domain.ErrMalformed, err)
	}
	if o.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("sqlite: order %q: %w: %v", orderID, domain.ErrMalformed, err)
	}
	if err := domain.ValidateOrder(&o); err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	return &o, nil
}

func (s *Store) SetItems(ctx context.Context, orderID string, items []domain.OrderItem) error {
	if items == nil {
		items = []domain.OrderItem{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("sqlite: encode items of %q: %w", orderID, err)
	}
	return s.updateOrder(ctx, orderID, `UPDATE orders SET items = ?, updated_at = ? WHERE id = ?`,
		string(raw), formatTime(s.now()), orderID)
}

func (s *Store) SetStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	return s.updateOrder(ctx, orderID, `UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), formatTime(s.now()), orderID)
}

func (s *Store) AdvanceSavedQuantities(ctx context.Context, orderID string, baseline map[string]float64, fingerprint string) error {
	raw, err := json.Marshal(nonNilBaseline(baseline))
	if err != nil {
		return fmt.Errorf("sqlite: encode baseline of %q: %w", orderID, err)
	}
	return s.updateOrder(ctx, orderID,
		`UPDATE orders SET saved_quantities = ?, last_fingerprint = ?, updated_at = ? WHERE id = ?`,
		string(raw), fingerprint, formatTime(s.now()), orderID)
}

func (s *Store) updateOrder(ctx context.Context, orderID, q string, args ...any) error {
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("sqlite: update order %q: %w", orderID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: update order %q: %w", orderID, err)
	}
	if n == 0 {
		return fmt.Errorf("sqlite: order %q: %w", orderID, reconciler.ErrOrderNotFound)
	}
	return nil
}

func nonNilBaseline(m map[string]float64) map[string]float64 {
	if m == nil {
		return map[string]float64{}
	}
	return m
}
