package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jcmexdev/pos-reconciler/internal/reconciler"
	"github.com/jcmexdev/pos-reconciler/internal/reconciler/domain"
)

const inventoryColumns = `SELECT id, name, stock_quantity, unit, updated_at FROM inventory_items`

func (s *Store) ListInventoryItems(ctx context.Context) ([]*domain.InventoryItem, error) {
	rows, err := s.db.QueryContext(ctx, inventoryColumns+` ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list inventory: %w", err)
	}
	defer rows.Close()

	var out []*domain.InventoryItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: list inventory: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// GetInventoryItem looks an item up by normalised name. It returns nil and no
// error when there is none.
func (s *Store) GetInventoryItem(ctx context.Context, name string) (*domain.InventoryItem, error) {
	row := s.db.QueryRowContext(ctx, inventoryColumns+` WHERE name = ?`, domain.NormalizeName(name))
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get inventory item %q: %w", name, err)
	}
	return it, nil
}

func (s *Store) UpdateStock(ctx context.Context, itemID string, stockQuantity float64) error {
	if stockQuantity < 0 {
		return fmt.Errorf("sqlite: negative stock %v for %q: %w", stockQuantity, itemID, domain.ErrMalformed)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE inventory_items SET stock_quantity = ?, updated_at = ? WHERE id = ?`,
		stockQuantity, formatTime(s.now()), itemID)
	if err != nil {
		return fmt.Errorf("sqlite: update stock of %q: %w", itemID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: update stock of %q: %w", itemID, err)
	}
	if n == 0 {
		return fmt.Errorf("sqlite: inventory item %q: %w", itemID, reconciler.ErrStaleItem)
	}
	return nil
}

// UpsertInventoryItem inserts or replaces by normalised name. An existing row
// keeps its id.
func (s *Store) UpsertInventoryItem(ctx context.Context, item *domain.InventoryItem) (*domain.InventoryItem, error) {
	c := *item
	c.Name = domain.NormalizeName(c.Name)
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.UpdatedAt = s.now().UTC()
	if err := domain.ValidateInventoryItem(&c); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: upsert %q: %w", c.Name, err)
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRowContext(ctx, `SELECT id FROM inventory_items WHERE name = ?`, c.Name).Scan(&existing)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx,
			`INSERT INTO inventory_items (id, name, stock_quantity, unit, updated_at) VALUES (?, ?, ?, ?, ?)`,
			c.ID, c.Name, c.StockQuantity, string(c.Unit), formatTime(c.UpdatedAt))
	case err == nil:
		c.ID = existing
		_, err = tx.ExecContext(ctx,
			`UPDATE inventory_items SET stock_quantity = ?, unit = ?, updated_at = ? WHERE id = ?`,
			c.StockQuantity, string(c.Unit), formatTime(c.UpdatedAt), c.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: upsert %q: %w", c.Name, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: upsert %q: %w", c.Name, err)
	}
	return &c, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (*domain.InventoryItem, error) {
	var (
		it      domain.InventoryItem
		unit    string
		updated string
	)
	if err := s.Scan(&it.ID, &it.Name, &it.StockQuantity, &unit, &updated); err != nil {
		return nil, err
	}
	it.Unit = domain.Unit(unit)
	var err error
	if it.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformed, err)
	}
	if err := domain.ValidateInventoryItem(&it); err != nil {
		return nil, err
	}
	return &it, nil
}
