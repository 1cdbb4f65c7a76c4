package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/pricebook/internal/models"
	"github.com/mmynk/pricebook/internal/storage"
)

// CreateProduct inserts a new product record.
func (s *SQLiteStore) CreateProduct(ctx context.Context, p *models.Product) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt == 0 {
		p.CreatedAt = time.Now().Unix()
	}
	if p.UpdatedAt == 0 {
		p.UpdatedAt = p.CreatedAt
	}

	query := `
		INSERT INTO products (id, group_id, name, name_key, type, brand, unit, price, notes, unit_price, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		p.ID,
		p.GroupID,
		p.Name,
		storage.NameKey(p.Name),
		p.Type,
		p.Brand,
		p.Unit,
		p.Price.String(),
		p.Notes,
		p.UnitPrice,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// ListProducts returns the group's products matching q, newest first.
func (s *SQLiteStore) ListProducts(ctx context.Context, q storage.ProductQuery) ([]*models.Product, error) {
	var (
		where = []string{"group_id = ?"}
		args  = []any{q.GroupID}
	)
	if q.ID != "" {
		where = append(where, "id = ?")
		args = append(args, q.ID)
	}
	if q.NameContains != "" {
		where = append(where, "instr(name_key, ?) > 0")
		args = append(args, storage.NameKey(q.NameContains))
	}

	query := `
		SELECT id, group_id, name, type, brand, unit, price, notes, unit_price, created_at, updated_at
		FROM products
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY updated_at DESC, created_at DESC, rowid DESC`
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		p := &models.Product{}
		var price string
		if err := rows.Scan(
			&p.ID,
			&p.GroupID,
			&p.Name,
			&p.Type,
			&p.Brand,
			&p.Unit,
			&price,
			&p.Notes,
			&p.UnitPrice,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		if p.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("failed to parse price of product %s: %w", p.ID, err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}

	return products, nil
}

// UpdateProductPrice sets price and unit price on a record of the group.
func (s *SQLiteStore) UpdateProductPrice(ctx context.Context, groupID, id string, price decimal.Decimal, unitPrice string, updatedAt int64) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"UPDATE products SET price = ?, unit_price = ?, updated_at = ? WHERE id = ? AND group_id = ?",
		price.String(), unitPrice, updatedAt, id, groupID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update product price: %w", err)
	}
	return result.RowsAffected()
}

// DeleteProduct removes a record of the group.
func (s *SQLiteStore) DeleteProduct(ctx context.Context, groupID, id string) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM products WHERE id = ? AND group_id = ?",
		id, groupID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete product: %w", err)
	}
	return result.RowsAffected()
}
