// Package postgres provides a PostgreSQL-backed implementation of the storage.Store
// interface, selected when DATABASE_URL is a postgres:// URL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mmynk/pricebook/internal/models"
	"github.com/mmynk/pricebook/internal/storage"
)

var _ storage.Store = (*PostgresStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS products (
    id TEXT PRIMARY KEY,
    group_id TEXT NOT NULL,
    name TEXT NOT NULL,
    name_key TEXT NOT NULL DEFAULT '',
    type TEXT NOT NULL,
    brand TEXT NOT NULL DEFAULT '',
    unit TEXT NOT NULL,
    price NUMERIC NOT NULL,
    notes TEXT NOT NULL DEFAULT '',
    unit_price TEXT NOT NULL,
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS memberships (
    user_id TEXT PRIMARY KEY,
    group_id TEXT NOT NULL,
    joined_at BIGINT NOT NULL
);

ALTER TABLE products ADD COLUMN IF NOT EXISTS name_key TEXT NOT NULL DEFAULT '';

CREATE INDEX IF NOT EXISTS idx_products_group_updated ON products(group_id, updated_at);
CREATE INDEX IF NOT EXISTS idx_memberships_group_id ON memberships(group_id);
`

// PostgresStore implements storage.Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// New connects to connStr and runs migrations.
func New(ctx context.Context, connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to reach database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	s := &PostgresStore{pool: pool}
	if err := s.backfillNameKeys(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// backfillNameKeys fills name_key for rows written before the column existed.
func (s *PostgresStore) backfillNameKeys(ctx context.Context) error {
	rows, err := s.pool.Query(ctx, "SELECT id, name FROM products WHERE name_key = ''")
	if err != nil {
		return fmt.Errorf("failed to select products without name key: %w", err)
	}
	keys, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) ([2]string, error) {
		var id, name string
		err := row.Scan(&id, &name)
		return [2]string{id, storage.NameKey(name)}, err
	})
	if err != nil {
		return fmt.Errorf("failed to scan products: %w", err)
	}

	for _, k := range keys {
		if _, err := s.pool.Exec(ctx, "UPDATE products SET name_key = $1 WHERE id = $2", k[1], k[0]); err != nil {
			return fmt.Errorf("failed to backfill name key: %w", err)
		}
	}
	return nil
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// CreateProduct inserts a new product record.
func (s *PostgresStore) CreateProduct(ctx context.Context, p *models.Product) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt == 0 {
		p.CreatedAt = time.Now().Unix()
	}
	if p.UpdatedAt == 0 {
		p.UpdatedAt = p.CreatedAt
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO products (id, group_id, name, name_key, type, brand, unit, price, notes, unit_price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric, $9, $10, $11, $12)`,
		p.ID, p.GroupID, p.Name, storage.NameKey(p.Name), p.Type, p.Brand, p.Unit, p.Price.String(), p.Notes, p.UnitPrice, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// ListProducts returns the group's products matching q, newest first.
func (s *PostgresStore) ListProducts(ctx context.Context, q storage.ProductQuery) ([]*models.Product, error) {
	where := []string{"group_id = $1"}
	args := []any{q.GroupID}
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if q.ID != "" {
		where = append(where, "id = "+next(q.ID))
	}
	if q.NameContains != "" {
		where = append(where, "strpos(name_key, "+next(storage.NameKey(q.NameContains))+") > 0")
	}

	query := `
		SELECT id, group_id, name, type, brand, unit, price::text, notes, unit_price, created_at, updated_at
		FROM products
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY updated_at DESC, created_at DESC, id DESC`
	if q.Limit > 0 {
		query += " LIMIT " + next(q.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		p := &models.Product{}
		var price string
		if err := rows.Scan(&p.ID, &p.GroupID, &p.Name, &p.Type, &p.Brand, &p.Unit, &price, &p.Notes, &p.UnitPrice, &p.CreatedAt, &p.UpdatedAt); err != nil {
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
func (s *PostgresStore) UpdateProductPrice(ctx context.Context, groupID, id string, price decimal.Decimal, unitPrice string, updatedAt int64) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		"UPDATE products SET price = $1::numeric, unit_price = $2, updated_at = $3 WHERE id = $4 AND group_id = $5",
		price.String(), unitPrice, updatedAt, id, groupID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update product price: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteProduct removes a record of the group.
func (s *PostgresStore) DeleteProduct(ctx context.Context, groupID, id string) (int64, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM products WHERE id = $1 AND group_id = $2", id, groupID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete product: %w", err)
	}
	return tag.RowsAffected(), nil
}

// GetMembership retrieves a user's membership. Returns nil, nil when absent.
func (s *PostgresStore) GetMembership(ctx context.Context, userID string) (*models.Membership, error) {
	m := &models.Membership{}
	err := s.pool.QueryRow(ctx,
		"SELECT user_id, group_id, joined_at FROM memberships WHERE user_id = $1", userID,
	).Scan(&m.UserID, &m.GroupID, &m.JoinedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return m, nil
}

// CreateMembership inserts a new membership.
func (s *PostgresStore) CreateMembership(ctx context.Context, m *models.Membership) error {
	_, err := s.pool.Exec(ctx,
		"INSERT INTO memberships (user_id, group_id, joined_at) VALUES ($1, $2, $3)",
		m.UserID, m.GroupID, m.JoinedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create membership: %w", err)
	}
	return nil
}

// UpdateMembership moves a user to another group.
func (s *PostgresStore) UpdateMembership(ctx context.Context, userID, groupID string, joinedAt int64) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		"UPDATE memberships SET group_id = $1, joined_at = $2 WHERE user_id = $3",
		groupID, joinedAt, userID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update membership: %w", err)
	}
	return tag.RowsAffected(), nil
}

// GroupHasMembers reports whether the group has at least one member.
func (s *PostgresStore) GroupHasMembers(ctx context.Context, groupID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM memberships WHERE group_id = $1)", groupID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check group members: %w", err)
	}
	return exists, nil
}
