package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/mmynk/pricebook/internal/storage"
)

// schema runs on startup to ensure tables exist.
// Prices are stored as decimal text so they round-trip exactly.
const schema = `
CREATE TABLE IF NOT EXISTS products (
    id TEXT PRIMARY KEY,
    group_id TEXT NOT NULL,
    name TEXT NOT NULL,
    name_key TEXT NOT NULL DEFAULT '',
    type TEXT NOT NULL,
    brand TEXT NOT NULL DEFAULT '',
    unit TEXT NOT NULL,
    price TEXT NOT NULL,
    notes TEXT NOT NULL DEFAULT '',
    unit_price TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS memberships (
    user_id TEXT PRIMARY KEY,
    group_id TEXT NOT NULL,
    joined_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_products_group_updated ON products(group_id, updated_at);
CREATE INDEX IF NOT EXISTS idx_memberships_group_id ON memberships(group_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return err
	}
	if err := addNameKey(db); err != nil {
		return err
	}
	return backfillNameKeys(db)
}

// addNameKey adds the name_key column to databases created before it existed.
func addNameKey(db *sql.DB) error {
	var n int
	err := db.QueryRow(
		"SELECT COUNT(*) FROM pragma_table_info('products') WHERE name = 'name_key'",
	).Scan(&n)
	if err != nil {
		return fmt.Errorf("failed to inspect products table: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := db.Exec("ALTER TABLE products ADD COLUMN name_key TEXT NOT NULL DEFAULT ''"); err != nil {
		return fmt.Errorf("failed to add name_key column: %w", err)
	}
	return nil
}

// backfillNameKeys fills name_key for rows written without one.
func backfillNameKeys(db *sql.DB) error {
	rows, err := db.Query("SELECT id, name FROM products WHERE name_key = ''")
	if err != nil {
		return fmt.Errorf("failed to select products without name key: %w", err)
	}
	keys := map[string]string{}
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan product: %w", err)
		}
		keys[id] = storage.NameKey(name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate products: %w", err)
	}

	for id, key := range keys {
		if _, err := db.Exec("UPDATE products SET name_key = ? WHERE id = ?", key, id); err != nil {
			return fmt.Errorf("failed to backfill name key: %w", err)
		}
	}
	return nil
}
