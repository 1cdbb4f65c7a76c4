// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"

	"github.com/mmynk/pricebook/internal/models"
)

// ProductQuery selects products within one group.
type ProductQuery struct {
	// GroupID is required; products of other groups are never returned.
	GroupID string

	// ID restricts the result to a single record when set.
	ID string

	// NameContains is a case-insensitive substring filter on the product name.
	NameContains string

	// Limit caps the number of rows; zero means no limit.
	Limit int
}

// NameKey is the case-folded form of a product name that stores persist
// and match NameContains against. SQL lower() only folds ASCII, so folding
// happens here.
func NameKey(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// Store defines the interface for product and membership storage.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the dialog layer.
type Store interface {
	// CreateProduct persists a new product record.
	// The ID and timestamps are populated by the store when unset.
	CreateProduct(ctx context.Context, product *models.Product) error

	// ListProducts returns matching products, most recently updated first.
	ListProducts(ctx context.Context, q ProductQuery) ([]*models.Product, error)

	// UpdateProductPrice sets a new price and headline unit price on one record
	// of the group and returns the number of affected rows.
	UpdateProductPrice(ctx context.Context, groupID, id string, price decimal.Decimal, unitPrice string, updatedAt int64) (int64, error)

	// DeleteProduct removes one record of the group and returns the number of affected rows.
	DeleteProduct(ctx context.Context, groupID, id string) (int64, error)

	// GetMembership returns the user's membership, or nil and no error if the user has none.
	GetMembership(ctx context.Context, userID string) (*models.Membership, error)

	// CreateMembership inserts a new membership.
	CreateMembership(ctx context.Context, m *models.Membership) error

	// UpdateMembership points an existing membership at another group
	// and returns the number of affected rows.
	UpdateMembership(ctx context.Context, userID, groupID string, joinedAt int64) (int64, error)

	// GroupHasMembers reports whether any user currently belongs to the group.
	GroupHasMembers(ctx context.Context, groupID string) (bool, error)

	// Close releases any resources held by the store.
	Close() error
}
