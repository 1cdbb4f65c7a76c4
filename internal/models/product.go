package models

import "github.com/shopspring/decimal"

// Product represents one recorded purchase shared within a group.
type Product struct {
	// ID is the unique identifier for the product record (UUID format).
	ID string

	// GroupID is the group that owns this record.
	GroupID string

	// Name is the display-cased product name (e.g., "Toilet Paper").
	Name string

	// Type is a free-text category (e.g., "Compact").
	Type string

	// Brand may be empty.
	Brand string

	// Unit is the raw quantity description as typed by the user (e.g., "12 rolls 30m").
	Unit string

	// Price is the non-negative amount paid, currency-agnostic.
	Price decimal.Decimal

	// Notes is optional free text.
	Notes string

	// UnitPrice is the headline unit-price string derived from (Unit, Price),
	// e.g. "$0.50/m".
	UnitPrice string

	// CreatedAt is the Unix timestamp when the record was created.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last price change (equals CreatedAt until then).
	UpdatedAt int64
}
