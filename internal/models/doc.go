// Package models defines the core domain models for pricebook.
//
// # Models
//
//   - Product: one recorded purchase of a grocery/household product, owned by a group
//   - Membership: maps an end-user to the group whose records they share
//
// # Design Principles
//
// 1. **Group scoping**: every Product carries its group id exactly once; all reads and
// writes filter on it
// 2. **Opaque identities**: user ids come from the chat transport, group ids are generated
// UUIDs that double as invitation codes
// 3. **Derived data is stored, not trusted**: UnitPrice is recomputed from (Unit, Price)
// whenever either changes
package models
