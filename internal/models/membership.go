package models

// Membership maps an end-user identity to their current group.
// A user belongs to exactly one group at a time; joining another group
// overwrites GroupID.
type Membership struct {
	// UserID is the stable identity supplied by the chat transport.
	UserID string

	// GroupID is the shared namespace (and invitation code) the user belongs to.
	GroupID string

	// JoinedAt is the Unix timestamp of the last membership change.
	JoinedAt int64
}
