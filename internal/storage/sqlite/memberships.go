package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/pricebook/internal/models"
)

// GetMembership retrieves a user's membership. Returns nil, nil when absent.
func (s *SQLiteStore) GetMembership(ctx context.Context, userID string) (*models.Membership, error) {
	m := &models.Membership{}
	err := s.db.QueryRowContext(ctx,
		"SELECT user_id, group_id, joined_at FROM memberships WHERE user_id = ?",
		userID,
	).Scan(&m.UserID, &m.GroupID, &m.JoinedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return m, nil
}

// CreateMembership inserts a new membership.
func (s *SQLiteStore) CreateMembership(ctx context.Context, m *models.Membership) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO memberships (user_id, group_id, joined_at) VALUES (?, ?, ?)",
		m.UserID, m.GroupID, m.JoinedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create membership: %w", err)
	}
	return nil
}

// UpdateMembership moves a user to another group.
func (s *SQLiteStore) UpdateMembership(ctx context.Context, userID, groupID string, joinedAt int64) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"UPDATE memberships SET group_id = ?, joined_at = ? WHERE user_id = ?",
		groupID, joinedAt, userID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update membership: %w", err)
	}
	return result.RowsAffected()
}

// GroupHasMembers reports whether the group has at least one member.
func (s *SQLiteStore) GroupHasMembers(ctx context.Context, groupID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM memberships WHERE group_id = ?)",
		groupID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check group members: %w", err)
	}
	return exists, nil
}
