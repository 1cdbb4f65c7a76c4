// Package identity maps end-user identities to groups: it provisions a personal
// group on first contact and moves users between groups by invitation code.
//
// The group id doubles as the invitation code. A code is valid while at least
// one user still belongs to the group.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/pricebook/internal/models"
	"github.com/mmynk/pricebook/internal/storage"
)

// ErrInviteNotFound is returned by JoinGroup when the code names no active group.
var ErrInviteNotFound = errors.New("invitation code not found")

// Resolver resolves users to their current group.
type Resolver struct {
	store storage.Store
	newID func() string
	now   func() time.Time
}

// NewResolver creates a Resolver backed by store.
func NewResolver(store storage.Store) *Resolver {
	return &Resolver{
		store: store,
		newID: uuid.NewString,
		now:   time.Now,
	}
}

// ResolveGroup returns the user's current group, creating a fresh personal
// group on first contact. Repeated calls return the same id until the user joins
// another group.
func (r *Resolver) ResolveGroup(ctx context.Context, userID string) (string, error) {
	m, err := r.store.GetMembership(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("resolve group: %w", err)
	}
	if m != nil {
		return m.GroupID, nil
	}

	m = &models.Membership{
		UserID:   userID,
		GroupID:  r.newID(),
		JoinedAt: r.now().Unix(),
	}
	if err := r.store.CreateMembership(ctx, m); err != nil {
		// Two first-contact turns can race; the loser reads the winner's row.
		if existing, getErr := r.store.GetMembership(ctx, userID); getErr == nil && existing != nil {
			return existing.GroupID, nil
		}
		return "", fmt.Errorf("provision group: %w", err)
	}

	slog.Info("Provisioned personal group", "user_id", userID, "group_id", m.GroupID)
	return m.GroupID, nil
}

// JoinResult describes the outcome of a successful JoinGroup.
type JoinResult struct {
	GroupID string

	// AlreadyMember is true when the user was already in the group; nothing changed.
	AlreadyMember bool
}

// JoinGroup moves the user into the group identified by code.
// Records created in the previous group stay there.
func (r *Resolver) JoinGroup(ctx context.Context, userID, code string) (JoinResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return JoinResult{}, ErrInviteNotFound
	}

	current, err := r.store.GetMembership(ctx, userID)
	if err != nil {
		return JoinResult{}, fmt.Errorf("join group: %w", err)
	}
	if current != nil && current.GroupID == code {
		return JoinResult{GroupID: code, AlreadyMember: true}, nil
	}

	exists, err := r.store.GroupHasMembers(ctx, code)
	if err != nil {
		return JoinResult{}, fmt.Errorf("join group: %w", err)
	}
	if !exists {
		return JoinResult{}, ErrInviteNotFound
	}

	now := r.now().Unix()
	if current == nil {
		err = r.store.CreateMembership(ctx, &models.Membership{UserID: userID, GroupID: code, JoinedAt: now})
	} else {
		var n int64
		n, err = r.store.UpdateMembership(ctx, userID, code, now)
		if err == nil && n == 0 {
			err = fmt.Errorf("membership of user %s disappeared", userID)
		}
	}
	if err != nil {
		return JoinResult{}, fmt.Errorf("join group: %w", err)
	}

	slog.Info("User joined group", "user_id", userID, "group_id", code)
	return JoinResult{GroupID: code}, nil
}
