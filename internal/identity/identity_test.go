package identity

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/pricebook/internal/storage"
	"github.com/mmynk/pricebook/internal/storage/sqlite"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewResolver(store)
}

func TestResolveGroupIsStable(t *testing.T) {
	r := newTestResolver(t)
	ctx := context.Background()

	first, err := r.ResolveGroup(ctx, "100")
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := r.ResolveGroup(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := r.ResolveGroup(ctx, "200")
	require.NoError(t, err)
	assert.NotEqual(t, first, other, "distinct users get distinct personal groups")
}

func TestJoinGroup(t *testing.T) {
	r := newTestResolver(t)
	ctx := context.Background()

	u1Group, err := r.ResolveGroup(ctx, "u1")
	require.NoError(t, err)
	_, err = r.ResolveGroup(ctx, "u2")
	require.NoError(t, err)

	t.Run("unknown code", func(t *testing.T) {
		_, err := r.JoinGroup(ctx, "u2", "no-such-group")
		assert.ErrorIs(t, err, ErrInviteNotFound)
	})

	t.Run("empty code", func(t *testing.T) {
		_, err := r.JoinGroup(ctx, "u2", "   ")
		assert.ErrorIs(t, err, ErrInviteNotFound)
	})

	t.Run("valid code moves the user", func(t *testing.T) {
		res, err := r.JoinGroup(ctx, "u2", "  "+u1Group+" ")
		require.NoError(t, err)
		assert.Equal(t, u1Group, res.GroupID)
		assert.False(t, res.AlreadyMember)

		got, err := r.ResolveGroup(ctx, "u2")
		require.NoError(t, err)
		assert.Equal(t, u1Group, got)
	})

	t.Run("joining own group is a no-op", func(t *testing.T) {
		res, err := r.JoinGroup(ctx, "u1", u1Group)
		require.NoError(t, err)
		assert.True(t, res.AlreadyMember)
	})

	t.Run("user without membership can join", func(t *testing.T) {
		res, err := r.JoinGroup(ctx, "u3", u1Group)
		require.NoError(t, err)
		assert.Equal(t, u1Group, res.GroupID)
	})
}

// lostUpdateStore reports that no membership row was updated, as when the
// row is removed between lookup and update.
type lostUpdateStore struct {
	storage.Store
}

func (lostUpdateStore) UpdateMembership(ctx context.Context, userID, groupID string, joinedAt int64) (int64, error) {
	return 0, nil
}

func TestJoinGroupFailsWhenNothingWasUpdated(t *testing.T) {
	base, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { base.Close() })

	r := NewResolver(lostUpdateStore{Store: base})
	ctx := context.Background()

	code, err := r.ResolveGroup(ctx, "u1")
	require.NoError(t, err)
	before, err := r.ResolveGroup(ctx, "u2")
	require.NoError(t, err)

	_, err = r.JoinGroup(ctx, "u2", code)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInviteNotFound)

	after, err := r.ResolveGroup(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
