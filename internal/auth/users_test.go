package auth

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evcraddock/rental-arb/internal/db"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, d.Close()) })
	return d
}

func testUserStore(t *testing.T) *UserStore {
	t.Helper()
	return NewUserStore(testDB(t), "admin@example.com")
}

func TestIsAuthorizedAdmin(t *testing.T) {
	s := testUserStore(t)
	ctx := context.Background()

	assert.True(t, s.IsAuthorized(ctx, "admin@example.com"))
	assert.True(t, s.IsAuthorized(ctx, "Admin@Example.COM"))
	assert.True(t, s.IsAdmin(ctx, "admin@example.com"))
}

func TestIsAuthorizedUnknown(t *testing.T) {
	s := testUserStore(t)
	ctx := context.Background()

	assert.False(t, s.IsAuthorized(ctx, "nobody@example.com"))
	assert.False(t, s.IsAuthorized(ctx, ""))
}

func TestEmptyAdminEmail(t *testing.T) {
	s := NewUserStore(testDB(t), "")
	assert.False(t, s.IsAuthorized(context.Background(), ""))

	emails, err := s.AllEmails(context.Background())
	require.NoError(t, err)
	assert.Empty(t, emails)
}

func TestAddUser(t *testing.T) {
	s := testUserStore(t)
	ctx := context.Background()

	u, err := s.Add(ctx, " Alice@Example.com ", "Alice", "")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, "Alice", u.Name)
	assert.Equal(t, TierFree, u.Tier)

	assert.True(t, s.IsAuthorized(ctx, "alice@example.com"))
	assert.False(t, s.IsAdmin(ctx, "alice@example.com"))

	_, err = s.Add(ctx, "alice@example.com", "Again", TierPro)
	assert.True(t, eris.Is(err, ErrUserExists))

	_, err = s.Add(ctx, "", "Nobody", TierFree)
	assert.Error(t, err)

	_, err = s.Add(ctx, "bob@example.com", "Bob", Tier("gold"))
	assert.True(t, eris.Is(err, ErrInvalidTier))
}

func TestTierFor(t *testing.T) {
	s := testUserStore(t)
	ctx := context.Background()

	_, err := s.Add(ctx, "pro@example.com", "", TierPro)
	require.NoError(t, err)

	tier, err := s.TierFor(ctx, "PRO@example.com")
	require.NoError(t, err)
	assert.Equal(t, TierPro, tier)

	tier, err = s.TierFor(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, TierAdmin, tier)

	_, err = s.TierFor(ctx, "nobody@example.com")
	assert.True(t, eris.Is(err, ErrUserNotFound))
}

func TestSetTier(t *testing.T) {
	s := testUserStore(t)
	ctx := context.Background()

	u, err := s.Add(ctx, "alice@example.com", "Alice", TierFree)
	require.NoError(t, err)

	u, err = s.SetTier(ctx, u.ID, TierAdmin)
	require.NoError(t, err)
	assert.Equal(t, TierAdmin, u.Tier)
	assert.True(t, s.IsAdmin(ctx, "alice@example.com"))

	_, err = s.SetTier(ctx, 9999, TierPro)
	assert.True(t, eris.Is(err, ErrUserNotFound))

	_, err = s.SetTier(ctx, u.ID, Tier("gold"))
	assert.True(t, eris.Is(err, ErrInvalidTier))
}

func TestListAndDeleteUsers(t *testing.T) {
	s := testUserStore(t)
	ctx := context.Background()

	b, err := s.Add(ctx, "bob@example.com", "Bob", TierFree)
	require.NoError(t, err)
	_, err = s.Add(ctx, "alice@example.com", "Alice", TierPro)
	require.NoError(t, err)

	users, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice@example.com", users[0].Email)

	require.NoError(t, s.Delete(ctx, b.ID))
	assert.False(t, s.IsAuthorized(ctx, "bob@example.com"))
	assert.True(t, eris.Is(s.Delete(ctx, b.ID), ErrUserNotFound))

	_, err = s.GetByID(ctx, b.ID)
	assert.True(t, eris.Is(err, ErrUserNotFound))
}

func TestAllEmails(t *testing.T) {
	s := testUserStore(t)
	ctx := context.Background()

	_, err := s.Add(ctx, "alice@example.com", "", TierFree)
	require.NoError(t, err)
	_, err = s.Add(ctx, "ADMIN@example.com", "", TierAdmin)
	require.NoError(t, err)

	emails, err := s.AllEmails(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"admin@example.com", "alice@example.com"}, emails)
}

func TestParseTier(t *testing.T) {
	tier, err := ParseTier(" PRO ")
	require.NoError(t, err)
	assert.Equal(t, TierPro, tier)

	_, err = ParseTier("platinum")
	assert.True(t, eris.Is(err, ErrInvalidTier))
}

func TestTierAtLeast(t *testing.T) {
	assert.True(t, TierAdmin.AtLeast(TierPro))
	assert.True(t, TierPro.AtLeast(TierPro))
	assert.False(t, TierFree.AtLeast(TierPro))
	assert.False(t, Tier("bogus").AtLeast(TierFree))
}
