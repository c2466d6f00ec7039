package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/sessiond/internal/auth/domain"
	"github.com/aussiebroadwan/sessiond/internal/auth/store"
	"github.com/aussiebroadwan/sessiond/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/sessiond/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.NewStore(sqlite.DSN(filepath.Join(t.TempDir(), "auth.db")))
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedUser(t *testing.T, s store.Store, email string) domain.User {
	t.Helper()
	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		DisplayName:  "Test",
		PasswordHash: "$argon2id$stub",
		Role:         domain.RoleUser,
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func token(userID, deviceID string, typ domain.TokenType, created time.Time, ttl time.Duration) domain.AuthToken {
	id := idx.New().String()
	if deviceID == "" {
		deviceID = id
	}
	return domain.AuthToken{
		ID:        id,
		UserID:    userID,
		DeviceID:  deviceID,
		Audience:  "web",
		TokenHash: "hash-" + id,
		Type:      typ,
		CreatedAt: created,
		LoginAt:   created,
		ExpiresAt: created.Add(ttl),
	}
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	empty, err := s.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)

	u := seedUser(t, s, "Alice@Example.com")

	got, err := s.Users().GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.Equal(t, domain.RoleUser, got.Role)

	got, err = s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", got.Email)

	_, err = s.Users().GetUserByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)

	dup := u
	dup.ID = idx.New().String()
	require.ErrorIs(t, s.Users().CreateUser(ctx, dup), store.ErrAlreadyExists)

	empty, err = s.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.False(t, empty)
}

func TestTokensRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := seedUser(t, s, "bob@example.com")
	now := time.Now().UTC()

	tok := token(u.ID, "", domain.TokenTypeRefresh, now, time.Hour)
	tok.DeviceName = "laptop"
	require.NoError(t, s.Tokens().CreateToken(ctx, tok))

	got, err := s.Tokens().GetTokenByHash(ctx, tok.TokenHash)
	require.NoError(t, err)
	require.Equal(t, tok.ID, got.ID)
	require.Equal(t, "laptop", got.DeviceName)
	require.Equal(t, domain.TokenTypeRefresh, got.Type)
	require.True(t, got.ExpiresAt.Equal(tok.ExpiresAt))
	require.False(t, got.IsRevoked)
	require.Nil(t, got.RevokedAt)

	_, err = s.Tokens().GetTokenByHash(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.ErrorIs(t, s.Tokens().CreateToken(ctx, tok), store.ErrAlreadyExists)
}

func TestActiveRefreshTokens(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := seedUser(t, s, "carol@example.com")
	now := time.Now().UTC()

	live := token(u.ID, "", domain.TokenTypeRefresh, now.Add(-time.Minute), time.Hour)
	expired := token(u.ID, "", domain.TokenTypeRefresh, now.Add(-2*time.Hour), time.Hour)
	revoked := token(u.ID, "", domain.TokenTypeRefresh, now, time.Hour)
	access := token(u.ID, live.DeviceID, domain.TokenTypeAccess, now, time.Hour)
	for _, tok := range []domain.AuthToken{live, expired, revoked, access} {
		require.NoError(t, s.Tokens().CreateToken(ctx, tok))
	}

	ok, err := s.Tokens().RevokeTokenIfValid(ctx, revoked.ID, "test", now)
	require.NoError(t, err)
	require.True(t, ok)

	active, err := s.Tokens().ListActiveRefreshTokens(ctx, u.ID, now)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, live.ID, active[0].ID)

	n, err := s.Tokens().CountActiveRefreshTokens(ctx, u.ID, now)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestRevokeTokenIfValid(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := seedUser(t, s, "dave@example.com")
	now := time.Now().UTC()

	tok := token(u.ID, "", domain.TokenTypeRefresh, now, time.Hour)
	require.NoError(t, s.Tokens().CreateToken(ctx, tok))

	ok, err := s.Tokens().RevokeTokenIfValid(ctx, tok.ID, domain.RevokedByRotation, now)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.Tokens().RevokeTokenIfValid(ctx, tok.ID, "again", now)
	require.NoError(t, err)
	require.False(t, ok, "second revocation must not apply")

	got, err := s.Tokens().GetTokenByHash(ctx, tok.TokenHash)
	require.NoError(t, err)
	require.True(t, got.IsRevoked)
	require.Equal(t, domain.RevokedByRotation, got.RevokedBy)
	require.NotNil(t, got.RevokedAt)

	stale := token(u.ID, "", domain.TokenTypeRefresh, now.Add(-2*time.Hour), time.Hour)
	require.NoError(t, s.Tokens().CreateToken(ctx, stale))
	ok, err = s.Tokens().RevokeTokenIfValid(ctx, stale.ID, "x", now)
	require.NoError(t, err)
	require.False(t, ok, "expired tokens cannot be revoked")
}

func TestRevokeDeviceTokens(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := seedUser(t, s, "erin@example.com")
	other := seedUser(t, s, "frank@example.com")
	now := time.Now().UTC()

	refresh := token(u.ID, "", domain.TokenTypeRefresh, now, time.Hour)
	access := token(u.ID, refresh.DeviceID, domain.TokenTypeAccess, now, 15*time.Minute)
	otherDevice := token(u.ID, "", domain.TokenTypeRefresh, now, time.Hour)
	for _, tok := range []domain.AuthToken{refresh, access, otherDevice} {
		require.NoError(t, s.Tokens().CreateToken(ctx, tok))
	}

	n, err := s.Tokens().RevokeDeviceTokens(ctx, other.ID, refresh.DeviceID, "x", now)
	require.NoError(t, err)
	require.Zero(t, n, "device of another user is not touched")

	n, err = s.Tokens().RevokeDeviceTokens(ctx, u.ID, refresh.DeviceID, domain.RevokedByLoginEviction, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	got, err := s.Tokens().GetTokenByHash(ctx, access.TokenHash)
	require.NoError(t, err)
	require.True(t, got.IsRevoked, "paired access token revoked with the device")

	n, err = s.Tokens().RevokeDeviceTokens(ctx, u.ID, refresh.DeviceID, domain.RevokedByLoginEviction, now)
	require.NoError(t, err)
	require.Zero(t, n)

	count, err := s.Tokens().CountActiveRefreshTokens(ctx, u.ID, now)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestRevokeAllUserTokens(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := seedUser(t, s, "gina@example.com")
	now := time.Now().UTC()

	for range 3 {
		r := token(u.ID, "", domain.TokenTypeRefresh, now, time.Hour)
		a := token(u.ID, r.DeviceID, domain.TokenTypeAccess, now, time.Minute)
		require.NoError(t, s.Tokens().CreateToken(ctx, r))
		require.NoError(t, s.Tokens().CreateToken(ctx, a))
	}

	n, err := s.Tokens().RevokeAllUserTokens(ctx, u.ID, "admin@example.com", now)
	require.NoError(t, err)
	require.EqualValues(t, 6, n)

	count, err := s.Tokens().CountActiveRefreshTokens(ctx, u.ID, now)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestDeleteExpiredTokens(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := seedUser(t, s, "hank@example.com")
	now := time.Now().UTC()

	var expired []domain.AuthToken
	for range 5 {
		tok := token(u.ID, "", domain.TokenTypeAccess, now.Add(-time.Hour), 50*time.Minute)
		expired = append(expired, tok)
		require.NoError(t, s.Tokens().CreateToken(ctx, tok))
	}
	fresh := token(u.ID, "", domain.TokenTypeRefresh, now, 10*time.Minute)
	require.NoError(t, s.Tokens().CreateToken(ctx, fresh))
	_, err := s.Tokens().RevokeTokenIfValid(ctx, fresh.ID, "x", now)
	require.NoError(t, err)

	n, err := s.Tokens().DeleteExpiredTokens(ctx, now, 2)
	require.NoError(t, err)
	require.EqualValues(t, 2, n, "batch size bounds each delete")

	n, err = s.Tokens().DeleteExpiredTokens(ctx, now, 100)
	require.NoError(t, err)
	require.EqualValues(t, 3, n)

	for _, tok := range expired {
		_, err := s.Tokens().GetTokenByHash(ctx, tok.TokenHash)
		require.ErrorIs(t, err, store.ErrNotFound)
	}

	_, err = s.Tokens().GetTokenByHash(ctx, fresh.TokenHash)
	require.NoError(t, err, "revoked but unexpired tokens survive cleanup")
}

func TestWithTxRollback(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := seedUser(t, s, "ivy@example.com")
	now := time.Now().UTC()
	tok := token(u.ID, "", domain.TokenTypeRefresh, now, time.Hour)

	err := s.WithTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.Tokens().CreateToken(ctx, tok))
		return store.ErrNotFound
	})
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Tokens().GetTokenByHash(ctx, tok.TokenHash)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.WithTx(ctx, func(tx store.Tx) error {
		return tx.Tokens().CreateToken(ctx, tok)
	}))
	_, err = s.Tokens().GetTokenByHash(ctx, tok.TokenHash)
	require.NoError(t, err)
}
