package postgres_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/sessiond/internal/auth/domain"
	"github.com/aussiebroadwan/sessiond/internal/auth/store"
	"github.com/aussiebroadwan/sessiond/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/sessiond/pkg/idx"
	"github.com/stretchr/testify/require"
)

// Integration tests run when AUTH_TEST_POSTGRES_URL points at a disposable database.

func newStore(t *testing.T) *postgres.Store {
	t.Helper()
	url := os.Getenv("AUTH_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("AUTH_TEST_POSTGRES_URL is not set; skipping Postgres integration test")
	}

	s, err := postgres.NewStore(context.Background(), url)
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedUser(t *testing.T, s store.Store) domain.User {
	t.Helper()
	id := idx.New().String()
	u := domain.User{
		ID:           id,
		Email:        id + "@example.com",
		PasswordHash: "$argon2id$stub",
		Role:         domain.RoleUser,
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func refreshToken(userID string, now time.Time) domain.AuthToken {
	id := idx.New().String()
	return domain.AuthToken{
		ID:        id,
		UserID:    userID,
		DeviceID:  id,
		Audience:  "web",
		TokenHash: "hash-" + id,
		Type:      domain.TokenTypeRefresh,
		CreatedAt: now,
		LoginAt:   now,
		ExpiresAt: now.Add(time.Hour),
	}
}

func TestPostgresTokenLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := seedUser(t, s)
	now := time.Now().UTC().Truncate(time.Microsecond)

	tok := refreshToken(u.ID, now)
	require.NoError(t, s.Tokens().CreateToken(ctx, tok))
	require.ErrorIs(t, s.Tokens().CreateToken(ctx, tok), store.ErrAlreadyExists)

	got, err := s.Tokens().GetTokenByHash(ctx, tok.TokenHash)
	require.NoError(t, err)
	require.True(t, got.CreatedAt.Equal(now))

	n, err := s.Tokens().CountActiveRefreshTokens(ctx, u.ID, now)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	revoked, err := s.Tokens().RevokeDeviceTokens(ctx, u.ID, tok.DeviceID, domain.RevokedByLogout, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, revoked)

	got, err = s.Tokens().GetTokenByHash(ctx, tok.TokenHash)
	require.NoError(t, err)
	require.True(t, got.IsRevoked)
	require.Equal(t, domain.RevokedByLogout, got.RevokedBy)

	deleted, err := s.Tokens().DeleteExpiredTokens(ctx, now.Add(2*time.Hour), 100)
	require.NoError(t, err)
	require.GreaterOrEqual(t, deleted, int64(1))
}

func TestPostgresConcurrentConditionalRevoke(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := seedUser(t, s)
	now := time.Now().UTC()

	tok := refreshToken(u.ID, now)
	require.NoError(t, s.Tokens().CreateToken(ctx, tok))

	const workers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	errs := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.WithTx(ctx, func(tx store.Tx) error {
				ok, err := tx.Tokens().RevokeTokenIfValid(ctx, tok.ID, domain.RevokedByRotation, now)
				if err != nil || !ok {
					return err
				}
				mu.Lock()
				wins++
				mu.Unlock()
				return nil
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, 1, wins)
}
