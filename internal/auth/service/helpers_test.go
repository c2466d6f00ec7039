package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/sessiond/internal/auth/domain"
	"github.com/aussiebroadwan/sessiond/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/sessiond/pkg/cryptox"
	"github.com/aussiebroadwan/sessiond/pkg/idx"
	"github.com/aussiebroadwan/sessiond/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const testPassword = "correct horse battery staple"

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Now().UTC().Truncate(time.Millisecond)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testHasher() *cryptox.PasswordHasher {
	return &cryptox.PasswordHasher{
		Params: cryptox.Params{Memory: 64, Iterations: 1, Parallelism: 1, KeyLength: 32, SaltLength: 16},
		Pepper: "test-pepper",
	}
}

type harness struct {
	m      *SessionManager
	store  *sqlite.Store
	clock  *fakeClock
	dbPath string
}

func newHarness(t *testing.T, mutate func(*Policy)) *harness {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "auth.db")
	st, err := sqlite.NewStore(sqlite.DSN(dbPath))
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	policy := DefaultPolicy()
	if mutate != nil {
		mutate(&policy)
	}

	signer, err := jwtx.NewSignerHS256(testSecret)
	require.NoError(t, err)

	m, err := NewSessionManager(st, testHasher(), signer, policy)
	require.NoError(t, err)

	clock := newFakeClock()
	m.Now = clock.Now

	return &harness{m: m, store: st, clock: clock, dbPath: dbPath}
}

func (h *harness) seedUser(t *testing.T, email string, role domain.Role) domain.User {
	t.Helper()
	bs := &BootstrapService{Store: h.store, Hasher: testHasher()}
	u, err := bs.CreateUser(context.Background(), email, testPassword, "Test User", role)
	require.NoError(t, err)
	return u
}

func (h *harness) login(t *testing.T, email, device string) domain.AuthResponse {
	t.Helper()
	resp, err := h.m.Login(context.Background(), domain.LoginAttempt{
		Email:      email,
		Password:   testPassword,
		DeviceName: device,
	})
	require.NoError(t, err)
	return resp
}

// tokenRows counts every stored token row through a separate connection.
func (h *harness) tokenRows(t *testing.T) int {
	t.Helper()
	db, err := sql.Open("sqlite", sqlite.DSN(h.dbPath))
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM auth_tokens`).Scan(&n))
	return n
}

func (h *harness) rawToken(userID string, typ domain.TokenType, created, expires time.Time) domain.AuthToken {
	id := idx.NewAt(created).String()
	value := "raw-token-" + id
	return domain.AuthToken{
		ID:         id,
		UserID:     userID,
		DeviceID:   id,
		Audience:   "web",
		TokenValue: value,
		TokenHash:  cryptox.FingerprintToken(value),
		Type:       typ,
		CreatedAt:  created,
		LoginAt:    created,
		ExpiresAt:  expires,
	}
}
