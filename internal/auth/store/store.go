package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/sessiond/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. Sub-repositories are exposed as methods so a Tx-scoped Store
// can hand out the same repositories bound to the transaction.
type Store interface {
	Users() Users
	Tokens() Tokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail expects an already normalized email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user. Returns ErrAlreadyExists on a duplicate email.
	CreateUser(ctx context.Context, u domain.User) error

	// IsEmpty returns true if there are no users.
	IsEmpty(ctx context.Context) (bool, error)
}

// Tokens stores access and refresh tokens. Every mutation is a single
// conditional statement so callers can rely on rows-affected counts.
type Tokens interface {
	// CreateToken stores a new token record keyed by its fingerprint.
	CreateToken(ctx context.Context, t domain.AuthToken) error

	// GetTokenByHash returns the token whatever its state.
	GetTokenByHash(ctx context.Context, hash string) (domain.AuthToken, error)

	// ListActiveRefreshTokens returns the user's non-revoked refresh tokens
	// that have not expired at now, oldest login first.
	ListActiveRefreshTokens(ctx context.Context, userID string, now time.Time) ([]domain.AuthToken, error)

	// CountActiveRefreshTokens counts what ListActiveRefreshTokens would return.
	CountActiveRefreshTokens(ctx context.Context, userID string, now time.Time) (int, error)

	// RevokeTokenIfValid revokes one token only if it is still valid at now.
	// It reports whether this call performed the revocation.
	RevokeTokenIfValid(ctx context.Context, id, revokedBy string, now time.Time) (bool, error)

	// RevokeDeviceTokens revokes the device's live refresh token and, if one
	// was revoked, its live access tokens. It returns the number of refresh
	// tokens revoked.
	RevokeDeviceTokens(ctx context.Context, userID, deviceID, revokedBy string, now time.Time) (int64, error)

	// RevokeAllUserTokens revokes every live access and refresh token of the user.
	RevokeAllUserTokens(ctx context.Context, userID, revokedBy string, now time.Time) (int64, error)

	// DeleteExpiredTokens deletes at most limit tokens that expired before
	// cutoff, revoked or not.
	DeleteExpiredTokens(ctx context.Context, cutoff time.Time, limit int) (int64, error)
}
