package domain

import (
	"errors"
	"fmt"
	"time"
)

// TokenType distinguishes the two halves of an issued pair.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// MinTokenValueLength is the shortest token value accepted anywhere.
const MinTokenValueLength = 10

var (
	ErrAlreadyRevoked = errors.New("token already revoked")
	ErrInvalidToken   = errors.New("invalid token")
)

// AuthToken models a stored access or refresh token record.
//
// TokenValue is only set on freshly issued tokens and is returned to the
// caller once. The store keeps TokenHash, the fingerprint of the value.
type AuthToken struct {
	ID         string
	UserID     string
	DeviceID   string // stable across rotations; equals the first refresh token's id
	DeviceName string
	Audience   string
	TokenValue string
	TokenHash  string
	Type       TokenType
	ExpiresAt  time.Time
	CreatedAt  time.Time
	LoginAt    time.Time // original login of the device

	IsRevoked bool
	RevokedAt *time.Time
	RevokedBy string
}

// NewAuthToken validates t as a freshly minted token.
func NewAuthToken(t AuthToken) (AuthToken, error) {
	switch {
	case t.ID == "" || t.UserID == "":
		return AuthToken{}, fmt.Errorf("%w: missing id or user", ErrInvalidToken)
	case t.Type != TokenTypeAccess && t.Type != TokenTypeRefresh:
		return AuthToken{}, fmt.Errorf("%w: unknown type %q", ErrInvalidToken, t.Type)
	case len(t.TokenValue) < MinTokenValueLength:
		return AuthToken{}, fmt.Errorf("%w: value shorter than %d", ErrInvalidToken, MinTokenValueLength)
	case !t.ExpiresAt.After(t.CreatedAt):
		return AuthToken{}, fmt.Errorf("%w: expires_at must be after created_at", ErrInvalidToken)
	case t.IsRevoked:
		return AuthToken{}, fmt.Errorf("%w: cannot create a revoked token", ErrInvalidToken)
	}
	if t.LoginAt.IsZero() {
		t.LoginAt = t.CreatedAt
	}
	return t, nil
}

// IsExpired reports whether now is past ExpiresAt.
func (t AuthToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// IsValid reports whether the token is neither revoked nor expired.
func (t AuthToken) IsValid(now time.Time) bool {
	return !t.IsRevoked && !t.IsExpired(now)
}

// Revoke returns a revoked copy of t. A revoked token stays revoked.
func (t AuthToken) Revoke(by string, at time.Time) (AuthToken, error) {
	if t.IsRevoked {
		return t, ErrAlreadyRevoked
	}
	t.IsRevoked = true
	t.RevokedAt = &at
	t.RevokedBy = by
	return t, nil
}

// TTL is the lifetime the token was issued with.
func (t AuthToken) TTL() time.Duration {
	return t.ExpiresAt.Sub(t.CreatedAt)
}

// Revocation attributions written to RevokedBy.
const (
	RevokedByRotation      = "rotation"
	RevokedByLogout        = "logout"
	RevokedByLogoutAll     = "logout-all"
	RevokedByLoginEviction = "login-eviction"
	RevokedByDeviceRemoval = "device-removal"
)
