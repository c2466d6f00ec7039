package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/sessiond/internal/auth/domain"
	"github.com/aussiebroadwan/sessiond/internal/auth/store"
)

// PasswordHasher is the password hashing collaborator (argon2id in
// production, see cryptox.PasswordHasher).
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) bool
}

// CredentialVerifier checks an email/password pair against the user store.
type CredentialVerifier struct {
	Users  store.Users
	Hasher PasswordHasher

	// dummyHash is verified against when the user does not exist so both
	// failure paths cost one hash computation.
	dummyHash string
}

func NewCredentialVerifier(users store.Users, hasher PasswordHasher) (*CredentialVerifier, error) {
	dummy, err := hasher.Hash("sessiond-dummy-password")
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &CredentialVerifier{Users: users, Hasher: hasher, dummyHash: dummy}, nil
}

// Verify returns the user for valid credentials. Unknown email and wrong
// password both fail with ErrInvalidCredentials.
func (v *CredentialVerifier) Verify(ctx context.Context, email, password string) (domain.User, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return domain.User{}, ErrInvalidCredentials
	}

	u, err := v.Users.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		v.Hasher.Verify(password, v.dummyHash)
		return domain.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if !v.Hasher.Verify(password, u.PasswordHash) {
		return domain.User{}, ErrInvalidCredentials
	}
	return u, nil
}
