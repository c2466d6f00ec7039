package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/sessiond/internal/auth/domain"
	"github.com/aussiebroadwan/sessiond/internal/auth/store"
	"github.com/aussiebroadwan/sessiond/pkg/idx"
	"github.com/aussiebroadwan/sessiond/pkg/slogx"
)

var (
	ErrBootstrapIncomplete          = errors.New("admin email and password are both required")
	ErrBootstrapFailedToCreateAdmin = errors.New("failed to create admin user")
)

// BootstrapService seeds the first admin account.
type BootstrapService struct {
	Store  store.Store
	Hasher PasswordHasher
}

// SeedAdmin creates an admin user when the users table is empty. It reports
// whether a user was created; an already populated store is not an error.
func (s *BootstrapService) SeedAdmin(ctx context.Context, email, password, displayName string) (bool, error) {
	l := slogx.FromContext(ctx)

	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return false, ErrBootstrapIncomplete
	}

	created := false
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		empty, err := tx.Users().IsEmpty(ctx)
		if err != nil {
			return err
		}
		if !empty {
			return nil
		}

		hash, err := s.Hasher.Hash(password)
		if err != nil {
			l.Error("failed to hash admin password", slog.Any("error", err))
			return ErrBootstrapFailedToCreateAdmin
		}

		if displayName == "" {
			displayName = "Administrator"
		}
		adminID := idx.New().String()
		if err := tx.Users().CreateUser(ctx, domain.User{
			ID:           adminID,
			Email:        email,
			DisplayName:  displayName,
			PasswordHash: hash,
			Role:         domain.RoleAdmin,
		}); err != nil {
			l.Error("failed to create admin user", slog.String("admin_user_id", adminID), slog.Any("error", err))
			return ErrBootstrapFailedToCreateAdmin
		}

		created = true
		l.Info("seeded admin user", slog.String("admin_user_id", adminID))
		return nil
	})
	return created, err
}

// CreateUser registers a user with a hashed password.
func (s *BootstrapService) CreateUser(ctx context.Context, email, password, displayName string, role domain.Role) (domain.User, error) {
	if !role.Valid() {
		role = domain.RoleUser
	}
	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return domain.User{}, err
	}
	u := domain.User{
		ID:           idx.New().String(),
		Email:        domain.NormalizeEmail(email),
		DisplayName:  displayName,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		return domain.User{}, err
	}
	return u, nil
}
