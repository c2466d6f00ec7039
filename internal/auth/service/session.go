package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/aussiebroadwan/sessiond/internal/auth/domain"
	"github.com/aussiebroadwan/sessiond/internal/auth/store"
	"github.com/aussiebroadwan/sessiond/pkg/cryptox"
	"github.com/aussiebroadwan/sessiond/pkg/jwtx"
	"github.com/aussiebroadwan/sessiond/pkg/slogx"
	"golang.org/x/sync/singleflight"
)

// SessionManager implements login, refresh, logout, validation, revocation
// and cleanup on top of the token store.
//
// The device limit check on a first login is read-then-write: N concurrent
// logins for the same user can exceed MaxDevices by at most N-1. Eviction
// logins and refresh rotations are transactional.
type SessionManager struct {
	Store       store.Store
	Credentials *CredentialVerifier
	Devices     *DeviceRegistry
	Issuer      *TokenIssuer
	Policy      Policy

	// Optional collaborators.
	Throttle LoginThrottle
	Metrics  *Metrics

	Now func() time.Time

	cleanup singleflight.Group
}

// NewSessionManager wires the session components around st.
func NewSessionManager(st store.Store, hasher PasswordHasher, signer jwtx.Signer, policy Policy) (*SessionManager, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	creds, err := NewCredentialVerifier(st.Users(), hasher)
	if err != nil {
		return nil, err
	}

	m := &SessionManager{
		Store:       st,
		Credentials: creds,
		Policy:      policy,
	}
	m.Devices = &DeviceRegistry{Store: st, Now: m.now}
	m.Issuer = &TokenIssuer{Signer: signer, Policy: policy, Now: m.now}
	return m, nil
}

func (m *SessionManager) now() time.Time { return clock(m.Now) }

// Login authenticates a user and issues a token pair.
//
// Without DeviceIDToRevoke the call fails with a DeviceLimitExceeded error,
// listing the active devices, once the user is at the limit. The caller
// then repeats the login naming the device to evict; that call revokes the
// device and issues the new pair in one transaction, bypassing the limit.
func (m *SessionManager) Login(ctx context.Context, attempt domain.LoginAttempt) (domain.AuthResponse, error) {
	resp, err := m.login(ctx, attempt)
	m.Metrics.login(outcomeOf(err))
	return resp, err
}

func (m *SessionManager) login(ctx context.Context, attempt domain.LoginAttempt) (domain.AuthResponse, error) {
	l := slogx.FromContext(ctx)
	email := domain.NormalizeEmail(attempt.Email)

	if m.Throttle != nil {
		if retryAfter, ok := m.Throttle.Allow(email); !ok {
			l.Warn("login_locked_out", slog.Duration("retry_after", retryAfter))
			return domain.AuthResponse{}, tooManyAttemptsError(int(math.Ceil(retryAfter.Seconds())))
		}
	}

	audience, err := m.Issuer.ResolveAudience(attempt.ClientID)
	if err != nil {
		return domain.AuthResponse{}, err
	}

	u, err := m.Credentials.Verify(ctx, email, attempt.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			if m.Throttle != nil {
				m.Throttle.RecordFailure(email)
			}
			l.Info("login_failed", slog.String("reason", "invalid_credentials"))
		}
		return domain.AuthResponse{}, err
	}
	if m.Throttle != nil {
		m.Throttle.Reset(email)
	}

	l = l.With(slog.String("user_id", u.ID))
	dev := DeviceBinding{Name: attempt.DeviceName}

	if attempt.DeviceIDToRevoke == "" {
		count, err := m.Devices.CountActive(ctx, u.ID)
		if err != nil {
			return domain.AuthResponse{}, err
		}
		if count >= m.Policy.MaxDevices {
			devices, err := m.Devices.ActiveDevices(ctx, u.ID)
			if err != nil {
				return domain.AuthResponse{}, err
			}
			// Audited apart from credential failures and not counted
			// towards the lockout: the password was correct.
			l.Info("login_device_limit",
				slog.Int("active_devices", len(devices)),
				slog.Int("max_devices", m.Policy.MaxDevices),
			)
			return domain.AuthResponse{}, deviceLimitError(m.Policy.MaxDevices, devices)
		}

		access, refresh, err := m.Issuer.IssuePair(u, audience, dev)
		if err != nil {
			return domain.AuthResponse{}, err
		}
		if err := m.Store.WithTx(ctx, func(tx store.Tx) error {
			return persistPair(ctx, tx.Tokens(), access, refresh)
		}); err != nil {
			return domain.AuthResponse{}, err
		}

		l.Info("login_succeeded", slog.String("device_id", refresh.DeviceID))
		return m.response(u, access, refresh), nil
	}

	access, refresh, err := m.Issuer.IssuePair(u, audience, dev)
	if err != nil {
		return domain.AuthResponse{}, err
	}
	err = m.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := revokeDevice(ctx, tx.Tokens(), u.ID, attempt.DeviceIDToRevoke, domain.RevokedByLoginEviction, m.now()); err != nil {
			return err
		}
		return persistPair(ctx, tx.Tokens(), access, refresh)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			l.Info("login_eviction_stale", slog.String("device_id", attempt.DeviceIDToRevoke))
		}
		return domain.AuthResponse{}, err
	}

	m.Metrics.revocation(domain.RevokedByLoginEviction)
	l.Info("login_succeeded",
		slog.String("device_id", refresh.DeviceID),
		slog.String("evicted_device_id", attempt.DeviceIDToRevoke),
	)
	return m.response(u, access, refresh), nil
}

// Refresh rotates a refresh token. Each refresh token succeeds at most once.
func (m *SessionManager) Refresh(ctx context.Context, refreshToken string) (domain.AuthResponse, error) {
	resp, err := m.refresh(ctx, refreshToken)
	m.Metrics.refresh(outcomeOf(err))
	return resp, err
}

func (m *SessionManager) refresh(ctx context.Context, refreshToken string) (domain.AuthResponse, error) {
	l := slogx.FromContext(ctx)

	old, err := m.lookup(ctx, refreshToken)
	if err != nil {
		return domain.AuthResponse{}, err
	}
	if old.Type != domain.TokenTypeRefresh || !old.IsValid(m.now()) {
		return domain.AuthResponse{}, ErrInvalidToken
	}

	u, err := m.Store.Users().GetUserByID(ctx, old.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.AuthResponse{}, ErrInvalidToken
	}
	if err != nil {
		return domain.AuthResponse{}, fmt.Errorf("lookup user: %w", err)
	}

	access, refresh, err := m.Issuer.Rotate(ctx, m.Store, old, u)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			l.Warn("refresh_rejected", slog.String("user_id", u.ID), slog.String("device_id", old.DeviceID))
		}
		return domain.AuthResponse{}, err
	}

	m.Metrics.revocation(domain.RevokedByRotation)
	l.Debug("refresh_rotated", slog.String("user_id", u.ID), slog.String("device_id", old.DeviceID))
	return m.response(u, access, refresh), nil
}

// LogoutRequest describes a logout call from an authenticated user.
type LogoutRequest struct {
	UserID       string
	RefreshToken string
	AllDevices   bool
}

// Logout revokes the caller's session. It is idempotent: unknown, expired or
// already revoked tokens are a successful no-op, as is a request naming
// neither a token nor all devices.
func (m *SessionManager) Logout(ctx context.Context, req LogoutRequest) error {
	l := slogx.FromContext(ctx)
	now := m.now()

	if req.AllDevices {
		if req.UserID == "" {
			return ErrInvalidToken
		}
		n, err := m.Store.Tokens().RevokeAllUserTokens(ctx, req.UserID, domain.RevokedByLogoutAll, now)
		if err != nil {
			return fmt.Errorf("revoke user tokens: %w", err)
		}
		m.Metrics.revocation(domain.RevokedByLogoutAll)
		l.Info("logout_all", slog.String("user_id", req.UserID), slog.Int64("revoked", n))
		return nil
	}

	if req.RefreshToken == "" {
		return nil
	}

	tok, err := m.lookup(ctx, req.RefreshToken)
	if errors.Is(err, ErrInvalidToken) {
		return nil
	}
	if err != nil {
		return err
	}
	if req.UserID != "" && tok.UserID != req.UserID {
		l.Warn("logout_token_owner_mismatch", slog.String("user_id", req.UserID))
		return nil
	}
	if !tok.IsValid(now) {
		return nil
	}

	if tok.Type == domain.TokenTypeAccess {
		if _, err := m.Store.Tokens().RevokeTokenIfValid(ctx, tok.ID, domain.RevokedByLogout, now); err != nil {
			return fmt.Errorf("revoke token: %w", err)
		}
		return nil
	}

	err = m.Store.WithTx(ctx, func(tx store.Tx) error {
		return revokeDevice(ctx, tx.Tokens(), tok.UserID, tok.DeviceID, domain.RevokedByLogout, now)
	})
	if errors.Is(err, ErrNotFound) {
		return nil // raced with another revocation
	}
	if err != nil {
		return err
	}

	m.Metrics.revocation(domain.RevokedByLogout)
	l.Info("logout", slog.String("user_id", tok.UserID), slog.String("device_id", tok.DeviceID))
	return nil
}

// Validate reports whether token matches a stored, unrevoked, unexpired
// token of either type.
func (m *SessionManager) Validate(ctx context.Context, token string) (bool, error) {
	tok, err := m.lookup(ctx, token)
	if errors.Is(err, ErrInvalidToken) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return tok.IsValid(m.now()), nil
}

// RevokeUserTokens revokes every live token of userID on behalf of an admin.
func (m *SessionManager) RevokeUserTokens(ctx context.Context, userID, revokedBy string) error {
	if userID == "" {
		return ErrNotFound
	}
	if revokedBy == "" {
		revokedBy = "admin"
	}

	n, err := m.Store.Tokens().RevokeAllUserTokens(ctx, userID, revokedBy, m.now())
	if err != nil {
		return fmt.Errorf("revoke user tokens: %w", err)
	}

	m.Metrics.revocation("admin")
	slogx.FromContext(ctx).Info("admin_revoke",
		slog.String("target_user_id", userID),
		slog.String("revoked_by", revokedBy),
		slog.Int64("revoked", n),
	)
	return nil
}

// ActiveDevices lists the user's devices, oldest login first.
func (m *SessionManager) ActiveDevices(ctx context.Context, userID string) ([]domain.Device, error) {
	return m.Devices.ActiveDevices(ctx, userID)
}

// RevokeDevice signs one of the user's own devices out.
func (m *SessionManager) RevokeDevice(ctx context.Context, userID, deviceID string) error {
	if err := m.Devices.RevokeDevice(ctx, userID, deviceID, domain.RevokedByDeviceRemoval); err != nil {
		return err
	}
	m.Metrics.revocation(domain.RevokedByDeviceRemoval)
	slogx.FromContext(ctx).Info("device_revoked", slog.String("user_id", userID), slog.String("device_id", deviceID))
	return nil
}

// CleanupExpiredTokens deletes tokens that expired more than
// Policy.TokenRetention ago, in batches. Concurrent callers share one run.
// Cancelling ctx stops between batches; the next run picks up the rest.
func (m *SessionManager) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	v, err, _ := m.cleanup.Do("cleanup", func() (any, error) {
		n, err := m.deleteExpired(ctx)
		m.Metrics.cleanup(n, err)
		return n, err
	})
	n, _ := v.(int64)
	return n, err
}

func (m *SessionManager) deleteExpired(ctx context.Context) (int64, error) {
	cutoff := m.now().Add(-m.Policy.TokenRetention)
	batch := m.Policy.CleanupBatchSize

	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := m.Store.Tokens().DeleteExpiredTokens(ctx, cutoff, batch)
		total += n
		if err != nil {
			return total, fmt.Errorf("delete expired tokens: %w", err)
		}
		if n < int64(batch) {
			return total, nil
		}
	}
}

// lookup finds a token by its presented value. Unknown and malformed values
// are ErrInvalidToken; store faults are returned wrapped.
func (m *SessionManager) lookup(ctx context.Context, value string) (domain.AuthToken, error) {
	if len(value) < domain.MinTokenValueLength {
		return domain.AuthToken{}, ErrInvalidToken
	}
	tok, err := m.Store.Tokens().GetTokenByHash(ctx, cryptox.FingerprintToken(value))
	if errors.Is(err, store.ErrNotFound) {
		return domain.AuthToken{}, ErrInvalidToken
	}
	if err != nil {
		return domain.AuthToken{}, fmt.Errorf("lookup token: %w", err)
	}
	return tok, nil
}

func (m *SessionManager) response(u domain.User, access, refresh domain.AuthToken) domain.AuthResponse {
	return domain.AuthResponse{
		User:            u,
		AccessToken:     access,
		RefreshToken:    refresh,
		AuthenticatedAt: access.CreatedAt,
		ExpiresIn:       access.TTL(),
	}
}
