package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/aussiebroadwan/sessiond/internal/auth/domain"
	"github.com/aussiebroadwan/sessiond/internal/auth/store"
	"github.com/aussiebroadwan/sessiond/pkg/cryptox"
	"github.com/aussiebroadwan/sessiond/pkg/idx"
	"github.com/aussiebroadwan/sessiond/pkg/jwtx"
)

// DeviceBinding ties issued tokens to a device. A zero ID starts a new device.
type DeviceBinding struct {
	ID      string
	Name    string
	LoginAt time.Time
}

// TokenIssuer mints access and refresh tokens and performs rotation.
type TokenIssuer struct {
	Signer jwtx.Signer
	Policy Policy
	Now    func() time.Time
}

// ResolveAudience maps a requested client id onto a configured audience. An
// empty client id selects the first configured audience.
func (i *TokenIssuer) ResolveAudience(clientID string) (string, error) {
	if clientID == "" {
		return i.Policy.Audiences[0], nil
	}
	if !slices.Contains(i.Policy.Audiences, clientID) {
		return "", ErrInvalidAudience
	}
	return clientID, nil
}

// IssueAccessToken signs a JWT for u. The token row id is the jti.
func (i *TokenIssuer) IssueAccessToken(u domain.User, audience string, dev DeviceBinding) (domain.AuthToken, error) {
	return i.issueAccess(u, audience, dev, clock(i.Now))
}

// IssueRefreshToken mints an opaque refresh token. When dev has no id the
// token's own id becomes the device id.
func (i *TokenIssuer) IssueRefreshToken(u domain.User, audience string, dev DeviceBinding) (domain.AuthToken, error) {
	return i.issueRefresh(u, audience, dev, clock(i.Now))
}

// IssuePair mints a refresh token and an access token bound to the same
// device. Nothing is persisted.
func (i *TokenIssuer) IssuePair(u domain.User, audience string, dev DeviceBinding) (access, refresh domain.AuthToken, err error) {
	now := clock(i.Now)

	refresh, err = i.issueRefresh(u, audience, dev, now)
	if err != nil {
		return domain.AuthToken{}, domain.AuthToken{}, err
	}

	dev.ID = refresh.DeviceID
	dev.LoginAt = refresh.LoginAt
	access, err = i.issueAccess(u, audience, dev, now)
	if err != nil {
		return domain.AuthToken{}, domain.AuthToken{}, err
	}
	return access, refresh, nil
}

// Rotate replaces old, a refresh token, with a new pair for the same device
// and audience. The new pair is inserted and old is revoked in one
// transaction; if old is no longer valid when the revoke runs the
// transaction rolls back and ErrInvalidToken is returned.
func (i *TokenIssuer) Rotate(
	ctx context.Context,
	st store.Store,
	old domain.AuthToken,
	u domain.User,
) (access, refresh domain.AuthToken, err error) {
	if old.Type != domain.TokenTypeRefresh {
		return domain.AuthToken{}, domain.AuthToken{}, ErrInvalidToken
	}

	now := clock(i.Now)
	if !old.IsValid(now) {
		return domain.AuthToken{}, domain.AuthToken{}, ErrInvalidToken
	}

	access, refresh, err = i.IssuePair(u, old.Audience, DeviceBinding{
		ID:      old.DeviceID,
		Name:    old.DeviceName,
		LoginAt: old.LoginAt,
	})
	if err != nil {
		return domain.AuthToken{}, domain.AuthToken{}, err
	}

	err = st.WithTx(ctx, func(tx store.Tx) error {
		if err := persistPair(ctx, tx.Tokens(), access, refresh); err != nil {
			return err
		}
		ok, err := tx.Tokens().RevokeTokenIfValid(ctx, old.ID, domain.RevokedByRotation, now)
		if err != nil {
			return fmt.Errorf("revoke rotated token: %w", err)
		}
		if !ok {
			return ErrInvalidToken
		}
		return nil
	})
	if err != nil {
		return domain.AuthToken{}, domain.AuthToken{}, err
	}
	return access, refresh, nil
}

func (i *TokenIssuer) issueAccess(u domain.User, audience string, dev DeviceBinding, now time.Time) (domain.AuthToken, error) {
	if dev.ID == "" {
		return domain.AuthToken{}, errors.New("access token requires a device")
	}

	id := idx.NewAt(now).String()
	claims := jwtx.NewAccessClaims(jwtx.AccessClaims{
		TokenID:  id,
		Subject:  u.ID,
		DeviceID: dev.ID,
		Role:     string(u.Role),
		Email:    u.Email,
	}, i.Policy.Issuer, audience, i.Policy.AccessTTL, now)

	value, err := i.Signer.Sign(claims)
	if err != nil {
		return domain.AuthToken{}, fmt.Errorf("sign access token: %w", err)
	}

	return domain.NewAuthToken(domain.AuthToken{
		ID:         id,
		UserID:     u.ID,
		DeviceID:   dev.ID,
		DeviceName: dev.Name,
		Audience:   audience,
		TokenValue: value,
		TokenHash:  cryptox.FingerprintToken(value),
		Type:       domain.TokenTypeAccess,
		CreatedAt:  now,
		ExpiresAt:  now.Add(i.Policy.AccessTTL),
		LoginAt:    dev.LoginAt,
	})
}

func (i *TokenIssuer) issueRefresh(u domain.User, audience string, dev DeviceBinding, now time.Time) (domain.AuthToken, error) {
	value, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.AuthToken{}, err
	}

	id := idx.NewAt(now).String()
	if dev.ID == "" {
		dev.ID = id
		dev.LoginAt = now
	}

	return domain.NewAuthToken(domain.AuthToken{
		ID:         id,
		UserID:     u.ID,
		DeviceID:   dev.ID,
		DeviceName: dev.Name,
		Audience:   audience,
		TokenValue: value,
		TokenHash:  cryptox.FingerprintToken(value),
		Type:       domain.TokenTypeRefresh,
		CreatedAt:  now,
		ExpiresAt:  now.Add(i.Policy.RefreshTTL),
		LoginAt:    dev.LoginAt,
	})
}

func persistPair(ctx context.Context, tokens store.Tokens, access, refresh domain.AuthToken) error {
	if err := tokens.CreateToken(ctx, refresh); err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	if err := tokens.CreateToken(ctx, access); err != nil {
		return fmt.Errorf("store access token: %w", err)
	}
	return nil
}
