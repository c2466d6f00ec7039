package service

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/sessiond/internal/auth/domain"
	"github.com/aussiebroadwan/sessiond/internal/auth/store"
)

// DeviceRegistry derives a user's devices from their live refresh tokens.
type DeviceRegistry struct {
	Store store.Store
	Now   func() time.Time
}

func (r *DeviceRegistry) now() time.Time { return clock(r.Now) }

func (r *DeviceRegistry) ActiveDevices(ctx context.Context, userID string) ([]domain.Device, error) {
	tokens, err := r.Store.Tokens().ListActiveRefreshTokens(ctx, userID, r.now())
	if err != nil {
		return nil, fmt.Errorf("list active refresh tokens: %w", err)
	}

	devices := make([]domain.Device, 0, len(tokens))
	for _, t := range tokens {
		devices = append(devices, domain.DeviceFromToken(t))
	}
	return devices, nil
}

func (r *DeviceRegistry) CountActive(ctx context.Context, userID string) (int, error) {
	n, err := r.Store.Tokens().CountActiveRefreshTokens(ctx, userID, r.now())
	if err != nil {
		return 0, fmt.Errorf("count active refresh tokens: %w", err)
	}
	return n, nil
}

// RevokeDevice revokes the device's refresh token and its access tokens.
// Fails with ErrNotFound when the device has no live refresh token.
func (r *DeviceRegistry) RevokeDevice(ctx context.Context, userID, deviceID, revokedBy string) error {
	return r.Store.WithTx(ctx, func(tx store.Tx) error {
		return revokeDevice(ctx, tx.Tokens(), userID, deviceID, revokedBy, r.now())
	})
}

func revokeDevice(ctx context.Context, tokens store.Tokens, userID, deviceID, revokedBy string, now time.Time) error {
	if deviceID == "" {
		return ErrNotFound
	}
	n, err := tokens.RevokeDeviceTokens(ctx, userID, deviceID, revokedBy, now)
	if err != nil {
		return fmt.Errorf("revoke device tokens: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func clock(now func() time.Time) time.Time {
	if now != nil {
		return now().UTC()
	}
	return time.Now().UTC()
}
