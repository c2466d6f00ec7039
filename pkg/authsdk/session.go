package authsdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// ErrNoRefreshToken is returned when the access token expired and the
// session holds no refresh token to rotate.
var ErrNoRefreshToken = errors.New("access token expired and no refresh token available")

// Session represents an authenticated session with automatic token refresh.
// All Session methods automatically handle token expiration and refresh when needed.
type Session struct {
	client *SDKClient

	mu           sync.RWMutex
	user         UserJSON
	accessToken  string
	refreshToken string
	expiresAt    time.Time
}

// newSession creates a new authenticated session from a login or refresh response.
func newSession(client *SDKClient, resp *AuthResponse) *Session {
	return &Session{
		client:       client,
		user:         resp.User,
		accessToken:  resp.AccessToken.Token,
		refreshToken: resp.RefreshToken.Token,
		expiresAt:    expiryWithBuffer(resp.ExpiresIn),
	}
}

// expiryWithBuffer refreshes 30 seconds before the server-side expiry.
func expiryWithBuffer(expiresIn int) time.Time {
	return time.Now().Add(time.Duration(expiresIn)*time.Second - 30*time.Second)
}

// getValidToken returns a valid access token, automatically refreshing if expired.
func (s *Session) getValidToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	if time.Now().Before(s.expiresAt) {
		token := s.accessToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock (another goroutine may have refreshed)
	if time.Now().Before(s.expiresAt) {
		return s.accessToken, nil
	}

	if s.refreshToken == "" {
		return "", ErrNoRefreshToken
	}

	resp, err := s.client.Refresh(ctx, s.refreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh token: %w", err)
	}

	s.user = resp.User
	s.accessToken = resp.AccessToken.Token
	s.refreshToken = resp.RefreshToken.Token
	s.expiresAt = expiryWithBuffer(resp.ExpiresIn)

	return s.accessToken, nil
}

// AccessToken returns the current access token without checking expiration.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// User returns the user the session was issued for.
func (s *Session) User() UserJSON {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// ============================================================================
// Device Operations
// ============================================================================

// Logout signs this device out. The session is unusable afterwards.
func (s *Session) Logout(ctx context.Context) error {
	return s.logout(ctx, false)
}

// LogoutAllDevices signs every device of the user out.
func (s *Session) LogoutAllDevices(ctx context.Context) error {
	return s.logout(ctx, true)
}

func (s *Session) logout(ctx context.Context, all bool) error {
	err := s.do(ctx, call{
		method: http.MethodPost,
		path:   "/v1/auth/logout",
		body:   LogoutRequest{RefreshToken: s.RefreshToken(), LogoutAllDevices: all},
		want:   http.StatusNoContent,
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.accessToken = ""
	s.refreshToken = ""
	s.expiresAt = time.Time{}
	s.mu.Unlock()
	return nil
}

// Devices lists the user's logged-in devices.
func (s *Session) Devices(ctx context.Context) (*DevicesResponse, error) {
	var out DevicesResponse
	err := s.do(ctx, call{method: http.MethodGet, path: "/v1/auth/devices", want: http.StatusOK, out: &out})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RevokeDevice signs out one of the user's devices.
func (s *Session) RevokeDevice(ctx context.Context, deviceID string) error {
	return s.do(ctx, call{
		method: http.MethodDelete,
		path:   "/v1/auth/devices/" + url.PathEscape(deviceID),
		want:   http.StatusNoContent,
	})
}

// ============================================================================
// Admin Operations
// ============================================================================

// RevokeUserTokens revokes every token of userID. Requires the admin role.
func (s *Session) RevokeUserTokens(ctx context.Context, userID string) error {
	return s.do(ctx, call{
		method: http.MethodPost,
		path:   "/v1/auth/revoke/" + url.PathEscape(userID),
		want:   http.StatusNoContent,
	})
}

// CleanupExpiredTokens triggers a cleanup run. Requires the admin role.
func (s *Session) CleanupExpiredTokens(ctx context.Context) error {
	return s.do(ctx, call{method: http.MethodPost, path: "/v1/auth/cleanup", want: http.StatusNoContent})
}
