package auth_test

import (
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/sessiond/pkg/authsdk"
)

// TestLoginRefreshRotation covers login, a refresh, and the rejection of a
// replayed refresh token.
func TestLoginRefreshRotation(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)

	login, err := client.Login(t.Context(), authsdk.LoginRequest{
		Email:      adminEmail,
		Password:   adminPassword,
		DeviceName: "laptop",
	})
	require.NoError(t, err)
	require.Equal(t, authsdk.TokenTypeBearer, login.AccessToken.Type)
	require.Equal(t, authsdk.TokenTypeRefresh, login.RefreshToken.Type)
	require.Equal(t, "admin", login.User.Role)

	rotated, err := client.Refresh(t.Context(), login.RefreshToken.Token)
	require.NoError(t, err)
	require.NotEqual(t, login.AccessToken.Token, rotated.AccessToken.Token, "Access token should be rotated")
	require.NotEqual(t, login.RefreshToken.Token, rotated.RefreshToken.Token, "Refresh token should be rotated")

	_, err = client.Refresh(t.Context(), login.RefreshToken.Token)
	assertUnauthorized(t, err)

	valid, err := client.Validate(t.Context(), login.RefreshToken.Token)
	require.NoError(t, err)
	require.False(t, valid, "consumed refresh token should be invalid")

	valid, err = client.Validate(t.Context(), rotated.AccessToken.Token)
	require.NoError(t, err)
	require.True(t, valid)
}

// TestConcurrentRefresh races several rotations of one refresh token.
// Exactly one may succeed.
func TestConcurrentRefresh(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	session := loginAdmin(t, client, "laptop")
	token := session.RefreshToken()

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := client.Refresh(t.Context(), token); err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, success)
}

// TestLogout signs one device out and then every device.
func TestLogout(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	laptop := loginAdmin(t, client, "laptop")
	phone := loginAdmin(t, client, "phone")
	laptopRefresh := laptop.RefreshToken()

	require.NoError(t, laptop.Logout(t.Context()))
	_, err := client.Refresh(t.Context(), laptopRefresh)
	assertUnauthorized(t, err)

	devices, err := phone.Devices(t.Context())
	require.NoError(t, err)
	require.Len(t, devices.ActiveDevices, 1)

	phoneRefresh := phone.RefreshToken()
	require.NoError(t, phone.LogoutAllDevices(t.Context()))
	_, err = client.Refresh(t.Context(), phoneRefresh)
	assertUnauthorized(t, err)
}

// TestRefreshRequestValidation checks the refresh token length bounds.
func TestRefreshRequestValidation(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)

	_, err := client.Refresh(t.Context(), "short")
	assertAPIError(t, err, http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest)
}
