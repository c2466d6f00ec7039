package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the sessiond authentication service.
// It provides access to unauthenticated operations and can create authenticated Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client

	// ClientID is sent with every login and selects the token audience.
	// Empty uses the server's default audience.
	ClientID string
}

// NewSDKClient creates a new auth service client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// AuthenticateWithPassword logs in and wraps the issued pair in a Session.
// When the account is at its device limit the returned error is a
// *DeviceLimitError; retry with AuthenticateEvictingDevice.
func (c *SDKClient) AuthenticateWithPassword(ctx context.Context, email, password, deviceName string) (*Session, error) {
	resp, err := c.Login(ctx, LoginRequest{
		Email:      email,
		Password:   password,
		ClientID:   c.ClientID,
		DeviceName: deviceName,
	})
	if err != nil {
		return nil, err
	}
	return newSession(c, resp), nil
}

// AuthenticateEvictingDevice logs in while signing out deviceID.
func (c *SDKClient) AuthenticateEvictingDevice(ctx context.Context, email, password, deviceName, deviceID string) (*Session, error) {
	resp, err := c.Login(ctx, LoginRequest{
		Email:            email,
		Password:         password,
		ClientID:         c.ClientID,
		DeviceName:       deviceName,
		DeviceIDToRevoke: deviceID,
	})
	if err != nil {
		return nil, err
	}
	return newSession(c, resp), nil
}

// AuthenticateWithRefreshToken creates an authenticated session from an existing refresh token.
// The presented token is consumed by the rotation.
func (c *SDKClient) AuthenticateWithRefreshToken(ctx context.Context, refreshToken string) (*Session, error) {
	resp, err := c.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return newSession(c, resp), nil
}

// NewSessionFromTokens creates an authenticated session from existing tokens.
// The session will still perform auto-refresh when the access token expires.
func (c *SDKClient) NewSessionFromTokens(accessToken, refreshToken string, expiresIn int) *Session {
	return &Session{
		client:       c,
		accessToken:  accessToken,
		refreshToken: refreshToken,
		expiresAt:    expiryWithBuffer(expiresIn),
	}
}
