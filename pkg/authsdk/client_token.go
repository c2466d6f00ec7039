package authsdk

import (
	"context"
	"net/http"
	"strings"
)

// Login performs POST /v1/auth/login.
func (c *SDKClient) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/v1/auth/login",
		body:   req,
		want:   http.StatusOK,
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// single use: a second call with the same value fails with invalid_token.
func (c *SDKClient) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/v1/auth/refresh",
		body:   RefreshRequest{RefreshToken: refreshToken},
		want:   http.StatusOK,
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Validate reports whether token is a live access or refresh token.
func (c *SDKClient) Validate(ctx context.Context, token string) (bool, error) {
	var out ValidateResponse
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/v1/auth/validate",
		raw:    strings.NewReader(token),
		want:   http.StatusOK,
		out:    &out,
	})
	if err != nil {
		return false, err
	}
	return out.Valid, nil
}
