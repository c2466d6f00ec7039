package domain

import "time"

// LoginAttempt carries one login call. It is never persisted.
type LoginAttempt struct {
	Email            string
	Password         string
	DeviceIDToRevoke string // set on the second, eviction-confirming call
	ClientID         string // requested audience
	DeviceName       string
}

// AuthResponse is returned by a successful login or refresh.
type AuthResponse struct {
	User            User
	AccessToken     AuthToken
	RefreshToken    AuthToken
	AuthenticatedAt time.Time
	ExpiresIn       time.Duration // access token lifetime
}
