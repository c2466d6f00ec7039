package jwtx

import (
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the access-token claims. Additive changes only, downstream
// services decode these.
type Claims struct {
	jwt.RegisteredClaims

	// SID is the device (session) the token was issued to. It stays stable
	// across refresh rotations.
	SID string `json:"sid,omitempty"`

	// Role of the subject at issuance, "admin" or "user".
	Role string `json:"role,omitempty"`

	Email string `json:"email,omitempty"`
}

// AccessClaims describes who an access token is for.
type AccessClaims struct {
	TokenID  string // becomes jti, the store id of the token row
	Subject  string
	DeviceID string
	Role     string
	Email    string
}

// NewAccessClaims builds the claims for an access token bound to a single
// audience and valid for ttl from now.
func NewAccessClaims(c AccessClaims, issuer, audience string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   c.Subject,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        c.TokenID,
		},
		SID:   c.DeviceID,
		Role:  c.Role,
		Email: c.Email,
	}
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateAudience checks if at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil
	}
	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}
	return ErrAudience
}

// ValidateExpiry checks exp and nbf against now, allowing leeway for clock skew.
func (c *Claims) ValidateExpiry(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}
	return nil
}
