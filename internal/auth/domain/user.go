package domain

import (
	"strings"
	"time"
)

type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string // argon2id encoded
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizeEmail trims and lowercases an email for lookup and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
