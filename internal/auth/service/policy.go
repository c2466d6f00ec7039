package service

import (
	"errors"
	"fmt"
	"time"
)

// Policy holds the process-wide session settings. It is built once at
// startup and handed to the SessionManager.
type Policy struct {
	Issuer    string
	Audiences []string // first entry is the default audience

	AccessTTL  time.Duration
	RefreshTTL time.Duration
	MaxDevices int

	// Expired tokens are purged once they are older than TokenRetention.
	TokenRetention   time.Duration
	CleanupBatchSize int
}

func DefaultPolicy() Policy {
	return Policy{
		Issuer:           "sessiond",
		Audiences:        []string{"web", "mobile", "extension"},
		AccessTTL:        15 * time.Minute,
		RefreshTTL:       7 * 24 * time.Hour,
		MaxDevices:       3,
		CleanupBatchSize: 500,
	}
}

func (p Policy) Validate() error {
	var errs []error
	if len(p.Audiences) == 0 {
		errs = append(errs, errors.New("at least one audience is required"))
	}
	for i, a := range p.Audiences {
		if a == "" {
			errs = append(errs, fmt.Errorf("audience %d is empty", i))
		}
	}
	if p.AccessTTL <= 0 {
		errs = append(errs, errors.New("access token ttl must be positive"))
	}
	if p.RefreshTTL <= 0 {
		errs = append(errs, errors.New("refresh token ttl must be positive"))
	}
	if p.MaxDevices < 1 {
		errs = append(errs, errors.New("max devices must be at least 1"))
	}
	if p.TokenRetention < 0 {
		errs = append(errs, errors.New("token retention cannot be negative"))
	}
	if p.CleanupBatchSize < 1 {
		errs = append(errs, errors.New("cleanup batch size must be at least 1"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid session policy: %w", err)
	}
	return nil
}
