package service

import (
	"errors"
	"fmt"

	"github.com/aussiebroadwan/sessiond/internal/auth/domain"
)

// Kind classifies session failures. Callers switch on the kind, not on the
// concrete error value.
type Kind int

const (
	// KindInternal covers storage and other infrastructure faults.
	KindInternal Kind = iota
	KindInvalidCredentials
	KindDeviceLimitExceeded
	KindInvalidToken
	KindInvalidAudience
	KindNotFound
	KindForbidden
	KindTooManyAttempts
)

func (k Kind) String() string {
	switch k {
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindDeviceLimitExceeded:
		return "device_limit_exceeded"
	case KindInvalidToken:
		return "invalid_token"
	case KindInvalidAudience:
		return "invalid_audience"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindTooManyAttempts:
		return "too_many_attempts"
	default:
		return "internal"
	}
}

// Error is a domain failure with its remediation payload.
type Error struct {
	Kind Kind
	Code string

	// Set for KindDeviceLimitExceeded.
	MaxDevices    int
	ActiveDevices []domain.Device

	// Set for KindTooManyAttempts.
	RetryAfterSeconds int
}

func (e *Error) Error() string {
	if e.Kind == KindDeviceLimitExceeded {
		return fmt.Sprintf("%s: %d of %d devices active", e.Code, len(e.ActiveDevices), e.MaxDevices)
	}
	return e.Code
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrInvalidToken)
// holds for payload-carrying variants too.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidCredentials  = &Error{Kind: KindInvalidCredentials, Code: "invalid_credentials"}
	ErrDeviceLimitExceeded = &Error{Kind: KindDeviceLimitExceeded, Code: "device_limit_exceeded"}
	ErrInvalidToken        = &Error{Kind: KindInvalidToken, Code: "invalid_token"}
	ErrInvalidAudience     = &Error{Kind: KindInvalidAudience, Code: "invalid_audience"}
	ErrNotFound            = &Error{Kind: KindNotFound, Code: "device_not_found"}
	ErrForbidden           = &Error{Kind: KindForbidden, Code: "forbidden"}
	ErrTooManyAttempts     = &Error{Kind: KindTooManyAttempts, Code: "too_many_attempts"}
)

// KindOf returns the kind of err, KindInternal for anything that is not a
// session error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func deviceLimitError(maxDevices int, devices []domain.Device) *Error {
	return &Error{
		Kind:          KindDeviceLimitExceeded,
		Code:          ErrDeviceLimitExceeded.Code,
		MaxDevices:    maxDevices,
		ActiveDevices: devices,
	}
}

func tooManyAttemptsError(retryAfterSeconds int) *Error {
	return &Error{
		Kind:              KindTooManyAttempts,
		Code:              ErrTooManyAttempts.Code,
		RetryAfterSeconds: retryAfterSeconds,
	}
}
