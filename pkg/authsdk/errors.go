package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/sessiond/pkg/httpx"
)

// ============================================================================
// Error Codes
// ============================================================================

const (
	ErrorCodeInvalidRequest      = "invalid_request"
	ErrorCodeInvalidCredentials  = "invalid_credentials"
	ErrorCodeInvalidToken        = "invalid_token"
	ErrorCodeInvalidAudience     = "invalid_audience"
	ErrorCodeDeviceNotFound      = "device_not_found"
	ErrorCodeDeviceLimitExceeded = "device_limit_exceeded"
	ErrorCodeTooManyAttempts     = "too_many_attempts"
	ErrorCodeForbidden           = "forbidden"
	ErrorCodeServerError         = "server_error"
)

// ============================================================================
// APIError
// ============================================================================

// APIError is the error body every endpoint returns on failure.
// It is used by the server to write responses and by the client to
// represent them.
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Code is the machine readable error code (e.g., "invalid_token")
	Code string `json:"error"`

	// Description is a human-readable description of the error
	Description string `json:"error_description"`

	// RetryAfter, when positive, is sent as the Retry-After header (seconds).
	RetryAfter int `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes this APIError to an HTTP response writer.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	if e.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(e.RetryAfter))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:            e.Code,
		ErrorDescription: e.Description,
	})
}

// WithDescription returns a copy of e with a different description.
func (e *APIError) WithDescription(description string) *APIError {
	cp := *e
	cp.Description = description
	return &cp
}

// ============================================================================
// Predefined Errors
// ============================================================================

var (
	// ErrInvalidRequest is returned when the request body is malformed or a
	// required field is missing.
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "invalid request",
	}

	// ErrInvalidCredentials is returned for an unknown email or a wrong password.
	ErrInvalidCredentials = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidCredentials,
		Description: "invalid email or password",
	}

	// ErrInvalidToken is returned when a token is missing, malformed, expired or revoked.
	ErrInvalidToken = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidToken,
		Description: "the token is missing, invalid, expired or revoked",
	}

	// ErrInvalidAudience is returned when the client_id is not a configured audience.
	ErrInvalidAudience = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidAudience,
		Description: "client_id is not an accepted audience",
	}

	// ErrDeviceNotFound is returned when a device to evict or remove has no live session.
	ErrDeviceNotFound = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeDeviceNotFound,
		Description: "device not found or already signed out",
	}

	// ErrTooManyAttempts is returned while a login key is locked out.
	ErrTooManyAttempts = &APIError{
		StatusCode:  http.StatusTooManyRequests,
		Code:        ErrorCodeTooManyAttempts,
		Description: "too many failed login attempts",
	}

	// ErrForbidden is returned when the caller lacks the role for an operation.
	ErrForbidden = &APIError{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeForbidden,
		Description: "insufficient permissions",
	}

	// ErrServerError is returned when the server hit an unexpected condition.
	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}

	// ErrMethodNotAllowed is returned when the HTTP method is not allowed.
	ErrMethodNotAllowed = &APIError{
		StatusCode:  http.StatusMethodNotAllowed,
		Code:        ErrorCodeInvalidRequest,
		Description: "method not allowed",
	}
)

// NewAPIError creates a new APIError with the given status code, error code, and description.
func NewAPIError(statusCode int, code, description string) *APIError {
	return &APIError{
		StatusCode:  statusCode,
		Code:        code,
		Description: description,
	}
}

// ============================================================================
// Device Limit Error
// ============================================================================

// DeviceLimitError is returned with HTTP 409 Conflict when a login would
// exceed the per-user device limit. The caller retries the login with
// DeviceIDToRevoke set to one of ActiveDevices.
type DeviceLimitError struct {
	MaxDevices    int          `json:"max_devices"`
	ActiveDevices []DeviceJSON `json:"active_devices"`
}

// Error implements the error interface.
func (e *DeviceLimitError) Error() string {
	return fmt.Sprintf("device limit exceeded: %d of %d devices active", len(e.ActiveDevices), e.MaxDevices)
}

// WriteError writes the device limit payload as a 409 Conflict.
func (e *DeviceLimitError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusConflict)
	devices := e.ActiveDevices
	if devices == nil {
		devices = []DeviceJSON{}
	}
	_ = json.NewEncoder(w).Encode(DeviceLimitResponse{
		Error:            ErrorCodeDeviceLimitExceeded,
		ErrorDescription: "maximum number of devices reached; revoke one to continue",
		MaxDevices:       e.MaxDevices,
		ActiveDevices:    devices,
	})
}

// ============================================================================
// Error Parsing Helpers
// ============================================================================

// parseErrorResponse turns a non-2xx response into a typed error.
// Returns nil if the response indicates success (2xx status code).
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	if resp.StatusCode == http.StatusConflict {
		var limit DeviceLimitResponse
		if err := json.Unmarshal(body, &limit); err == nil && limit.Error == ErrorCodeDeviceLimitExceeded {
			return &DeviceLimitError{
				MaxDevices:    limit.MaxDevices,
				ActiveDevices: limit.ActiveDevices,
			}
		}
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		apiErr := &APIError{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
		if v, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			apiErr.RetryAfter = v
		}
		return apiErr
	}

	// Fallback: create generic error from status code
	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
