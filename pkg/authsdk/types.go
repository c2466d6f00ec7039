package authsdk

import "time"

// ============================================================================
// Internal Response Types (used for JSON unmarshaling)
// ============================================================================

// ErrorResponse is the JSON body of every error response.
// Client code should use the APIError type from errors.go instead.
type ErrorResponse struct {
	// Error is the machine readable error code (e.g., "invalid_token")
	Error string `json:"error"`

	// ErrorDescription is a human-readable description of the error
	ErrorDescription string `json:"error_description"`
}

// DeviceLimitResponse is the 409 body returned by login when the device
// limit is reached.
type DeviceLimitResponse struct {
	Error            string       `json:"error"`
	ErrorDescription string       `json:"error_description"`
	MaxDevices       int          `json:"max_devices"`
	ActiveDevices    []DeviceJSON `json:"active_devices"`
}

// ============================================================================
// Session Types
// ============================================================================

// Token type labels used in TokenJSON.Type.
const (
	TokenTypeBearer  = "Bearer"
	TokenTypeRefresh = "refresh"
)

// LoginRequest is the body of POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`

	// DeviceIDToRevoke evicts a device while logging in. Set it after a
	// device_limit_exceeded response.
	DeviceIDToRevoke string `json:"device_id_to_revoke,omitempty"`

	// ClientID selects the token audience; empty means the default audience.
	ClientID string `json:"client_id,omitempty"`

	// DeviceName labels the new device in device listings.
	DeviceName string `json:"device_name,omitempty"`
}

// RefreshRequest is the body of POST /v1/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LogoutRequest is the body of POST /v1/auth/logout.
type LogoutRequest struct {
	RefreshToken     string `json:"refresh_token,omitempty"`
	LogoutAllDevices bool   `json:"logout_all_devices"`
}

// TokenJSON is an issued token as returned to the caller.
type TokenJSON struct {
	// Token is the raw token value. It is only ever returned here.
	Token string `json:"token"`

	// Type is "Bearer" for access tokens and "refresh" for refresh tokens
	Type string `json:"type"`

	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	IsExpired bool      `json:"is_expired"`
}

// UserJSON is the public view of the authenticated user.
type UserJSON struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	Role        string `json:"role"`
}

// AuthResponse is returned by login and refresh.
type AuthResponse struct {
	User            UserJSON  `json:"user"`
	AccessToken     TokenJSON `json:"access_token"`
	RefreshToken    TokenJSON `json:"refresh_token"`
	AuthenticatedAt time.Time `json:"authenticated_at"`

	// ExpiresIn is the access token lifetime in seconds
	ExpiresIn int `json:"expires_in"`
}

// ValidateResponse is returned by POST /v1/auth/validate.
type ValidateResponse struct {
	Valid bool `json:"valid"`
}

// ============================================================================
// Device Types
// ============================================================================

// DeviceJSON describes one logged-in device.
type DeviceJSON struct {
	DeviceID     string    `json:"device_id"`
	DeviceName   string    `json:"device_name"`
	LoginDate    time.Time `json:"login_date"`
	LastActivity time.Time `json:"last_activity"`

	// Current marks the device the listing request was made from.
	Current bool `json:"current,omitempty"`
}

// DevicesResponse is returned by GET /v1/auth/devices.
type DevicesResponse struct {
	MaxDevices    int          `json:"max_devices"`
	ActiveDevices []DeviceJSON `json:"active_devices"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse is returned by /livez and /readyz. Only /readyz fills Checks.
type HealthResponse struct {
	// Service is always "sessiond".
	Service string `json:"service"`

	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results for critical dependencies (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks represents the status of critical service dependencies.
type HealthChecks struct {
	// Database indicates the database connection status
	Database string `json:"database"`
}
