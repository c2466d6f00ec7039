package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/aussiebroadwan/sessiond/internal/auth/domain"
	"github.com/aussiebroadwan/sessiond/internal/auth/service"
	"github.com/aussiebroadwan/sessiond/pkg/authsdk"
	"github.com/aussiebroadwan/sessiond/pkg/slogx"
)

// writeServiceError maps a session error to its HTTP response. Anything
// that is not a session error is a server fault and is logged, never
// reported as an authentication failure.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var se *service.Error
	_ = errors.As(err, &se)

	switch service.KindOf(err) {
	case service.KindInvalidCredentials:
		authsdk.ErrInvalidCredentials.WriteError(w)
	case service.KindDeviceLimitExceeded:
		(&authsdk.DeviceLimitError{
			MaxDevices:    se.MaxDevices,
			ActiveDevices: devicesJSON(se.ActiveDevices),
		}).WriteError(w)
	case service.KindInvalidToken:
		authsdk.ErrInvalidToken.WriteError(w)
	case service.KindInvalidAudience:
		authsdk.ErrInvalidAudience.WriteError(w)
	case service.KindNotFound:
		authsdk.ErrDeviceNotFound.WriteError(w)
	case service.KindForbidden:
		authsdk.ErrForbidden.WriteError(w)
	case service.KindTooManyAttempts:
		e := *authsdk.ErrTooManyAttempts
		e.RetryAfter = se.RetryAfterSeconds
		e.WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
	}
}

func devicesJSON(devices []domain.Device) []authsdk.DeviceJSON {
	out := make([]authsdk.DeviceJSON, 0, len(devices))
	for _, d := range devices {
		out = append(out, authsdk.DeviceJSON{
			DeviceID:     d.ID,
			DeviceName:   d.Name,
			LoginDate:    d.LoginDate,
			LastActivity: d.LastActivity,
		})
	}
	return out
}

func tokenJSON(t domain.AuthToken, now time.Time) authsdk.TokenJSON {
	typ := authsdk.TokenTypeRefresh
	if t.Type == domain.TokenTypeAccess {
		typ = authsdk.TokenTypeBearer
	}
	return authsdk.TokenJSON{
		Token:     t.TokenValue,
		Type:      typ,
		ExpiresAt: t.ExpiresAt,
		CreatedAt: t.CreatedAt,
		IsExpired: t.IsExpired(now),
	}
}

func authResponseJSON(resp domain.AuthResponse) authsdk.AuthResponse {
	now := time.Now()
	return authsdk.AuthResponse{
		User: authsdk.UserJSON{
			ID:          resp.User.ID,
			Email:       resp.User.Email,
			DisplayName: resp.User.DisplayName,
			Role:        string(resp.User.Role),
		},
		AccessToken:     tokenJSON(resp.AccessToken, now),
		RefreshToken:    tokenJSON(resp.RefreshToken, now),
		AuthenticatedAt: resp.AuthenticatedAt,
		ExpiresIn:       int(resp.ExpiresIn.Seconds()),
	}
}
