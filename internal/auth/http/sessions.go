package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/sessiond/internal/auth/domain"
	"github.com/aussiebroadwan/sessiond/internal/auth/service"
	"github.com/aussiebroadwan/sessiond/pkg/authsdk"
	"github.com/aussiebroadwan/sessiond/pkg/httpx"
	"github.com/aussiebroadwan/sessiond/pkg/slogx"
)

const (
	maxBodyBytes           = 16 << 10
	maxRefreshTokenLength  = 500
	maxValidateTokenLength = 8 << 10
)

// LoginHandler serves POST /v1/auth/login.
type LoginHandler struct {
	Sessions *service.SessionManager
}

// ServeHTTP godoc
//
//	@Summary		Log in
//	@Description	Authenticates with email and password and issues an access and refresh token pair.
//	@Description	When the user is at the device limit the call fails with 409 and lists the active devices;
//	@Description	repeat it with device_id_to_revoke to evict one of them.
//	@Tags			Sessions
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest		true	"Credentials"
//	@Success		200		{object}	authsdk.AuthResponse
//	@Failure		400		{object}	authsdk.ErrorResponse		"invalid_request, invalid_audience"
//	@Failure		401		{object}	authsdk.ErrorResponse		"invalid_credentials"
//	@Failure		404		{object}	authsdk.ErrorResponse		"device_not_found"
//	@Failure		409		{object}	authsdk.DeviceLimitResponse	"device_limit_exceeded"
//	@Failure		429		{object}	authsdk.ErrorResponse		"too_many_attempts"
//	@Header			429		{string}	Retry-After					"seconds until the lockout ends"
//	@Router			/v1/auth/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if err := httpx.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		authsdk.ErrInvalidRequest.WithDescription("malformed login body").WriteError(w)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		authsdk.ErrInvalidRequest.WithDescription("email and password are required").WriteError(w)
		return
	}

	resp, err := h.Sessions.Login(r.Context(), domain.LoginAttempt{
		Email:            req.Email,
		Password:         req.Password,
		DeviceIDToRevoke: req.DeviceIDToRevoke,
		ClientID:         req.ClientID,
		DeviceName:       req.DeviceName,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authResponseJSON(resp))
}

// RefreshHandler serves POST /v1/auth/refresh.
type RefreshHandler struct {
	Sessions *service.SessionManager
}

// ServeHTTP godoc
//
//	@Summary		Rotate a refresh token
//	@Description	Exchanges a refresh token for a new pair. The presented token is revoked; reusing it fails.
//	@Tags			Sessions
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RefreshRequest	true	"Refresh token"
//	@Success		200		{object}	authsdk.AuthResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"invalid_request"
//	@Failure		401		{object}	authsdk.ErrorResponse	"invalid_token"
//	@Router			/v1/auth/refresh [post].
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RefreshRequest
	if err := httpx.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		authsdk.ErrInvalidRequest.WithDescription("malformed refresh body").WriteError(w)
		return
	}
	if n := len(req.RefreshToken); n < domain.MinTokenValueLength || n > maxRefreshTokenLength {
		authsdk.ErrInvalidRequest.WithDescription("refresh_token must be 10 to 500 characters").WriteError(w)
		return
	}

	resp, err := h.Sessions.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authResponseJSON(resp))
}

// LogoutHandler serves POST /v1/auth/logout.
type LogoutHandler struct {
	Sessions *service.SessionManager
}

// ServeHTTP godoc
//
//	@Summary		Log out
//	@Description	Revokes the device owning refresh_token, or every device with logout_all_devices.
//	@Description	Unknown or already revoked tokens are accepted silently.
//	@Tags			Sessions
//	@Accept			json
//	@Param			request	body	authsdk.LogoutRequest	false	"Logout options"
//	@Success		204		"Logged out"
//	@Failure		401		{object}	authsdk.ErrorResponse	"invalid_token"
//	@Security		BearerAuth
//	@Router			/v1/auth/logout [post].
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LogoutRequest
	if err := httpx.DecodeJSON(w, r, maxBodyBytes, &req); err != nil && !errors.Is(err, io.EOF) {
		authsdk.ErrInvalidRequest.WithDescription("malformed logout body").WriteError(w)
		return
	}

	err := h.Sessions.Logout(r.Context(), service.LogoutRequest{
		UserID:       httpx.UserIDFromContext(r.Context()),
		RefreshToken: req.RefreshToken,
		AllDevices:   req.LogoutAllDevices,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}

// ValidateHandler serves POST /v1/auth/validate.
type ValidateHandler struct {
	Sessions *service.SessionManager
}

// ServeHTTP godoc
//
//	@Summary		Validate a token
//	@Description	Reports whether the body is a live access or refresh token. The body is the raw token;
//	@Description	a JSON string is accepted too.
//	@Tags			Sessions
//	@Accept			plain
//	@Produce		json
//	@Param			token	body		string	true	"Token value"
//	@Success		200		{object}	authsdk.ValidateResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"invalid_request"
//	@Router			/v1/auth/validate [post].
func (h *ValidateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxValidateTokenLength))
	if err != nil {
		authsdk.ErrInvalidRequest.WithDescription("token too large").WriteError(w)
		return
	}

	token := string(bytes.TrimSpace(body))
	if strings.HasPrefix(token, `"`) {
		if err := json.Unmarshal([]byte(token), &token); err != nil {
			authsdk.ErrInvalidRequest.WithDescription("malformed token string").WriteError(w)
			return
		}
	}

	if token == "" {
		httpx.WriteJSON(w, http.StatusOK, authsdk.ValidateResponse{Valid: false})
		return
	}

	valid, err := h.Sessions.Validate(r.Context(), token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if !valid {
		slogx.FromContext(r.Context()).Debug("validate: token rejected")
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.ValidateResponse{Valid: valid})
}
