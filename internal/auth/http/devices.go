package http

import (
	"net/http"

	"github.com/aussiebroadwan/sessiond/internal/auth/service"
	"github.com/aussiebroadwan/sessiond/pkg/authsdk"
	"github.com/aussiebroadwan/sessiond/pkg/httpx"
)

// DevicesHandler lists and removes the caller's devices.
type DevicesHandler struct {
	Sessions *service.SessionManager
}

// HandleList godoc
//
//	@Summary		List devices
//	@Description	Lists the caller's logged-in devices, oldest login first.
//	@Tags			Devices
//	@Produce		json
//	@Success		200	{object}	authsdk.DevicesResponse
//	@Failure		401	{object}	authsdk.ErrorResponse	"invalid_token"
//	@Security		BearerAuth
//	@Router			/v1/auth/devices [get].
func (h *DevicesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	devices, err := h.Sessions.ActiveDevices(r.Context(), httpx.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := devicesJSON(devices)
	current := httpx.DeviceIDFromContext(r.Context())
	for i := range out {
		out[i].Current = out[i].DeviceID == current
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.DevicesResponse{
		MaxDevices:    h.Sessions.Policy.MaxDevices,
		ActiveDevices: out,
	})
}

// HandleRevoke godoc
//
//	@Summary		Remove a device
//	@Description	Signs out one of the caller's devices.
//	@Tags			Devices
//	@Param			deviceId	path	string	true	"Device ID"
//	@Success		204			"Device signed out"
//	@Failure		401			{object}	authsdk.ErrorResponse	"invalid_token"
//	@Failure		404			{object}	authsdk.ErrorResponse	"device_not_found"
//	@Security		BearerAuth
//	@Router			/v1/auth/devices/{deviceId} [delete].
func (h *DevicesHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	deviceID := r.PathValue("deviceId")
	if deviceID == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.Sessions.RevokeDevice(r.Context(), httpx.UserIDFromContext(r.Context()), deviceID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}
