package http

import (
	"net/http"

	"github.com/aussiebroadwan/sessiond/internal/auth/service"
	"github.com/aussiebroadwan/sessiond/pkg/authsdk"
	"github.com/aussiebroadwan/sessiond/pkg/httpx"
	"github.com/aussiebroadwan/sessiond/pkg/slogx"
)

// AdminHandler serves the admin-only session operations.
type AdminHandler struct {
	Sessions *service.SessionManager
}

// HandleRevokeUser godoc
//
//	@Summary		Revoke all tokens of a user
//	@Description	Signs the user out of every device. Requires the admin role.
//	@Tags			Admin
//	@Param			userId	path	string	true	"User ID"
//	@Success		204		"Tokens revoked"
//	@Failure		401		{object}	authsdk.ErrorResponse	"invalid_token"
//	@Failure		403		{object}	authsdk.ErrorResponse	"forbidden"
//	@Security		BearerAuth
//	@Router			/v1/auth/revoke/{userId} [post].
func (h *AdminHandler) HandleRevokeUser(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	if userID == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	revokedBy := httpx.UserIDFromContext(r.Context())
	if claims, ok := httpx.ClaimsFromContext(r.Context()); ok && claims.Email != "" {
		revokedBy = claims.Email
	}

	if err := h.Sessions.RevokeUserTokens(r.Context(), userID, revokedBy); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleCleanup godoc
//
//	@Summary		Delete expired tokens
//	@Description	Runs token cleanup now. Joins a run already in progress. Requires the admin role.
//	@Tags			Admin
//	@Success		204	"Cleanup finished"
//	@Failure		401	{object}	authsdk.ErrorResponse	"invalid_token"
//	@Failure		403	{object}	authsdk.ErrorResponse	"forbidden"
//	@Security		BearerAuth
//	@Router			/v1/auth/cleanup [post].
func (h *AdminHandler) HandleCleanup(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.Sessions.CleanupExpiredTokens(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	slogx.FromContext(r.Context()).Info("cleanup requested", "deleted", deleted)
	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}
