package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/sessiond/pkg/jwtx"
	"github.com/aussiebroadwan/sessiond/pkg/slogx"
)

// TokenChecker reports whether a presented token is still live server-side
// (not revoked). A signature check alone cannot see revocations.
type TokenChecker interface {
	Validate(ctx context.Context, token string) (bool, error)
}

// AuthnMiddleware verifies the bearer JWT and, when check is non-nil, that the
// token has not been revoked.
func AuthnMiddleware(v jwtx.Verifier, check TokenChecker) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw, ok := BearerToken(r)
			if !ok {
				writeBearerError(w, "missing bearer token")
				return
			}

			claims, err := v.Verify(raw)
			if err != nil {
				log.Warn("jwt verify failed", "err", err)
				writeBearerError(w, "token verification failed")
				return
			}

			if check != nil {
				live, err := check.Validate(ctx, raw)
				if err != nil {
					log.Error("token liveness check failed", "err", err)
					WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
						"error":             "server_error",
						"error_description": "unable to verify token state",
					})
					return
				}
				if !live {
					writeBearerError(w, "token revoked")
					return
				}
			}

			ctx = contextWithAuth(ctx, claims)
			ctx = slogx.With(ctx, "user_id", claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	return raw, raw != ""
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteJSON(w, http.StatusUnauthorized, map[string]string{
		"error":             "invalid_token",
		"error_description": desc,
	})
}
