package httpx

import (
	"context"

	"github.com/aussiebroadwan/sessiond/pkg/jwtx"
)

type claimsKey struct{}

func contextWithAuth(ctx context.Context, c jwtx.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// ClaimsFromContext returns the verified access-token claims.
func ClaimsFromContext(ctx context.Context) (jwtx.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(jwtx.Claims)
	return c, ok
}

// UserIDFromContext returns the authenticated subject, or "" when the request
// did not pass through AuthnMiddleware.
func UserIDFromContext(ctx context.Context) string {
	c, _ := ClaimsFromContext(ctx)
	return c.Subject
}

// DeviceIDFromContext returns the device the caller's access token was
// issued to.
func DeviceIDFromContext(ctx context.Context) string {
	c, _ := ClaimsFromContext(ctx)
	return c.SID
}

func roleFromCtx(ctx context.Context) string {
	c, _ := ClaimsFromContext(ctx)
	return c.Role
}
