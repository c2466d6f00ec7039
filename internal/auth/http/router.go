package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/sessiond/internal/auth/service"
	"github.com/aussiebroadwan/sessiond/internal/auth/store"
	"github.com/aussiebroadwan/sessiond/pkg/httpx"
	"github.com/aussiebroadwan/sessiond/pkg/jwtx"
	"github.com/aussiebroadwan/sessiond/pkg/slogx"

	_ "github.com/aussiebroadwan/sessiond/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store    store.Store
	Sessions *service.SessionManager

	// Metrics serves /metrics when set.
	Metrics http.Handler
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	sessions *service.SessionManager,
	logger *slog.Logger,
	requestTimeout time.Duration,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		Sessions:     sessions,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.Timeout(requestTimeout),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSessions()
	r.registerDevices()
	r.registerAdmin()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			sessiond Session Service API
//	@version		0.1.0
//	@description	Login, refresh rotation, logout and device management for user sessions.
//	@description
//	@description				Access tokens are HS256 JWTs. Refresh tokens are opaque and single use.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/sessiond
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) authn() httpx.Middleware {
	return httpx.AuthnMiddleware(r.verifier, r.Sessions)
}

func (r *Router) registerSessions() {
	// Credential and token endpoints: strict limit by IP to slow brute force
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(&LoginHandler{Sessions: r.Sessions},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(&RefreshHandler{Sessions: r.Sessions},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(&LogoutHandler{Sessions: r.Sessions},
			r.authn(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// Resource servers call validate on every request they serve
	r.Mux.Handle("POST /v1/auth/validate",
		httpx.Chain(&ValidateHandler{Sessions: r.Sessions},
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerDevices() {
	h := &DevicesHandler{Sessions: r.Sessions}

	r.Mux.Handle("GET /v1/auth/devices",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			r.authn(),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("DELETE /v1/auth/devices/{deviceId}",
		httpx.Chain(http.HandlerFunc(h.HandleRevoke),
			r.authn(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerAdmin() {
	h := &AdminHandler{Sessions: r.Sessions}

	r.Mux.Handle("POST /v1/auth/revoke/{userId}",
		httpx.Chain(http.HandlerFunc(h.HandleRevokeUser),
			r.authn(),
			httpx.RequireRole("admin"),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/cleanup",
		httpx.Chain(http.HandlerFunc(h.HandleCleanup),
			r.authn(),
			httpx.RequireRole("admin"),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	h := &HealthHandler{Store: r.store, Version: r.buildVersion, Started: r.startTime}

	// Probes are polled by orchestrators, keep them on the lenient budget
	r.Mux.Handle("GET /livez",
		httpx.Chain(http.HandlerFunc(h.HandleLive),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(http.HandlerFunc(h.HandleReady),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	if r.Metrics != nil {
		r.Mux.Handle("GET /metrics", r.Metrics)
	}
}
