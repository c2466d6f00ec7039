package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/sessiond/pkg/authsdk"
	"github.com/aussiebroadwan/sessiond/pkg/httpx"
	"github.com/aussiebroadwan/sessiond/pkg/slogx"
)

const serviceName = "sessiond"

// pinger is the part of the token store the readiness probe needs.
type pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	Store   pinger
	Version string
	Started time.Time
}

func (h *HealthHandler) report(status string) authsdk.HealthResponse {
	return authsdk.HealthResponse{
		Service: serviceName,
		Status:  status,
		Uptime:  time.Since(h.Started).Truncate(time.Second).String(),
		Version: h.Version,
	}
}

// HandleLive godoc
//
//	@Summary		Liveness probe
//	@Description	Reports that the process is up. Never touches the token store.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version"
//	@Router			/livez [get].
func (h *HealthHandler) HandleLive(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.report("ok"))
}

// HandleReady godoc
//
//	@Summary		Readiness probe
//	@Description	Reports whether the token store answers a ping.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"store unreachable"
//	@Router			/readyz [get].
func (h *HealthHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	resp := h.report("ok")
	resp.Checks = &authsdk.HealthChecks{Database: "ok"}

	code := http.StatusOK
	if err := h.Store.Ping(r.Context()); err != nil {
		slogx.FromContext(r.Context()).Warn("token store ping failed", "err", err)
		resp.Status = "degraded"
		resp.Checks.Database = "error"
		code = http.StatusServiceUnavailable
	}
	httpx.WriteJSON(w, code, resp)
}
