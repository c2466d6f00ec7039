package slogx_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/sessiond/pkg/slogx"
)

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestHTTPMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var sawLogger bool
	h := slogx.HTTPMiddleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawLogger = slogx.FromContext(r.Context()) != slog.Default()
		slogx.With(r.Context(), "user_id", "u-1")
		w.WriteHeader(http.StatusTeapot)
	}))

	t.Run("propagates request id", func(t *testing.T) {
		buf.Reset()
		req := httptest.NewRequest(http.MethodGet, "/v1/auth/devices", nil)
		req.Header.Set(slogx.RequestIDHeader, "req-123")
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		require.True(t, sawLogger)
		require.Equal(t, "req-123", rec.Header().Get(slogx.RequestIDHeader))

		entry := lastEntry(t, &buf)
		require.Equal(t, "req-123", entry["req_id"])
		require.EqualValues(t, http.StatusTeapot, entry["status"])
		require.Equal(t, "u-1", entry["user_id"])
		require.Equal(t, "INFO", entry["level"])
	})

	t.Run("generates request id when absent", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.NotEmpty(t, rec.Header().Get(slogx.RequestIDHeader))
	})

	t.Run("replaces unprintable request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(slogx.RequestIDHeader, "evil id\tinjected")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.NotEqual(t, "evil id\tinjected", rec.Header().Get(slogx.RequestIDHeader))
		require.Len(t, rec.Header().Get(slogx.RequestIDHeader), 26)
	})
}

func TestHTTPMiddleware_Levels(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	status := http.StatusOK
	h := slogx.HTTPMiddleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))

	tests := []struct {
		path   string
		status int
		want   string
	}{
		{"/livez", http.StatusOK, "DEBUG"},
		{"/readyz", http.StatusServiceUnavailable, "ERROR"},
		{"/v1/auth/login", http.StatusTooManyRequests, "WARN"},
		{"/v1/auth/login", http.StatusUnauthorized, "INFO"},
	}
	for _, tc := range tests {
		buf.Reset()
		status = tc.status
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tc.path, nil))
		require.Equal(t, tc.want, lastEntry(t, &buf)["level"], tc.path)
	}
}

func TestWith_OutsideRequest(t *testing.T) {
	ctx := slogx.With(context.Background(), "job", "housekeeping")
	require.NotSame(t, slog.Default(), slogx.FromContext(ctx))
}

func TestNew_RedactsSecrets(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := slogx.New(slogx.Config{Service: "sessiond", Output: &buf})
	logger.Info("login", "email", "ada@example.com", "password", "hunter2", "refresh_token", "abc")

	entry := lastEntry(t, &buf)
	require.Equal(t, "ada@example.com", entry["email"])
	require.Equal(t, "[REDACTED]", entry["password"])
	require.Equal(t, "[REDACTED]", entry["refresh_token"])
	require.Equal(t, "sessiond", entry["service"])
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, slogx.ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, slogx.ParseLevel("warning"))
	require.Equal(t, slog.LevelError, slogx.ParseLevel("error"))
	require.Equal(t, slog.LevelInfo, slogx.ParseLevel("bogus"))
}
