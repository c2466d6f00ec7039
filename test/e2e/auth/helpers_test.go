package auth_test

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aussiebroadwan/sessiond/pkg/authsdk"
)

/*
 * Common constants and helper functions for session service end-to-end tests.
 * This includes container setup, service operations, and assertions.
 */

const (
	testImageName = "sessiond-test:latest"

	adminEmail    = "admin@example.com"
	adminPassword = "Admin123!"
	jwtSecret     = "e2e-secret-0123456789abcdef0123456789"
	maxDevices    = 2
)

// TestMain manages the test lifecycle, builds the Docker image once before
// all tests and cleans it up after all tests complete.
func TestMain(m *testing.M) {
	if _, err := exec.LookPath("docker"); err != nil {
		fmt.Fprintln(os.Stdout, "docker not available, skipping e2e tests")
		os.Exit(0)
	}

	fmt.Fprintf(os.Stdout, "Building session service Docker image...")
	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up session service Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

// buildDockerImage builds the test Docker image.
func buildDockerImage() error {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/auth/Dockerfile",
		"../../../")
	cmd.Dir = "."
	cmd.Stdout = os.Stdout
	cmd.Stderr = nil

	return cmd.Run()
}

// cleanupDockerImage removes the test Docker image.
func cleanupDockerImage() {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // Ignore errors - image might not exist
}

func baseEnv() map[string]string {
	return map[string]string{
		"AUTH_JWT_SECRET":     jwtSecret,
		"AUTH_ADMIN_EMAIL":    adminEmail,
		"AUTH_ADMIN_PASSWORD": adminPassword,
		"AUTH_MAX_DEVICES":    fmt.Sprint(maxDevices),
		"AUTH_ISSUER":         "sessiond-e2e",
		"ENV":                 "test",
		"LOG_LEVEL":           "info",
		"LOG_FORMAT":          "json",
	}
}

// relaxedRateLimits raises the limits so tests making many rapid requests
// do not trip the production profiles.
func relaxedRateLimits() map[string]string {
	return map[string]string{
		"RATELIMIT_STRICT_REQUESTS":   "1000",
		"RATELIMIT_STRICT_WINDOW_SEC": "60",
		"RATELIMIT_STRICT_BURST":      "1000",
		"RATELIMIT_MODERATE_REQUESTS": "1000",
		"RATELIMIT_MODERATE_BURST":    "1000",
	}
}

// startContainer runs the service image with env and returns its base URL.
func startContainer(t *testing.T, env map[string]string) (string, func()) {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"8080/tcp"},
		Env:          env,
		WaitingFor: wait.ForHTTP("/readyz").
			WithPort("8080/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	baseURL := fmt.Sprintf("http://%s:%s", host, mappedPort.Port())

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return baseURL, cleanup
}

// setupAuthContainer starts the service with relaxed rate limits.
func setupAuthContainer(t *testing.T) (string, func()) {
	t.Helper()
	env := baseEnv()
	maps.Copy(env, relaxedRateLimits())
	return startContainer(t, env)
}

// setupAuthContainerWithEnv starts the service with relaxed rate limits and
// extra settings.
func setupAuthContainerWithEnv(t *testing.T, extra map[string]string) (string, func()) {
	t.Helper()
	env := baseEnv()
	maps.Copy(env, relaxedRateLimits())
	maps.Copy(env, extra)
	return startContainer(t, env)
}

// setupAuthContainerWithDefaultRateLimits starts the service with the
// production rate limits. Only rate limit tests should use this.
func setupAuthContainerWithDefaultRateLimits(t *testing.T) (string, func()) {
	t.Helper()
	return startContainer(t, baseEnv())
}

// loginAdmin logs the seeded admin in on a fresh device.
func loginAdmin(t *testing.T, client *authsdk.SDKClient, device string) *authsdk.Session {
	t.Helper()
	session, err := client.AuthenticateWithPassword(t.Context(), adminEmail, adminPassword, device)
	require.NoError(t, err, "admin login should succeed")
	require.NotNil(t, session)
	return session
}

// assertAPIError checks that err is an APIError with the given status and code.
func assertAPIError(t *testing.T, err error, status int, code string) {
	t.Helper()
	require.Error(t, err)
	var apiErr *authsdk.APIError
	require.True(t, errors.As(err, &apiErr), "expected *authsdk.APIError, got %T: %v", err, err)
	require.Equal(t, status, apiErr.StatusCode)
	require.Equal(t, code, apiErr.Code)
}

// assertUnauthorized checks that err is a 401 invalid_token.
func assertUnauthorized(t *testing.T, err error) {
	t.Helper()
	assertAPIError(t, err, http.StatusUnauthorized, authsdk.ErrorCodeInvalidToken)
}

// assertHealthy verifies a health check response is OK.
func assertHealthy(t *testing.T, health *authsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}
