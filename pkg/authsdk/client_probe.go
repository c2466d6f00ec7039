package authsdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrNotReady is returned by Readiness when the service answers 503.
var ErrNotReady = errors.New("authsdk: service not ready")

// Liveness calls GET /livez.
func (c *SDKClient) Liveness(ctx context.Context) (*HealthResponse, error) {
	health, code, err := c.probe(ctx, "/livez")
	if err != nil {
		return nil, err
	}
	if code != http.StatusOK {
		return nil, fmt.Errorf("livez: unexpected status %d", code)
	}
	return health, nil
}

// Readiness calls GET /readyz. A 503 still returns the decoded report so
// callers can see which check failed, together with ErrNotReady.
func (c *SDKClient) Readiness(ctx context.Context) (*HealthResponse, error) {
	health, code, err := c.probe(ctx, "/readyz")
	if err != nil {
		return nil, err
	}
	switch code {
	case http.StatusOK:
		return health, nil
	case http.StatusServiceUnavailable:
		return health, ErrNotReady
	default:
		return nil, fmt.Errorf("readyz: unexpected status %d", code)
	}
}

func (c *SDKClient) probe(ctx context.Context, path string) (*HealthResponse, int, error) {
	resp, body, err := c.send(ctx, call{method: http.MethodGet, path: path})
	if err != nil {
		return nil, 0, err
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return nil, resp.StatusCode, parseErrorResponse(resp, body)
	}

	var health HealthResponse
	if err := json.Unmarshal(body, &health); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return &health, resp.StatusCode, nil
}
