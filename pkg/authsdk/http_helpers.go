package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxResponseBytes bounds how much of a response body the SDK reads.
const maxResponseBytes = 1 << 20

// call describes one round trip to the service.
type call struct {
	method string
	path   string

	// body is sent as JSON when non-nil. raw, when set, is sent verbatim
	// as text/plain instead.
	body any
	raw  io.Reader

	bearer string

	// want is the success status; out, when non-nil, receives the body.
	want int
	out  any
}

func (c *SDKClient) newRequest(ctx context.Context, cl call) (*http.Request, error) {
	var (
		body        io.Reader
		contentType string
	)
	switch {
	case cl.raw != nil:
		body, contentType = cl.raw, "text/plain"
	case cl.body != nil:
		b, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body, contentType = bytes.NewReader(b), "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.BaseURL+cl.path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if cl.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+cl.bearer)
	}
	return req, nil
}

// send performs the request and returns the response with its body read.
func (c *SDKClient) send(ctx context.Context, cl call) (*http.Response, []byte, error) {
	req, err := c.newRequest(ctx, cl)
	if err != nil {
		return nil, nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%s %s: %w", cl.method, cl.path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp, body, nil
}

// do performs cl and maps any status other than cl.want to a typed error:
// *DeviceLimitError for the device handshake, *APIError otherwise.
func (c *SDKClient) do(ctx context.Context, cl call) error {
	resp, body, err := c.send(ctx, cl)
	if err != nil {
		return err
	}

	if resp.StatusCode != cl.want {
		if err := parseErrorResponse(resp, body); err != nil {
			return err
		}
		return fmt.Errorf("%s %s: unexpected status %d", cl.method, cl.path, resp.StatusCode)
	}

	if cl.out == nil {
		return nil
	}
	if err := json.Unmarshal(body, cl.out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// do performs cl with the session's access token, refreshing it first
// when it is about to expire.
func (s *Session) do(ctx context.Context, cl call) error {
	token, err := s.getValidToken(ctx)
	if err != nil {
		return err
	}
	cl.bearer = token
	return s.client.do(ctx, cl)
}
