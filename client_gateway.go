package goRealtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Do sends an authenticated request to the backend. The gateway attaches a
// Bearer token, renewing first when the stored credential is within the
// expiry leeway. On a 401 it renews once and replays the request with the
// fresh token; a second 401 is ErrAuthRejected.
//
// Replaying needs the body again, so a request with a body must either set
// GetBody (http.NewRequest does for common body types) or tolerate a
// one-shot read; otherwise the replay is skipped and the 401 surfaces as
// ErrAuthRejected directly.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}

	token, err := c.EnsureFreshCredential(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.send(ctx, req, token)
	if err != nil {
		c.metrics.Inc(MetricRequestFailure)
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		c.metrics.Inc(MetricRequestSuccess)
		c.metrics.Observe(MetricRequestLatency, time.Since(start))
		return resp, nil
	}

	// The token passed the local expiry check yet the server said no:
	// revoked session or skewed clock. One renewal decides which.
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()

	if req.Body != nil && req.GetBody == nil {
		c.metrics.Inc(MetricRequestAuthRejected)
		return nil, fmt.Errorf("%w: unauthorized and request body is not replayable", ErrAuthRejected)
	}

	renewed, err := c.Renew(ctx)
	if err != nil {
		c.metrics.Inc(MetricRequestAuthRejected)
		return nil, err
	}
	c.metrics.Inc(MetricRequestAuthReplay)

	resp, err = c.send(ctx, req, renewed.AccessToken)
	if err != nil {
		c.metrics.Inc(MetricRequestFailure)
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		c.metrics.Inc(MetricRequestAuthRejected)
		return nil, fmt.Errorf("%w: request unauthorized after renewal", ErrAuthRejected)
	}

	c.metrics.Inc(MetricRequestSuccess)
	c.metrics.Observe(MetricRequestLatency, time.Since(start))
	return resp, nil
}

// send clones the request with auth headers attached, rewinding the body
// via GetBody when this is a replay.
func (c *Client) send(ctx context.Context, req *http.Request, token string) (*http.Response, error) {
	out := req.Clone(ctx)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("rewind request body: %w", err)
		}
		out.Body = body
	}

	out.Header.Set("Authorization", "Bearer "+token)
	if out.Header.Get("X-Request-ID") == "" {
		id, ok := requestIDFrom(ctx)
		if !ok {
			id = uuid.NewString()
		}
		out.Header.Set("X-Request-ID", id)
	}
	if label, ok := deviceLabelFrom(ctx); ok {
		out.Header.Set("X-Device-Label", label)
	}

	return c.httpc.Do(out)
}

// DoJSON is the common case: a JSON request body (or none) and a JSON
// response decoded into out. Non-2xx statuses become errors carrying the
// status code.
func (c *Client) DoJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.Endpoint.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
