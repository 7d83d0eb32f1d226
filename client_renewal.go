package goRealtime

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/MrEthical07/goRealtime/internal/flows"
	"github.com/MrEthical07/goRealtime/session"
)

// renewOp is one in-flight renewal. Everyone who needs a renewal while it
// runs waits on done and shares its outcome.
type renewOp struct {
	done chan struct{}
	cred *session.Credential
	err  error
}

// errRenewalRejected marks a definitive verdict from the renewal endpoint
// against the refresh token, as opposed to a failure to get any verdict.
var errRenewalRejected = errors.New("renewal rejected")

// Renew exchanges the stored refresh token for a fresh credential pair.
// Concurrent calls coalesce into a single request to the renewal endpoint;
// a caller whose context expires detaches from the shared operation without
// cancelling it for the others.
//
// A definitive rejection clears the stored credential and returns
// ErrSessionInvalid; transient endpoint failures return
// ErrRenewalUnavailable and leave the store untouched.
func (c *Client) Renew(ctx context.Context) (*session.Credential, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}

	c.renewMu.Lock()
	if op := c.inflight; op != nil {
		c.renewMu.Unlock()
		c.metrics.Inc(MetricRenewCoalesced)
		return waitRenew(ctx, op)
	}
	op := &renewOp{done: make(chan struct{})}
	c.inflight = op
	c.renewMu.Unlock()

	go c.runRenew(op)

	return waitRenew(ctx, op)
}

func waitRenew(ctx context.Context, op *renewOp) (*session.Credential, error) {
	select {
	case <-op.done:
		return op.cred, op.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// runRenew drives the shared renewal operation under its own deadline so no
// single caller's cancellation can abort it. The in-flight marker is
// cleared before waiters are released: a renewal triggered by the outcome
// starts a fresh operation instead of joining this finished one.
func (c *Client) runRenew(op *renewOp) {
	ctx, cancel := context.WithTimeout(context.Background(), c.config.Renewal.Timeout)
	defer cancel()

	start := time.Now()
	res := flows.RunRenew(ctx, flows.RenewDeps{
		LoadCredential:  c.store.Load,
		CallRenewal:     c.callRenewal,
		SaveCredential:  c.store.Save,
		ClearCredential: c.store.Clear,
		Warn:            log.Printf,
		RejectedErr:     errRenewalRejected,
	})

	op.cred, op.err = c.mapRenewResult(res)
	if op.err == nil {
		c.metrics.Inc(MetricRenewSuccess)
		c.metrics.Observe(MetricRenewLatency, time.Since(start))
	}

	c.renewMu.Lock()
	c.inflight = nil
	c.renewMu.Unlock()
	close(op.done)
}

func (c *Client) mapRenewResult(res flows.RenewResult) (*session.Credential, error) {
	switch res.Failure {
	case flows.RenewFailureNone:
		return res.Credential, nil

	case flows.RenewFailureNoCredential, flows.RenewFailureRejected:
		c.metrics.Inc(MetricRenewRejected)
		c.bus.Publish(SessionInvalidEvent{Cause: res.Err})
		return nil, fmt.Errorf("%w: %v", ErrSessionInvalid, res.Err)

	case flows.RenewFailureEndpoint:
		c.metrics.Inc(MetricRenewFailure)
		return nil, fmt.Errorf("%w: %v", ErrRenewalUnavailable, res.Err)

	case flows.RenewFailurePersist:
		c.metrics.Inc(MetricRenewFailure)
		return nil, fmt.Errorf("persist renewed credential: %w", res.Err)

	default:
		return nil, res.Err
	}
}

type renewalRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type renewalResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresAt    int64  `json:"expiresAt"`
}

// callRenewal posts the refresh token to the renewal endpoint. Any 4xx is a
// verdict against the token; everything else is a transient failure.
func (c *Client) callRenewal(ctx context.Context, refreshToken string) (*session.Credential, error) {
	body, err := json.Marshal(renewalRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, fmt.Errorf("encode renewal request: %w", err)
	}

	url := c.config.Endpoint.BaseURL + c.config.Endpoint.RenewalPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build renewal request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("renewal endpoint: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: status %d", errRenewalRejected, resp.StatusCode)
	default:
		return nil, fmt.Errorf("renewal endpoint status %d", resp.StatusCode)
	}

	var out renewalResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode renewal response: %w", err)
	}
	if out.AccessToken == "" {
		return nil, errors.New("renewal response missing access token")
	}

	// The backend reuses the refresh token when it does not rotate.
	if out.RefreshToken == "" {
		out.RefreshToken = refreshToken
	}

	cred := &session.Credential{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
		IssuedAt:     time.Now().Unix(),
		ExpiresAt:    out.ExpiresAt,
	}
	if cred.ExpiresAt == 0 {
		if info, err := c.inspector.Inspect(cred.AccessToken); err == nil && !info.ExpiresAt.IsZero() {
			cred.ExpiresAt = info.ExpiresAt.Unix()
		}
	}
	return cred, nil
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// runLogout revokes server-side best-effort and always clears locally.
func (c *Client) runLogout(ctx context.Context) error {
	return flows.RunLogout(ctx, flows.LogoutDeps{
		LoadCredential:  c.store.Load,
		CallLogout:      c.callLogout,
		ClearCredential: c.store.Clear,
		Warn:            log.Printf,
	})
}

func (c *Client) callLogout(ctx context.Context, refreshToken string) error {
	body, err := json.Marshal(logoutRequest{RefreshToken: refreshToken})
	if err != nil {
		return fmt.Errorf("encode logout request: %w", err)
	}

	url := c.config.Endpoint.BaseURL + c.config.Endpoint.LogoutPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build logout request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("logout endpoint: %w", err)
	}
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("logout endpoint status %d", resp.StatusCode)
	}
	return nil
}
