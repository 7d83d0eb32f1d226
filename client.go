package goRealtime

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goRealtime/jwt"
	"github.com/MrEthical07/goRealtime/session"
)

// Credential aliases the session package's credential pair so callers that
// only seed and read tokens need not import it.
type Credential = session.Credential

// Client is the realtime chat client: it keeps the credential pair fresh,
// authorizes outbound HTTP requests, and maintains the duplex connection
// that feeds the event bus. Build one with [New]; all methods are safe for
// concurrent use.
type Client struct {
	config    Config
	store     session.Store
	inspector *jwt.Inspector
	httpc     *http.Client
	bus       *Bus
	transport *Transport
	metrics   *Metrics

	renewMu  sync.Mutex
	inflight *renewOp

	closed atomic.Bool
}

// Events exposes the bus for subscribing to inbound and lifecycle events.
func (c *Client) Events() *Bus {
	return c.bus
}

// Transport exposes the connection layer for Connect, Disconnect, and the
// outbound control operations.
func (c *Client) Transport() *Transport {
	return c.transport
}

// Connect establishes the realtime connection, renewing the credential
// first if the stored one is already expired.
func (c *Client) Connect(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	return c.transport.Connect(ctx)
}

// Disconnect tears the realtime connection down without touching the
// stored credential. No reconnect attempt fires afterwards.
func (c *Client) Disconnect() {
	c.transport.Disconnect()
}

// Metrics returns a point-in-time snapshot of the client's counters.
func (c *Client) Metrics() MetricsSnapshot {
	return c.metrics.Snapshot()
}

// SetCredential seeds or replaces the stored credential pair, typically
// right after an interactive login against the backend.
func (c *Client) SetCredential(ctx context.Context, cred *session.Credential) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	if cred == nil || cred.AccessToken == "" || cred.RefreshToken == "" {
		return errors.New("credential requires both tokens")
	}
	return c.store.Save(ctx, cred)
}

// Credential returns a copy of the stored credential pair.
func (c *Client) Credential(ctx context.Context) (*session.Credential, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}
	return c.store.Load(ctx)
}

// TokenInfo inspects the stored access token's claims without verifying
// the signature.
func (c *Client) TokenInfo(ctx context.Context) (*jwt.TokenInfo, error) {
	cred, err := c.Credential(ctx)
	if err != nil {
		return nil, err
	}
	return c.inspector.Inspect(cred.AccessToken)
}

// EnsureFreshCredential returns an access token that is not within the
// expiry leeway, renewing first when needed. A missing or unusable stored
// credential maps to ErrSessionInvalid: the caller must re-authenticate.
func (c *Client) EnsureFreshCredential(ctx context.Context) (string, error) {
	if c.closed.Load() {
		return "", ErrClientClosed
	}

	cred, err := c.store.Load(ctx)
	if err != nil {
		if errors.Is(err, session.ErrCredentialCorrupt) {
			// An undecodable blob can never be renewed; treat it exactly
			// like a rejected renewal so the embedder sees one consistent
			// invalidation path.
			if clearErr := c.store.Clear(ctx); clearErr != nil {
				log.Printf("goRealtime: clearing corrupt credential failed: %v", clearErr)
			}
			c.bus.Publish(SessionInvalidEvent{Cause: err})
			return "", fmt.Errorf("%w: %v", ErrSessionInvalid, err)
		}
		if errors.Is(err, session.ErrNoCredential) {
			return "", fmt.Errorf("%w: %v", ErrSessionInvalid, err)
		}
		return "", err
	}

	if c.credentialFresh(cred) {
		return cred.AccessToken, nil
	}

	renewed, err := c.Renew(ctx)
	if err != nil {
		return "", err
	}
	return renewed.AccessToken, nil
}

// credentialFresh checks the stored expiry, falling back to the token's own
// exp claim when the stored record carries none.
func (c *Client) credentialFresh(cred *session.Credential) bool {
	leeway := c.config.Renewal.ExpiryLeeway
	if cred.Expired(time.Now(), leeway) {
		return false
	}
	if cred.ExpiresAt == 0 {
		return !c.inspector.ExpiresWithin(cred.AccessToken, leeway)
	}
	return true
}

// Logout revokes the session server-side on a best-effort basis, always
// clears the stored credential, and tears down the connection.
func (c *Client) Logout(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	c.transport.Disconnect()
	return c.runLogout(ctx)
}

// Close releases the client: the connection is torn down, pending timers
// are cancelled, and the event publisher drains. The stored credential is
// left intact so a new client can resume the session.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.transport.shutdown()
	return nil
}
