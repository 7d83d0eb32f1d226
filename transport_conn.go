package goRealtime

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"
)

// Connect establishes the duplex connection. It is idempotent: calling it
// while connecting or connected is a no-op. A failed dial starts the
// reconnect cycle and returns the dial error.
func (t *Transport) Connect(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClientClosed
	}
	switch t.state {
	case StateConnected, StateConnecting, StateReconnecting:
		t.mu.Unlock()
		return nil
	}
	t.manual = false
	t.attempt = 0
	t.gen++
	gen := t.gen
	t.setStateLocked(StateConnecting, 0, nil)
	t.mu.Unlock()

	if err := t.dial(ctx, gen); err != nil {
		t.mu.Lock()
		if gen == t.gen && t.state == StateConnecting {
			t.setStateLocked(StateReconnecting, 0, err)
			t.scheduleRetryLocked(gen)
		}
		t.mu.Unlock()
		return err
	}
	return nil
}

// dial performs one handshake attempt and, on success, installs the
// connection and starts its pumps. gen guards against a Disconnect racing
// the dial.
func (t *Transport) dial(ctx context.Context, gen uint64) error {
	token, err := t.token(ctx)
	if err != nil {
		return err
	}

	target, err := realtimeTarget(t.realtimeURL, token)
	if err != nil {
		return err
	}

	start := time.Now()
	conn, err := t.dialer.DialContext(ctx, target, nil)
	if err != nil {
		t.metrics.Inc(MetricConnectFailure)
		return fmt.Errorf("dial realtime endpoint: %w", err)
	}

	t.mu.Lock()
	if gen != t.gen || t.closed {
		t.mu.Unlock()
		conn.Close()
		return ErrClientClosed
	}
	// Each live connection gets its own generation so goroutines left over
	// from a previous connection can never tear this one down.
	t.gen++
	connGen := t.gen
	t.conn = conn
	t.attempt = 0
	t.hbStop = make(chan struct{})
	t.setStateLocked(StateConnected, 0, nil)
	hbStop := t.hbStop
	t.mu.Unlock()

	t.metrics.Inc(MetricConnectSuccess)
	t.metrics.Observe(MetricConnectLatency, time.Since(start))

	go t.readPump(connGen, conn)
	go t.heartbeatLoop(connGen, conn, hbStop)
	return nil
}

// realtimeTarget appends the access token as the handshake query parameter
// the backend expects.
func realtimeTarget(raw, token string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("realtime url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Disconnect tears the connection down and suppresses the reconnect cycle.
// Pending retry and pong timers are cancelled before it returns, so no
// reconnect attempt fires afterwards.
func (t *Transport) Disconnect() {
	t.mu.Lock()
	if t.closed || t.state == StateDisconnected {
		t.mu.Unlock()
		return
	}
	t.manual = true
	t.gen++
	t.stopTimersLocked()
	t.stopHeartbeatLocked()
	conn := t.conn
	t.conn = nil
	t.setStateLocked(StateDisconnected, 0, nil)
	t.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	t.metrics.Inc(MetricManualDisconnect)
}

// shutdown is Disconnect plus permanently closing the publisher. Used by
// Client.Close; the transport is unusable afterwards.
func (t *Transport) shutdown() {
	t.Disconnect()

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.mu.Unlock()

	// Fence out every publisher before closing the queue: a pump that
	// already read a frame may still be on its way to publish.
	t.evMu.Lock()
	t.evClosed = true
	t.evMu.Unlock()

	close(t.events)
	<-t.drained
}

// stopTimersLocked cancels owned timers synchronously. Timer bodies that
// already fired bail out on the generation check.
func (t *Transport) stopTimersLocked() {
	if t.retryTime != nil {
		t.retryTime.Stop()
		t.retryTime = nil
	}
	if t.pongTime != nil {
		t.pongTime.Stop()
		t.pongTime = nil
	}
}

func (t *Transport) stopHeartbeatLocked() {
	if t.hbStop != nil {
		close(t.hbStop)
		t.hbStop = nil
	}
}

// connLost is the single entry point for involuntary connection loss: read
// errors, write errors, and pong timeouts all land here. Stale generations
// and manual disconnects are ignored.
func (t *Transport) connLost(gen uint64, cause error) {
	t.mu.Lock()
	if gen != t.gen || t.manual || t.closed {
		t.mu.Unlock()
		return
	}
	if t.state != StateConnected {
		t.mu.Unlock()
		return
	}
	t.stopTimersLocked()
	t.stopHeartbeatLocked()
	conn := t.conn
	t.conn = nil
	log.Printf("goRealtime: connection lost: %v", cause)
	t.setStateLocked(StateReconnecting, t.attempt, cause)
	t.scheduleRetryLocked(gen)
	t.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

var errPongTimeout = errors.New("heartbeat pong timeout")
