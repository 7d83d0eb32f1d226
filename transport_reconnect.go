package goRealtime

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/MrEthical07/goRealtime/internal/backoff"
)

// scheduleRetryLocked arms the next reconnect attempt. Caller holds mu and
// has already moved the state to StateReconnecting. Attempt numbering is
// 1-based; once it passes MaxAttempts the transport parks in StateFailed
// until the next explicit Connect.
func (t *Transport) scheduleRetryLocked(gen uint64) {
	t.attempt++
	if t.attempt > t.reconnect.MaxAttempts {
		t.metrics.Inc(MetricReconnectExhausted)
		log.Printf("goRealtime: reconnect attempts exhausted after %d tries", t.reconnect.MaxAttempts)
		t.setStateLocked(StateFailed, t.attempt-1, ErrReconnectExhausted)
		return
	}

	delay := backoff.Delay(t.attempt-1, t.reconnect.BaseDelay, t.reconnect.MaxDelay)
	attempt := t.attempt
	t.metrics.Inc(MetricReconnectScheduled)

	t.retryTime = time.AfterFunc(delay, func() {
		t.retry(gen, attempt)
	})
}

// retry is the timer body for one reconnect attempt. The generation check
// makes a timer that lost the race with Disconnect or a newer connection a
// no-op.
func (t *Transport) retry(gen uint64, attempt int) {
	t.mu.Lock()
	if gen != t.gen || t.closed || t.manual || t.state != StateReconnecting {
		t.mu.Unlock()
		return
	}
	t.retryTime = nil
	t.setStateLocked(StateConnecting, attempt, nil)
	t.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), t.dialTimeout)
	err := t.dial(ctx, gen)
	cancel()
	if err == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.gen || t.closed || t.manual || t.state != StateConnecting {
		return
	}

	// A renewal rejection means no credential can ever authorize the
	// handshake; retrying would only burn attempts against a closed door.
	if errors.Is(err, ErrSessionInvalid) || errors.Is(err, ErrAuthRejected) {
		t.setStateLocked(StateFailed, attempt, err)
		return
	}

	t.setStateLocked(StateReconnecting, attempt, err)
	t.scheduleRetryLocked(gen)
}
