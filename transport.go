package goRealtime

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ConnectionState is the transport lifecycle state. Transitions are driven
// by Connect, Disconnect, and connection loss; every transition is published
// on the event bus as a ConnectionEvent.
type ConnectionState uint8

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateFailed
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Conn is the subset of a duplex connection the transport needs. It is
// satisfied by *websocket.Conn.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dialer opens duplex connections. The default implementation wraps
// websocket.Dialer; tests substitute their own.
type Dialer interface {
	DialContext(ctx context.Context, url string, header http.Header) (Conn, error)
}

type wsDialer struct {
	d *websocket.Dialer
}

func (w wsDialer) DialContext(ctx context.Context, url string, header http.Header) (Conn, error) {
	conn, resp, err := w.d.DialContext(ctx, url, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func defaultDialer() Dialer {
	return wsDialer{d: &websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}}
}

// tokenSource yields a fresh access token for the handshake. Wired to the
// client's renew-if-expired credential accessor.
type tokenSource func(ctx context.Context) (string, error)

// Transport owns the duplex connection: dialing, the read pump, the
// heartbeat, and the reconnect cycle. All mutable state is behind mu; the
// generation counter invalidates pump goroutines and pending timers from
// superseded connections.
type Transport struct {
	realtimeURL string
	reconnect   ReconnectConfig
	heartbeat   HeartbeatConfig
	dialTimeout time.Duration

	dialer  Dialer
	token   tokenSource
	bus     *Bus
	metrics *Metrics

	mu        sync.Mutex
	state     ConnectionState
	conn      Conn
	gen       uint64
	attempt   int
	manual    bool
	closed    bool
	retryTime *time.Timer
	pongTime  *time.Timer
	hbStop    chan struct{}

	// Ordered delivery: every state transition and inbound event is queued
	// here and drained by a single goroutine, so subscribers see
	// transitions in the order they happened. evMu fences publishers
	// against shutdown closing the queue: a read pump can hold a frame it
	// received before Close and try to publish it after.
	events   chan Event
	evMu     sync.RWMutex
	evClosed bool
	drained  chan struct{}
	writeMu  sync.Mutex
}

func newTransport(cfg Config, dialer Dialer, token tokenSource, bus *Bus, metrics *Metrics) *Transport {
	t := &Transport{
		realtimeURL: cfg.Endpoint.RealtimeURL,
		reconnect:   cfg.Reconnect,
		heartbeat:   cfg.Heartbeat,
		dialTimeout: cfg.Endpoint.RequestTimeout,
		dialer:      dialer,
		token:       token,
		bus:         bus,
		metrics:     metrics,
		state:       StateDisconnected,
		events:      make(chan Event, 256),
		drained:     make(chan struct{}),
	}
	go t.publishLoop()
	return t
}

func (t *Transport) publishLoop() {
	defer close(t.drained)
	for ev := range t.events {
		t.bus.Publish(ev)
	}
}

// publish queues an event for ordered delivery. Safe to call with mu held;
// a full queue drops the event rather than deadlock, and events arriving
// after shutdown are dropped rather than sent on the closed queue.
func (t *Transport) publish(ev Event) {
	t.evMu.RLock()
	defer t.evMu.RUnlock()
	if t.evClosed {
		return
	}
	select {
	case t.events <- ev:
	default:
		t.metrics.Inc(MetricBusEventDropped)
	}
}

// State reports the current lifecycle state.
func (t *Transport) State() ConnectionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// setStateLocked transitions and queues the ConnectionEvent. Caller holds mu.
func (t *Transport) setStateLocked(state ConnectionState, attempt int, err error) {
	t.state = state
	t.publish(ConnectionEvent{State: state, Attempt: attempt, Err: err})
}
