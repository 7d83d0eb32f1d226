package goRealtime

import (
	"errors"
	"strings"
	"time"
)

// Config carries every tunable of the realtime client. Zero values are
// filled from defaults by the builder; Validate runs after merging.
type Config struct {
	Endpoint  EndpointConfig
	Session   SessionConfig
	JWT       JWTConfig
	Renewal   RenewalConfig
	Reconnect ReconnectConfig
	Heartbeat HeartbeatConfig
	Events    EventsConfig
	Metrics   MetricsConfig
}

/*
====================================
ENDPOINT CONFIG
====================================
*/

// EndpointConfig locates the backend. BaseURL covers the HTTP API,
// RealtimeURL the duplex endpoint (ws:// or wss://). The renewal and logout
// paths are joined onto BaseURL.
type EndpointConfig struct {
	BaseURL        string
	RealtimeURL    string
	RenewalPath    string
	LogoutPath     string
	RequestTimeout time.Duration
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls credential persistence.
type SessionConfig struct {
	RedisPrefix string
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig controls local access-token inspection. Verification is
// optional: with no key material the client only inspects expiry claims and
// trusts the server to reject bad tokens.
type JWTConfig struct {
	Leeway        time.Duration
	SigningMethod string // "hs256" (default), "ed25519" optional
	Secret        []byte
	PublicKey     []byte
}

/*
====================================
RENEWAL CONFIG
====================================
*/

// RenewalConfig controls credential renewal. ExpiryLeeway is how long
// before nominal expiry a token is already treated as expired, so renewal
// happens ahead of server-side rejection.
type RenewalConfig struct {
	ExpiryLeeway time.Duration
	Timeout      time.Duration
}

/*
====================================
RECONNECT CONFIG
====================================
*/

// ReconnectConfig controls automatic reconnection after an unexpected
// connection loss. Delay for attempt n is BaseDelay doubled n times, capped
// at MaxDelay; after MaxAttempts consecutive failures the client parks in
// the failed state.
type ReconnectConfig struct {
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int
}

/*
====================================
HEARTBEAT CONFIG
====================================
*/

// HeartbeatConfig controls the application-level ping. PongTimeout of zero
// disables pong-based liveness escalation; transport errors alone then
// drive reconnection.
type HeartbeatConfig struct {
	Interval    time.Duration
	PongTimeout time.Duration
}

/*
====================================
EVENTS CONFIG
====================================
*/

// EventsConfig controls event delivery.
type EventsConfig struct {
	// ChanBuffer is the channel capacity Bus.Chan uses when the caller
	// does not pass an explicit buffer.
	ChanBuffer int
}

// MetricsConfig enables the in-process counter set.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		Endpoint: EndpointConfig{
			RenewalPath:    "/api/auth/refresh",
			LogoutPath:     "/api/auth/logout",
			RequestTimeout: 15 * time.Second,
		},
		Session: SessionConfig{
			RedisPrefix: "rt",
		},
		JWT: JWTConfig{
			Leeway:        30 * time.Second,
			SigningMethod: "hs256",
		},
		Renewal: RenewalConfig{
			ExpiryLeeway: 30 * time.Second,
			Timeout:      10 * time.Second,
		},
		Reconnect: ReconnectConfig{
			BaseDelay:   500 * time.Millisecond,
			MaxDelay:    30 * time.Second,
			MaxAttempts: 8,
		},
		Heartbeat: HeartbeatConfig{
			Interval:    30 * time.Second,
			PongTimeout: 0,
		},
		Events: EventsConfig{
			ChanBuffer: 64,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks cross-field consistency after defaults are merged.
func (c *Config) Validate() error {
	// Endpoint
	if c.Endpoint.BaseURL == "" {
		return errors.New("Endpoint BaseURL is required")
	}
	if !strings.HasPrefix(c.Endpoint.BaseURL, "http://") && !strings.HasPrefix(c.Endpoint.BaseURL, "https://") {
		return errors.New("Endpoint BaseURL must be http:// or https://")
	}
	if c.Endpoint.RealtimeURL == "" {
		return errors.New("Endpoint RealtimeURL is required")
	}
	if !strings.HasPrefix(c.Endpoint.RealtimeURL, "ws://") && !strings.HasPrefix(c.Endpoint.RealtimeURL, "wss://") {
		return errors.New("Endpoint RealtimeURL must be ws:// or wss://")
	}
	if !strings.HasPrefix(c.Endpoint.RenewalPath, "/") {
		return errors.New("Endpoint RenewalPath must start with /")
	}
	if !strings.HasPrefix(c.Endpoint.LogoutPath, "/") {
		return errors.New("Endpoint LogoutPath must start with /")
	}
	if c.Endpoint.RequestTimeout <= 0 {
		return errors.New("Endpoint RequestTimeout must be > 0")
	}

	// JWT
	if c.JWT.Leeway < 0 {
		return errors.New("JWT Leeway must be >= 0")
	}
	if c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be <= 2m")
	}
	if c.JWT.SigningMethod != "hs256" && c.JWT.SigningMethod != "ed25519" {
		return errors.New("unsupported JWT signing method")
	}
	if c.JWT.SigningMethod == "ed25519" && len(c.JWT.Secret) > 0 {
		return errors.New("ed25519 verification uses PublicKey, not Secret")
	}

	// Renewal
	if c.Renewal.ExpiryLeeway < 0 {
		return errors.New("Renewal ExpiryLeeway must be >= 0")
	}
	if c.Renewal.Timeout <= 0 {
		return errors.New("Renewal Timeout must be > 0")
	}

	// Reconnect
	if c.Reconnect.BaseDelay <= 0 {
		return errors.New("Reconnect BaseDelay must be > 0")
	}
	if c.Reconnect.MaxDelay < c.Reconnect.BaseDelay {
		return errors.New("Reconnect MaxDelay must be >= BaseDelay")
	}
	if c.Reconnect.MaxAttempts <= 0 {
		return errors.New("Reconnect MaxAttempts must be > 0")
	}

	// Heartbeat
	if c.Heartbeat.Interval <= 0 {
		return errors.New("Heartbeat Interval must be > 0")
	}
	if c.Heartbeat.PongTimeout < 0 {
		return errors.New("Heartbeat PongTimeout must be >= 0")
	}
	if c.Heartbeat.PongTimeout > 0 && c.Heartbeat.PongTimeout >= c.Heartbeat.Interval {
		return errors.New("Heartbeat PongTimeout must be < Interval")
	}

	// Events
	if c.Events.ChanBuffer <= 0 {
		return errors.New("Events ChanBuffer must be > 0")
	}

	return nil
}
