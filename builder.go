package goRealtime

import (
	"errors"
	"net/http"

	"github.com/MrEthical07/goRealtime/jwt"
	"github.com/MrEthical07/goRealtime/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles a [Client]. Obtain one with [New], chain the With
// methods, and finish with Build. A builder is single-use.
type Builder struct {
	config Config

	redis      *redis.Client
	store      session.Store
	httpClient *http.Client
	dialer     Dialer

	built bool
}

// New returns a builder seeded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration. Zero-valued sections are
// filled from defaults during Build.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis persists credentials in Redis under the configured prefix.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithStore substitutes a custom credential store. Takes precedence over
// WithRedis.
func (b *Builder) WithStore(store session.Store) *Builder {
	b.store = store
	return b
}

// WithHTTPClient substitutes the HTTP client used for renewal, logout, and
// gateway requests.
func (b *Builder) WithHTTPClient(hc *http.Client) *Builder {
	b.httpClient = hc
	return b
}

// WithDialer substitutes the duplex dialer. Tests use this to avoid real
// network connections.
func (b *Builder) WithDialer(d Dialer) *Builder {
	b.dialer = d
	return b
}

// WithMetricsEnabled toggles the in-process counter set.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles latency bucket recording. Implies nothing
// unless metrics are enabled.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, wires the components, and returns the
// client.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	mergeDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store := b.store
	if store == nil {
		if b.redis == nil {
			return nil, errors.New("credential store required: provide WithRedis or WithStore")
		}
		store = session.NewRedisStore(b.redis, cfg.Session.RedisPrefix)
	}

	jwtCfg := jwt.Config{Leeway: cfg.JWT.Leeway}
	if len(cfg.JWT.Secret) > 0 || len(cfg.JWT.PublicKey) > 0 {
		jwtCfg.SigningMethod = jwt.SigningMethod(cfg.JWT.SigningMethod)
		jwtCfg.Secret = cloneBytes(cfg.JWT.Secret)
		jwtCfg.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	}
	inspector, err := jwt.NewInspector(jwtCfg)
	if err != nil {
		return nil, err
	}

	httpClient := b.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Endpoint.RequestTimeout}
	}

	dialer := b.dialer
	if dialer == nil {
		dialer = defaultDialer()
	}

	metrics := NewMetrics(cfg.Metrics)
	bus := NewBus(metrics)
	bus.chanBuffer = cfg.Events.ChanBuffer

	client := &Client{
		config:    cfg,
		store:     store,
		inspector: inspector,
		httpc:     httpClient,
		bus:       bus,
		metrics:   metrics,
	}
	client.transport = newTransport(cfg, dialer, client.EnsureFreshCredential, bus, metrics)

	b.built = true

	return client, nil
}

// mergeDefaults fills zero-valued fields so WithConfig callers only need to
// set what they change.
func mergeDefaults(cfg *Config) {
	def := defaultConfig()

	if cfg.Endpoint.RenewalPath == "" {
		cfg.Endpoint.RenewalPath = def.Endpoint.RenewalPath
	}
	if cfg.Endpoint.LogoutPath == "" {
		cfg.Endpoint.LogoutPath = def.Endpoint.LogoutPath
	}
	if cfg.Endpoint.RequestTimeout == 0 {
		cfg.Endpoint.RequestTimeout = def.Endpoint.RequestTimeout
	}
	if cfg.Session.RedisPrefix == "" {
		cfg.Session.RedisPrefix = def.Session.RedisPrefix
	}
	if cfg.JWT.Leeway == 0 {
		cfg.JWT.Leeway = def.JWT.Leeway
	}
	if cfg.JWT.SigningMethod == "" {
		cfg.JWT.SigningMethod = def.JWT.SigningMethod
	}
	if cfg.Renewal.ExpiryLeeway == 0 {
		cfg.Renewal.ExpiryLeeway = def.Renewal.ExpiryLeeway
	}
	if cfg.Renewal.Timeout == 0 {
		cfg.Renewal.Timeout = def.Renewal.Timeout
	}
	if cfg.Reconnect.BaseDelay == 0 {
		cfg.Reconnect.BaseDelay = def.Reconnect.BaseDelay
	}
	if cfg.Reconnect.MaxDelay == 0 {
		cfg.Reconnect.MaxDelay = def.Reconnect.MaxDelay
	}
	if cfg.Reconnect.MaxAttempts == 0 {
		cfg.Reconnect.MaxAttempts = def.Reconnect.MaxAttempts
	}
	if cfg.Heartbeat.Interval == 0 {
		cfg.Heartbeat.Interval = def.Heartbeat.Interval
	}
	if cfg.Events.ChanBuffer == 0 {
		cfg.Events.ChanBuffer = def.Events.ChanBuffer
	}
}
