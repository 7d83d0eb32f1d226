package goRealtime

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one counter or latency histogram kept by the client.
type MetricID uint16

const (
	// Credential renewal.
	MetricRenewSuccess MetricID = iota
	MetricRenewFailure
	MetricRenewRejected
	MetricRenewCoalesced

	// Request gateway.
	MetricRequestSuccess
	MetricRequestFailure
	MetricRequestAuthReplay
	MetricRequestAuthRejected

	// Transport lifecycle.
	MetricConnectSuccess
	MetricConnectFailure
	MetricReconnectScheduled
	MetricReconnectExhausted
	MetricManualDisconnect

	// Heartbeat.
	MetricHeartbeatSent
	MetricPongReceived
	MetricPongTimeout

	// Inbound decode.
	MetricEnvelopeDecodeError
	MetricEnvelopeUnknownType

	// Event bus.
	MetricBusEventDropped
	MetricBusHandlerPanic

	// Latency histograms.
	MetricRenewLatency
	MetricRequestLatency
	MetricConnectLatency

	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

// Counters sit on separate cache lines so hot-path increments from the read
// pump and the gateway do not contend.
type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is the client's in-process counter set. All methods are safe for
// concurrent use and are no-ops on a nil receiver or when disabled.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of every counter and, when latency
// histograms are enabled, the bucket counts per latency metric.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to the counter. Unknown IDs are ignored.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a duration into the histogram for id. Only the latency
// metric IDs accept observations.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency {
		return
	}
	if !isLatencyMetric(id) {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter atomically per cell. The snapshot is not a
// consistent cut across counters, which is fine for monitoring.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 3),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		for id := MetricID(0); id < metricIDCount; id++ {
			if !isLatencyMetric(id) {
				continue
			}
			buckets := make([]uint64, histBucketCount)
			for i := 0; i < histBucketCount; i++ {
				buckets[i] = atomic.LoadUint64(&m.histograms[id].buckets[i])
			}
			s.Histograms[id] = buckets
		}
	}

	return s
}

func isLatencyMetric(id MetricID) bool {
	switch id {
	case MetricRenewLatency, MetricRequestLatency, MetricConnectLatency:
		return true
	}
	return false
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
