package internaldefs

import (
	goRealtime "github.com/MrEthical07/goRealtime"
)

// CounterDef binds one client counter to its exported name.
type CounterDef struct {
	ID   goRealtime.MetricID
	Name string
	Help string
}

// HistogramDef binds one client latency histogram to its exported name.
type HistogramDef struct {
	ID   goRealtime.MetricID
	Name string
	Help string
}

// CounterDefs is the shared counter catalog both exporters publish from.
var CounterDefs = []CounterDef{
	{ID: goRealtime.MetricRenewSuccess, Name: "gorealtime_renew_success_total", Help: "Successful credential renewals."},
	{ID: goRealtime.MetricRenewFailure, Name: "gorealtime_renew_failure_total", Help: "Transient credential renewal failures."},
	{ID: goRealtime.MetricRenewRejected, Name: "gorealtime_renew_rejected_total", Help: "Credential renewals rejected by the backend."},
	{ID: goRealtime.MetricRenewCoalesced, Name: "gorealtime_renew_coalesced_total", Help: "Renewal callers coalesced onto an in-flight renewal."},
	{ID: goRealtime.MetricRequestSuccess, Name: "gorealtime_request_success_total", Help: "Gateway requests completed without auth failure."},
	{ID: goRealtime.MetricRequestFailure, Name: "gorealtime_request_failure_total", Help: "Gateway requests that failed in transit."},
	{ID: goRealtime.MetricRequestAuthReplay, Name: "gorealtime_request_auth_replay_total", Help: "Gateway requests replayed after a 401 renewal."},
	{ID: goRealtime.MetricRequestAuthRejected, Name: "gorealtime_request_auth_rejected_total", Help: "Gateway requests rejected as unauthorized."},
	{ID: goRealtime.MetricConnectSuccess, Name: "gorealtime_connect_success_total", Help: "Successful realtime handshakes."},
	{ID: goRealtime.MetricConnectFailure, Name: "gorealtime_connect_failure_total", Help: "Failed realtime handshakes."},
	{ID: goRealtime.MetricReconnectScheduled, Name: "gorealtime_reconnect_scheduled_total", Help: "Scheduled reconnect attempts."},
	{ID: goRealtime.MetricReconnectExhausted, Name: "gorealtime_reconnect_exhausted_total", Help: "Reconnect cycles that exhausted their attempt budget."},
	{ID: goRealtime.MetricManualDisconnect, Name: "gorealtime_manual_disconnect_total", Help: "Explicit disconnect operations."},
	{ID: goRealtime.MetricHeartbeatSent, Name: "gorealtime_heartbeat_sent_total", Help: "Heartbeat pings sent."},
	{ID: goRealtime.MetricPongReceived, Name: "gorealtime_pong_received_total", Help: "Heartbeat pongs received."},
	{ID: goRealtime.MetricPongTimeout, Name: "gorealtime_pong_timeout_total", Help: "Heartbeats that timed out waiting for a pong."},
	{ID: goRealtime.MetricEnvelopeDecodeError, Name: "gorealtime_envelope_decode_error_total", Help: "Inbound frames dropped as malformed."},
	{ID: goRealtime.MetricEnvelopeUnknownType, Name: "gorealtime_envelope_unknown_type_total", Help: "Inbound frames dropped with an unknown event type."},
	{ID: goRealtime.MetricBusEventDropped, Name: "gorealtime_bus_event_dropped_total", Help: "Events dropped by full channel subscriptions."},
	{ID: goRealtime.MetricBusHandlerPanic, Name: "gorealtime_bus_handler_panic_total", Help: "Recovered event handler panics."},
}

// HistogramDefs is the shared latency histogram catalog.
var HistogramDefs = []HistogramDef{
	{ID: goRealtime.MetricRenewLatency, Name: "gorealtime_renew_latency_seconds", Help: "Credential renewal latency histogram."},
	{ID: goRealtime.MetricRequestLatency, Name: "gorealtime_request_latency_seconds", Help: "Gateway request latency histogram."},
	{ID: goRealtime.MetricConnectLatency, Name: "gorealtime_connect_latency_seconds", Help: "Realtime handshake latency histogram."},
}

// HistogramBounds are the upper bounds of the fixed latency buckets, in
// seconds, matching what Metrics.Observe records.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix mirrors HistogramBounds with characters safe for
// metric name suffixes.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw snapshot slice to the fixed
// bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form
// histogram exposition expects.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
