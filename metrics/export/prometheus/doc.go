// Package prometheus provides Prometheus collectors for goRealtime metrics.
//
// [NewPrometheusExporter] accepts a [goRealtime.Client] and exposes an [http.Handler]
// that renders all goRealtime counters and histograms in Prometheus text exposition
// format. Counter names are prefixed gorealtime_*_total; histograms are the
// gorealtime_*_latency_seconds family.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate client state.
package prometheus
