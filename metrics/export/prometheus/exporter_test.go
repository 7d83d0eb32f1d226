package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goRealtime "github.com/MrEthical07/goRealtime"
)

type fakeSource struct {
	snapshot goRealtime.MetricsSnapshot
}

func (f fakeSource) Metrics() goRealtime.MetricsSnapshot { return f.snapshot }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goRealtime.MetricsSnapshot{
			Counters:   map[goRealtime.MetricID]uint64{},
			Histograms: map[goRealtime.MetricID][]uint64{},
		},
	})

	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderDeterministicIncludesCounterAndHistogram(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goRealtime.MetricsSnapshot{
			Counters: map[goRealtime.MetricID]uint64{
				goRealtime.MetricRenewSuccess: 7,
			},
			Histograms: map[goRealtime.MetricID][]uint64{
				goRealtime.MetricRenewLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
	})

	out := exp.Render()
	if !strings.Contains(out, "gorealtime_renew_success_total 7") {
		t.Fatalf("expected renew_success counter in output, got:\n%s", out)
	}
	if !strings.Contains(out, "gorealtime_renew_latency_seconds_bucket{le=\"0.005\"} 1") {
		t.Fatalf("expected first histogram bucket in output, got:\n%s", out)
	}
	if !strings.Contains(out, "gorealtime_renew_latency_seconds_bucket{le=\"+Inf\"} 36") {
		t.Fatalf("expected +Inf cumulative bucket in output, got:\n%s", out)
	}
}

func TestHandlerWritesPrometheusContentType(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goRealtime.MetricsSnapshot{
			Counters:   map[goRealtime.MetricID]uint64{goRealtime.MetricConnectSuccess: 1},
			Histograms: map[goRealtime.MetricID][]uint64{},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func BenchmarkRender(b *testing.B) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goRealtime.MetricsSnapshot{
			Counters: map[goRealtime.MetricID]uint64{
				goRealtime.MetricRenewSuccess:       1000,
				goRealtime.MetricRenewFailure:       40,
				goRealtime.MetricRequestSuccess:     800,
				goRealtime.MetricRequestFailure:     10,
				goRealtime.MetricConnectSuccess:     80,
				goRealtime.MetricReconnectScheduled: 20,
				goRealtime.MetricHeartbeatSent:      3000,
			},
			Histograms: map[goRealtime.MetricID][]uint64{
				goRealtime.MetricRequestLatency: {10, 20, 30, 40, 50, 60, 70, 80},
			},
		},
	})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = exp.Render()
	}
}
