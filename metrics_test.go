package goRealtime

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledIsNoop(t *testing.T) {
	m := NewMetrics(MetricsConfig{})
	m.Inc(MetricRenewSuccess)
	m.Observe(MetricRenewLatency, time.Millisecond)

	if got := m.Value(MetricRenewSuccess); got != 0 {
		t.Fatalf("disabled metrics counted: %d", got)
	}
	snap := m.Snapshot()
	if len(snap.Counters) != 0 || len(snap.Histograms) != 0 {
		t.Fatalf("disabled snapshot not empty: %+v", snap)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.Inc(MetricRenewSuccess)
	m.Observe(MetricRenewLatency, time.Millisecond)
	if m.Enabled() {
		t.Fatal("nil metrics reported enabled")
	}
	_ = m.Snapshot()
}

func TestIncAndSnapshot(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricConnectSuccess)
	m.Inc(MetricConnectSuccess)
	m.Inc(MetricHeartbeatSent)

	snap := m.Snapshot()
	if snap.Counters[MetricConnectSuccess] != 2 {
		t.Fatalf("expected 2 connects, got %d", snap.Counters[MetricConnectSuccess])
	}
	if snap.Counters[MetricHeartbeatSent] != 1 {
		t.Fatalf("expected 1 heartbeat, got %d", snap.Counters[MetricHeartbeatSent])
	}
}

func TestObserveRequiresLatencyEnabled(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Observe(MetricRenewLatency, time.Millisecond)

	if hist := m.Snapshot().Histograms[MetricRenewLatency]; len(hist) != 0 {
		t.Fatalf("histogram recorded without latency enabled: %v", hist)
	}
}

func TestObserveIgnoresNonLatencyIDs(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	m.Observe(MetricConnectSuccess, time.Millisecond)

	snap := m.Snapshot()
	for id, buckets := range snap.Histograms {
		for _, v := range buckets {
			if v != 0 {
				t.Fatalf("bucket for %d recorded from non-latency observe", id)
			}
		}
	}
}

func TestBucketIndexBoundaries(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want int
	}{
		{0, 0},
		{5 * time.Millisecond, 0},
		{6 * time.Millisecond, 1},
		{10 * time.Millisecond, 1},
		{25 * time.Millisecond, 2},
		{50 * time.Millisecond, 3},
		{100 * time.Millisecond, 4},
		{250 * time.Millisecond, 5},
		{500 * time.Millisecond, 6},
		{time.Second, 7},
		{time.Minute, 7},
	}
	for _, tc := range cases {
		if got := bucketIndex(tc.d); got != tc.want {
			t.Fatalf("bucketIndex(%v) = %d, want %d", tc.d, got, tc.want)
		}
	}
}

func TestObserveFillsBuckets(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	m.Observe(MetricRequestLatency, 3*time.Millisecond)
	m.Observe(MetricRequestLatency, 80*time.Millisecond)
	m.Observe(MetricRequestLatency, 2*time.Second)

	hist := m.Snapshot().Histograms[MetricRequestLatency]
	if len(hist) != histBucketCount {
		t.Fatalf("unexpected bucket count %d", len(hist))
	}
	if hist[0] != 1 || hist[4] != 1 || hist[7] != 1 {
		t.Fatalf("unexpected bucket distribution: %v", hist)
	}
}

func TestConcurrentIncrements(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const workers = 16
	const perWorker = 1000

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				m.Inc(MetricRequestSuccess)
			}
		}()
	}
	wg.Wait()

	if got := m.Value(MetricRequestSuccess); got != workers*perWorker {
		t.Fatalf("lost increments: got %d want %d", got, workers*perWorker)
	}
}
