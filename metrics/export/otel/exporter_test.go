package otel

import (
	"context"
	"sync"
	"testing"

	"github.com/MrEthical07/staffguard"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeSource struct {
	mu       sync.RWMutex
	snapshot staffguard.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() staffguard.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := staffguard.MetricsSnapshot{
		Counters:   make(map[staffguard.MetricID]uint64, len(f.snapshot.Counters)),
		Histograms: make(map[staffguard.MetricID][]uint64, len(f.snapshot.Histograms)),
	}
	for k, v := range f.snapshot.Counters {
		out.Counters[k] = v
	}
	for k, buckets := range f.snapshot.Histograms {
		out.Histograms[k] = append([]uint64(nil), buckets...)
	}
	return out
}

func (f *fakeSource) AuditDropped() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dropped
}

func newMeter() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	return reader, sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
}

// sumValue returns the single int64 data point of the named metric.
func sumValue(t *testing.T, rm metricdata.ResourceMetrics, name string) (int64, bool) {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				if len(data.DataPoints) == 1 {
					return data.DataPoints[0].Value, true
				}
			case metricdata.Gauge[int64]:
				if len(data.DataPoints) == 1 {
					return data.DataPoints[0].Value, true
				}
			}
		}
	}
	return 0, false
}

func TestExporterRegistersAndCollects(t *testing.T) {
	reader, provider := newMeter()
	src := &fakeSource{
		snapshot: staffguard.MetricsSnapshot{
			Counters: map[staffguard.MetricID]uint64{
				staffguard.MetricLoginSuccess:  3,
				staffguard.MetricAccountLocked: 1,
			},
			Histograms: map[staffguard.MetricID][]uint64{
				staffguard.MetricCheckSessionLatency: {1, 1, 1, 1, 1, 1, 1, 1},
			},
		},
		dropped: 1,
	}

	exp, err := New(provider.Meter("staffguard-test"), src)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	checks := map[string]int64{
		"staffguard_login_success_total":                          3,
		"staffguard_account_locked_total":                         1,
		"staffguard_audit_dropped_total":                          1,
		"staffguard_check_session_latency_seconds_bucket_le_inf":  8,
		"staffguard_check_session_latency_seconds_bucket_le_0_05": 4,
		"staffguard_check_session_latency_seconds_count":          8,
	}
	for name, want := range checks {
		got, ok := sumValue(t, rm, name)
		if !ok {
			t.Fatalf("metric %s not collected", name)
		}
		if got != want {
			t.Fatalf("%s = %d, want %d", name, got, want)
		}
	}
}

func TestExporterRejectsNilArguments(t *testing.T) {
	_, provider := newMeter()
	if _, err := New(provider.Meter("staffguard-test"), nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}
	if _, err := New(nil, &fakeSource{}); err != ErrNilMeter {
		t.Fatalf("expected ErrNilMeter, got %v", err)
	}
}

func TestExporterConcurrentCollectNoPanic(t *testing.T) {
	reader, provider := newMeter()
	src := &fakeSource{
		snapshot: staffguard.MetricsSnapshot{
			Counters: map[staffguard.MetricID]uint64{staffguard.MetricLoginSuccess: 1},
			Histograms: map[staffguard.MetricID][]uint64{
				staffguard.MetricCheckSessionLatency: {1, 0, 0, 0, 0, 0, 0, 0},
			},
		},
	}

	exp, err := New(provider.Meter("staffguard-test"), src)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer exp.Close()

	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			<-start
			src.mu.Lock()
			src.snapshot.Counters[staffguard.MetricLoginSuccess] = v
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			_ = reader.Collect(context.Background(), &rm)
		}(uint64(i + 1))
	}
	close(start)
	wg.Wait()
}
