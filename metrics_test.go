package staffguard

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricLoginSuccess)

	if got := m.Value(MetricLoginSuccess); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestMetricsConcurrentIncrementSafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 32
	const perG = 4000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricSessionEvicted)
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Value(MetricSessionEvicted); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMetricsHistogramBucketCorrectness(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})

	observations := []time.Duration{
		5 * time.Millisecond,
		10 * time.Millisecond,
		25 * time.Millisecond,
		50 * time.Millisecond,
		100 * time.Millisecond,
		250 * time.Millisecond,
		500 * time.Millisecond,
		700 * time.Millisecond,
	}
	for _, d := range observations {
		m.Observe(MetricCheckSessionLatency, d)
	}

	buckets := m.Snapshot().Histograms[MetricCheckSessionLatency]
	if len(buckets) != histBucketCount {
		t.Fatalf("expected %d buckets, got %d", histBucketCount, len(buckets))
	}
	for i, c := range buckets {
		if c != 1 {
			t.Fatalf("bucket %d = %d, want 1", i, c)
		}
	}
}

func TestLatencyBucketBoundariesAreInclusive(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want int
	}{
		{0, 0},
		{5 * time.Millisecond, 0},
		{5*time.Millisecond + time.Nanosecond, 1},
		{500 * time.Millisecond, len(LatencyBounds) - 1},
		{500*time.Millisecond + time.Nanosecond, len(LatencyBounds)},
		{time.Minute, len(LatencyBounds)},
	}
	for _, tc := range tests {
		if got := latencyBucket(tc.d); got != tc.want {
			t.Errorf("latencyBucket(%v) = %d, want %d", tc.d, got, tc.want)
		}
	}
}

func TestMetricsObserveIgnoresCounters(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	m.Observe(MetricLoginSuccess, time.Millisecond)

	if _, ok := m.Snapshot().Histograms[MetricLoginSuccess]; ok {
		t.Fatalf("counter metrics must not carry histograms")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{name: "defaults", mutate: func(*Config) {}, wantValid: true},
		{name: "zero threshold", mutate: func(c *Config) { c.Lockout.Threshold = 0 }},
		{name: "idle disabled", mutate: func(c *Config) { c.Sessions.IdleTimeout = 0 }, wantValid: true},
		{name: "both timeouts disabled", mutate: func(c *Config) {
			c.Sessions.IdleTimeout = 0
			c.Sessions.AbsoluteTimeout = 0
		}},
		{name: "idle exceeds absolute", mutate: func(c *Config) { c.Sessions.IdleTimeout = 9 * time.Hour }},
		{name: "zero quota", mutate: func(c *Config) { c.Sessions.RoleQuotas["staff"] = 0 }},
		{name: "empty quotas with default", mutate: func(c *Config) {
			c.Sessions.RoleQuotas = nil
			c.Sessions.DefaultQuota = 2
		}, wantValid: true},
		{name: "empty quotas without default", mutate: func(c *Config) { c.Sessions.RoleQuotas = nil }},
		{name: "no create attempts", mutate: func(c *Config) { c.Sessions.MaxCreateAttempts = 0 }},
		{name: "audit without buffer", mutate: func(c *Config) {
			c.Audit.Enabled = true
			c.Audit.BufferSize = 0
		}},
		{name: "histograms without metrics", mutate: func(c *Config) {
			c.Metrics.Enabled = false
			c.Metrics.EnableLatencyHistograms = true
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantValid && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tc.wantValid && err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestCloneConfigCopiesQuotas(t *testing.T) {
	cfg := DefaultConfig()
	clone := cloneConfig(cfg)
	clone.Sessions.RoleQuotas["staff"] = 99

	if cfg.Sessions.RoleQuotas["staff"] != 3 {
		t.Fatalf("clone shares the quota map")
	}
}
