package prometheus

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MrEthical07/staffguard"
)

type fakeSource struct {
	snapshot staffguard.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() staffguard.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                        { return f.dropped }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := New(fakeSource{snapshot: staffguard.MetricsSnapshot{
		Counters:   map[staffguard.MetricID]uint64{},
		Histograms: map[staffguard.MetricID][]uint64{},
	}})
	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
	if got := (*Exporter)(nil).Render(); got != "" {
		t.Fatalf("nil exporter rendered %q", got)
	}
}

func TestRenderCountersAndHistogram(t *testing.T) {
	exp := New(fakeSource{
		snapshot: staffguard.MetricsSnapshot{
			Counters: map[staffguard.MetricID]uint64{
				staffguard.MetricLoginSuccess:     7,
				staffguard.MetricAccountLocked:    1,
				staffguard.MetricSessionEvicted:   2,
				staffguard.MetricStoreUnavailable: 3,
			},
			Histograms: map[staffguard.MetricID][]uint64{
				staffguard.MetricCheckSessionLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	out := exp.Render()
	for _, want := range []string{
		"staffguard_login_success_total 7",
		"staffguard_account_locked_total 1",
		"staffguard_session_evicted_total 2",
		"staffguard_store_unavailable_total 3",
		"staffguard_session_expired_idle_total 0",
		`staffguard_check_session_latency_seconds_bucket{le="0.005"} 1`,
		`staffguard_check_session_latency_seconds_bucket{le="+Inf"} 36`,
		"staffguard_check_session_latency_seconds_count 36",
		"staffguard_audit_dropped_total 2",
		"# TYPE staffguard_check_session_latency_seconds histogram",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestRenderFromEngine(t *testing.T) {
	engine, err := staffguard.New().
		WithAccountProvider(noAccounts{}).
		WithLatencyHistograms(true).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer engine.Close()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	_, _ = engine.CheckSession(ctx, "missing")

	out := New(engine).Render()
	if !strings.Contains(out, "staffguard_session_not_found_total 1") {
		t.Fatalf("expected not-found counter, got:\n%s", out)
	}
	if !strings.Contains(out, `staffguard_check_session_latency_seconds_bucket{le="+Inf"} 1`) {
		t.Fatalf("expected one latency sample, got:\n%s", out)
	}
}

func TestHandlerWritesPrometheusContentType(t *testing.T) {
	exp := New(fakeSource{snapshot: staffguard.MetricsSnapshot{
		Counters: map[staffguard.MetricID]uint64{staffguard.MetricLoginSuccess: 1},
	}})

	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func BenchmarkRender(b *testing.B) {
	exp := New(fakeSource{snapshot: staffguard.MetricsSnapshot{
		Counters: map[staffguard.MetricID]uint64{
			staffguard.MetricLoginSuccess:       1000,
			staffguard.MetricLoginFailure:       40,
			staffguard.MetricSessionCreated:     1000,
			staffguard.MetricSessionExpiredIdle: 300,
		},
		Histograms: map[staffguard.MetricID][]uint64{
			staffguard.MetricCheckSessionLatency: {10, 20, 30, 40, 50, 60, 70, 80},
		},
	}})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = exp.Render()
	}
}

type failingWriter struct{ calls int }

func (f *failingWriter) Write(p []byte) (int, error) {
	f.calls++
	return 0, errors.New("closed")
}

func TestWriteToStopsAtFirstError(t *testing.T) {
	exp := New(fakeSource{dropped: 1})
	w := &failingWriter{}
	n, err := exp.WriteTo(w)
	if err == nil || n != 0 {
		t.Fatalf("expected error and no bytes, got n=%d err=%v", n, err)
	}
	if w.calls != 1 {
		t.Fatalf("expected a single write attempt, got %d", w.calls)
	}
}

func TestEscapeHelp(t *testing.T) {
	if got := escapeHelp("a\\b\nc"); got != `a\\b\nc` {
		t.Fatalf("escapeHelp = %q", got)
	}
}
