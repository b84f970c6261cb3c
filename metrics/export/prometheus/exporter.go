package prometheus

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/MrEthical07/staffguard"
	"github.com/MrEthical07/staffguard/metrics/export/internaldefs"
)

const contentType = "text/plain; version=0.0.4; charset=utf-8"

const auditDroppedHelp = "Audit events dropped because the dispatcher buffer was full."

// Source is satisfied by *staffguard.Engine.
type Source interface {
	MetricsSnapshot() staffguard.MetricsSnapshot
	AuditDropped() uint64
}

// Exporter serves engine metrics for scraping.
type Exporter struct {
	source Source
}

// New creates an exporter reading from source.
func New(source Source) *Exporter {
	return &Exporter{source: source}
}

// Handler serves the current metrics.
func (p *Exporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		var buf bytes.Buffer
		_, _ = p.WriteTo(&buf)
		w.Header().Set("Content-Type", contentType)
		_, _ = buf.WriteTo(w)
	})
}

// Render returns the exposition text. It is empty when metrics are disabled.
func (p *Exporter) Render() string {
	var b strings.Builder
	_, _ = p.WriteTo(&b)
	return b.String()
}

// WriteTo writes the exposition text to w and reports the bytes written.
func (p *Exporter) WriteTo(w io.Writer) (int64, error) {
	if p == nil || p.source == nil {
		return 0, nil
	}
	snap := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()
	if len(snap.Counters) == 0 && len(snap.Histograms) == 0 && dropped == 0 {
		return 0, nil
	}

	ew := &errWriter{w: w}
	for _, def := range internaldefs.CounterDefs {
		ew.counter(def.Name, def.Help, snap.Counters[def.ID])
	}
	for _, def := range internaldefs.HistogramDefs {
		ew.histogram(def.Name, def.Help, internaldefs.Cumulative(snap.Histograms[def.ID]))
	}
	ew.counter(internaldefs.AuditDroppedName, auditDroppedHelp, dropped)
	return ew.n, ew.err
}

// errWriter stops writing after the first error.
type errWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	n, err := fmt.Fprintf(e.w, format, args...)
	e.n += int64(n)
	e.err = err
}

func (e *errWriter) header(name, help, kind string) {
	e.printf("# HELP %s %s\n# TYPE %s %s\n", name, escapeHelp(help), name, kind)
}

func (e *errWriter) counter(name, help string, value uint64) {
	e.header(name, help, "counter")
	e.printf("%s %d\n", name, value)
}

func (e *errWriter) histogram(name, help string, cumulative [internaldefs.BucketCount]uint64) {
	e.header(name, help, "histogram")
	for i, b := range internaldefs.Buckets {
		e.printf("%s_bucket{le=%q} %d\n", name, b.Le, cumulative[i])
	}
	// Only bucket counts are kept, so the sum is always zero.
	e.printf("%s_count %d\n%s_sum 0\n", name, cumulative[internaldefs.BucketCount-1], name)
}

var helpEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`)

func escapeHelp(help string) string {
	return helpEscaper.Replace(help)
}
