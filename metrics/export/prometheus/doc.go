// Package prometheus renders staffguard engine metrics in the Prometheus text
// exposition format. Counters are named staffguard_*_total; CheckSession
// latency is the staffguard_check_session_latency_seconds histogram.
//
// Nothing is registered globally: callers mount [Exporter.Handler].
package prometheus
