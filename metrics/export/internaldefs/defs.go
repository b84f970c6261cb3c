package internaldefs

import (
	"strconv"
	"strings"

	"github.com/MrEthical07/staffguard"
)

// Def names one engine metric.
type Def struct {
	ID   staffguard.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in render order.
var CounterDefs = []Def{
	{ID: staffguard.MetricLoginSuccess, Name: "staffguard_login_success_total", Help: "Successful logins."},
	{ID: staffguard.MetricLoginFailure, Name: "staffguard_login_failure_total", Help: "Logins rejected for bad credentials."},
	{ID: staffguard.MetricLoginRejectedLocked, Name: "staffguard_login_rejected_locked_total", Help: "Logins rejected because the account was already locked."},
	{ID: staffguard.MetricAccountLocked, Name: "staffguard_account_locked_total", Help: "Accounts locked after repeated failures."},
	{ID: staffguard.MetricAccountUnlocked, Name: "staffguard_account_unlocked_total", Help: "Accounts unlocked by an administrator."},
	{ID: staffguard.MetricSessionCreated, Name: "staffguard_session_created_total", Help: "Sessions created."},
	{ID: staffguard.MetricSessionEvicted, Name: "staffguard_session_evicted_total", Help: "Sessions evicted by the per-role quota."},
	{ID: staffguard.MetricSessionExpiredIdle, Name: "staffguard_session_expired_idle_total", Help: "Sessions ended by the idle timeout."},
	{ID: staffguard.MetricSessionExpiredAbsolute, Name: "staffguard_session_expired_absolute_total", Help: "Sessions ended by the absolute timeout."},
	{ID: staffguard.MetricSessionNotFound, Name: "staffguard_session_not_found_total", Help: "Session checks for unknown ids."},
	{ID: staffguard.MetricSessionTerminated, Name: "staffguard_session_terminated_total", Help: "Sessions ended by logout."},
	{ID: staffguard.MetricSessionsTerminatedOthers, Name: "staffguard_sessions_terminated_others_total", Help: "Sessions ended by terminate-others."},
	{ID: staffguard.MetricStoreUnavailable, Name: "staffguard_store_unavailable_total", Help: "Operations failed closed on a store error."},
}

// HistogramDefs lists the exported latency histograms.
var HistogramDefs = []Def{
	{ID: staffguard.MetricCheckSessionLatency, Name: "staffguard_check_session_latency_seconds", Help: "CheckSession latency."},
}

// AuditDroppedName is the counter for audit events lost to backpressure.
const AuditDroppedName = "staffguard_audit_dropped_total"

// BucketCount is the engine's latency bounds plus the overflow bucket.
const BucketCount = len(staffguard.LatencyBounds) + 1

// Bucket labels one histogram bucket.
type Bucket struct {
	// Le is the Prometheus upper bound in seconds, "+Inf" for overflow.
	Le string
	// Suffix is Le spelled for instrument names: 0_005, inf.
	Suffix string
}

// Buckets holds the labels for every engine bucket, in order.
var Buckets = func() [BucketCount]Bucket {
	var out [BucketCount]Bucket
	for i, d := range staffguard.LatencyBounds {
		le := strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
		out[i] = Bucket{Le: le, Suffix: strings.ReplaceAll(le, ".", "_")}
	}
	out[BucketCount-1] = Bucket{Le: "+Inf", Suffix: "inf"}
	return out
}()

// Cumulative converts non-cumulative engine buckets into cumulative counts.
// Missing buckets count as zero.
func Cumulative(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i := range out {
		if i < len(raw) {
			running += raw[i]
		}
		out[i] = running
	}
	return out
}
