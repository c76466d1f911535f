package internaldefs

import (
	goCheckin "github.com/MrEthical07/goCheckin"
)

// CounterDef binds an engine counter to its exported name.
type CounterDef struct {
	ID   goCheckin.MetricID
	Name string
	Help string
}

// HistogramDef binds an engine latency histogram to its exported name.
type HistogramDef struct {
	ID   goCheckin.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter exported for [goCheckin.Engine.AuditDropped].
const AuditDroppedName = "checkin_audit_dropped_total"

// AuditDroppedHelp is the help text of [AuditDroppedName].
const AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."

var CounterDefs = []CounterDef{
	{ID: goCheckin.MetricRestoreHit, Name: "checkin_restore_hit_total", Help: "Restores that found a persisted session."},
	{ID: goCheckin.MetricRestoreMiss, Name: "checkin_restore_miss_total", Help: "Restores that found no persisted session."},
	{ID: goCheckin.MetricRestoreCorrupt, Name: "checkin_restore_corrupt_total", Help: "Restores that fell back to anonymous on unreadable data."},
	{ID: goCheckin.MetricLoginSuccess, Name: "checkin_login_success_total", Help: "Successful logins."},
	{ID: goCheckin.MetricLoginRejected, Name: "checkin_login_rejected_total", Help: "Logins rejected by the auth endpoint."},
	{ID: goCheckin.MetricLoginInvalidInput, Name: "checkin_login_invalid_input_total", Help: "Logins rejected by local input checks."},
	{ID: goCheckin.MetricLoginTransportFailure, Name: "checkin_login_transport_failure_total", Help: "Logins that failed in transport."},
	{ID: goCheckin.MetricLoginInProgressRejected, Name: "checkin_login_in_progress_rejected_total", Help: "Logins refused because another was in flight."},
	{ID: goCheckin.MetricLoginSuperseded, Name: "checkin_login_superseded_total", Help: "Login completions discarded after logout."},
	{ID: goCheckin.MetricSessionPersistFailure, Name: "checkin_session_persist_failure_total", Help: "Failed writes or erases of the persisted session."},
	{ID: goCheckin.MetricLogout, Name: "checkin_logout_total", Help: "Logouts."},
	{ID: goCheckin.MetricPermissionGranted, Name: "checkin_camera_permission_granted_total", Help: "Camera permission grants."},
	{ID: goCheckin.MetricPermissionDenied, Name: "checkin_camera_permission_denied_total", Help: "Camera permission denials."},
	{ID: goCheckin.MetricScanAccepted, Name: "checkin_scan_accepted_total", Help: "Scans accepted by the gate."},
	{ID: goCheckin.MetricScanDropped, Name: "checkin_scan_dropped_total", Help: "Scans ignored by the gate."},
	{ID: goCheckin.MetricScanGranted, Name: "checkin_scan_granted_total", Help: "Scans resolved as access granted."},
	{ID: goCheckin.MetricScanDeclined, Name: "checkin_scan_declined_total", Help: "Scans resolved as access declined."},
	{ID: goCheckin.MetricScanExpired, Name: "checkin_scan_expired_total", Help: "Scans with unrecognized payloads."},
	{ID: goCheckin.MetricScanNetworkError, Name: "checkin_scan_network_error_total", Help: "Scans whose verification failed in transport."},
	{ID: goCheckin.MetricScanStaleDiscarded, Name: "checkin_scan_stale_discarded_total", Help: "Verification results discarded after a reset."},
	{ID: goCheckin.MetricScanAcknowledged, Name: "checkin_scan_acknowledged_total", Help: "Scan results acknowledged by the operator."},
}

var HistogramDefs = []HistogramDef{
	{ID: goCheckin.MetricLoginLatency, Name: "checkin_login_latency_seconds", Help: "Login call latency histogram."},
	{ID: goCheckin.MetricVerifyLatency, Name: "checkin_verify_latency_seconds", Help: "Verification call latency histogram."},
}

// HistogramBounds are the finite upper bounds in seconds; the engine's eighth bucket is +Inf.
var HistogramBounds = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// HistogramBoundSuffix names each bucket, +Inf included, for exporters without native
// histograms.
var HistogramBoundSuffix = []string{
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"1",
	"2_5",
	"5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed eight-bucket array, zero-filling missing buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
