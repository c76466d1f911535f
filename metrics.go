package goCheckin

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one engine counter or histogram.
type MetricID uint16

const (
	// MetricRestoreHit counts restores that found a persisted session.
	MetricRestoreHit MetricID = iota
	// MetricRestoreMiss counts restores that found nothing persisted.
	MetricRestoreMiss
	// MetricRestoreCorrupt counts restores that fell back to anonymous on unreadable data.
	MetricRestoreCorrupt
	// MetricLoginSuccess counts successful logins.
	MetricLoginSuccess
	// MetricLoginRejected counts logins explicitly rejected by the auth endpoint.
	MetricLoginRejected
	// MetricLoginInvalidInput counts logins short-circuited by local input checks.
	MetricLoginInvalidInput
	// MetricLoginTransportFailure counts logins that failed in transport.
	MetricLoginTransportFailure
	// MetricLoginInProgressRejected counts logins refused because one was in flight.
	MetricLoginInProgressRejected
	// MetricLoginSuperseded counts login completions discarded after a logout.
	MetricLoginSuperseded
	// MetricSessionPersistFailure counts failed writes or erases of the session record.
	MetricSessionPersistFailure
	// MetricLogout counts logouts.
	MetricLogout
	// MetricPermissionGranted counts camera grants.
	MetricPermissionGranted
	// MetricPermissionDenied counts camera denials, including source failures.
	MetricPermissionDenied
	// MetricScanAccepted counts submissions that entered validation.
	MetricScanAccepted
	// MetricScanDropped counts submissions ignored by the gate or missing permission.
	MetricScanDropped
	// MetricScanGranted counts granted outcomes.
	MetricScanGranted
	// MetricScanDeclined counts declined outcomes.
	MetricScanDeclined
	// MetricScanExpired counts unrecognized payloads.
	MetricScanExpired
	// MetricScanNetworkError counts verification transport failures.
	MetricScanNetworkError
	// MetricScanStaleDiscarded counts verification completions discarded after a reset.
	MetricScanStaleDiscarded
	// MetricScanAcknowledged counts results returned to idle.
	MetricScanAcknowledged
	// MetricLoginLatency is the login call latency histogram.
	MetricLoginLatency
	// MetricVerifyLatency is the verification call latency histogram.
	MetricVerifyLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is a set of lock-free counters and fixed-bucket latency histograms.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of all metric values.
// Histograms hold non-cumulative bucket counts.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics describes the newmetrics operation and its observable behavior.
//
// A disabled Metrics accepts every call and records nothing.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether latency histograms are recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc describes the inc operation and its observable behavior.
//
// Inc is safe for concurrent use and a no-op on nil or disabled metrics.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram of a latency metric. Non-latency IDs are ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if !isLatencyMetric(id) {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current counter value of id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot describes the snapshot operation and its observable behavior.
//
// Snapshot returns empty maps when metrics are disabled.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 2),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if isLatencyMetric(id) {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		for _, id := range []MetricID{MetricLoginLatency, MetricVerifyLatency} {
			buckets := make([]uint64, histBucketCount)
			for i := 0; i < histBucketCount; i++ {
				buckets[i] = atomic.LoadUint64(&m.histograms[id].buckets[i])
			}
			s.Histograms[id] = buckets
		}
	}

	return s
}

func isLatencyMetric(id MetricID) bool {
	return id == MetricLoginLatency || id == MetricVerifyLatency
}

// Bucket upper bounds: 50ms, 100ms, 250ms, 500ms, 1s, 2.5s, 5s, +Inf.
func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 50:
		return 0
	case ms <= 100:
		return 1
	case ms <= 250:
		return 2
	case ms <= 500:
		return 3
	case ms <= 1000:
		return 4
	case ms <= 2500:
		return 5
	case ms <= 5000:
		return 6
	default:
		return 7
	}
}
