package resetflow

import "sync/atomic"

// MetricID identifies a counter in the in-process metrics system.
type MetricID uint16

const (
	// MetricResetRequestSuccess counts challenges issued and delivered.
	MetricResetRequestSuccess MetricID = iota
	// MetricResetRequestFailure counts failed RequestReset calls of any kind.
	MetricResetRequestFailure
	// MetricDeliveryFailure counts mail sends that failed and triggered a
	// challenge rollback.
	MetricDeliveryFailure
	// MetricVerifySuccess counts challenges consumed by a correct code.
	MetricVerifySuccess
	// MetricVerifyFailure counts VerifyChallenge failures of any kind.
	MetricVerifyFailure
	// MetricChallengeExpired counts challenges found expired and deleted on
	// access.
	MetricChallengeExpired
	// MetricCommitSuccess counts completed password changes.
	MetricCommitSuccess
	// MetricCommitFailure counts CommitNewPassword failures of any kind.
	MetricCommitFailure
	// MetricAuthorizationExpired counts authorizations found expired and
	// deleted on access.
	MetricAuthorizationExpired
	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds atomic counters. When disabled, all operations are no-ops.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics creates a [Metrics] instance configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Enabled reports whether counters are being recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc adds one to the counter. No-op when disabled or out of range.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Value reads a single counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}

	s := MetricsSnapshot{Counters: make(map[MetricID]uint64, int(metricIDCount))}
	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return s
}
