package observability

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects counters for assistant turns.
type Metrics struct {
	mu sync.Mutex

	requestTotal       atomic.Int64
	requestFailed      atomic.Int64
	intentFallbacks    atomic.Int64
	backendUnavailable atomic.Int64
	bookingConflicts   atomic.Int64

	actions map[string]*atomic.Int64

	durations    []time.Duration
	maxDurations int
}

// NewMetrics creates a new metrics collector keeping the last maxDurations samples.
func NewMetrics(maxDurations int) *Metrics {
	if maxDurations <= 0 {
		maxDurations = 1000
	}
	return &Metrics{
		actions:      make(map[string]*atomic.Int64),
		durations:    make([]time.Duration, 0, maxDurations),
		maxDurations: maxDurations,
	}
}

var globalMetrics = NewMetrics(1000)

// GlobalMetrics returns the process-wide metrics instance.
func GlobalMetrics() *Metrics {
	return globalMetrics
}

// RecordRequest records one finished turn and the action it ended with.
func (m *Metrics) RecordRequest(action string, duration time.Duration) {
	m.requestTotal.Add(1)

	m.mu.Lock()
	defer m.mu.Unlock()
	counter, ok := m.actions[action]
	if !ok {
		counter = &atomic.Int64{}
		m.actions[action] = counter
	}
	counter.Add(1)

	if len(m.durations) >= m.maxDurations {
		m.durations = m.durations[1:]
	}
	m.durations = append(m.durations, duration)
}

// RecordFailure records a turn that ended in a technical failure.
func (m *Metrics) RecordFailure() {
	m.requestFailed.Add(1)
}

// RecordFallback records a turn served by keyword intent extraction.
func (m *Metrics) RecordFallback() {
	m.intentFallbacks.Add(1)
}

// RecordBackendUnavailable records a calendar read that failed or timed out.
func (m *Metrics) RecordBackendUnavailable() {
	m.backendUnavailable.Add(1)
}

// RecordConflict records a booking lost between check and write.
func (m *Metrics) RecordConflict() {
	m.bookingConflicts.Add(1)
}

// Reset resets all metrics (useful for testing).
func (m *Metrics) Reset() {
	m.requestTotal.Store(0)
	m.requestFailed.Store(0)
	m.intentFallbacks.Store(0)
	m.backendUnavailable.Store(0)
	m.bookingConflicts.Store(0)

	m.mu.Lock()
	m.actions = make(map[string]*atomic.Int64)
	m.durations = make([]time.Duration, 0, m.maxDurations)
	m.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the counters.
func (m *Metrics) Snapshot() *MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	actions := make(map[string]int64, len(m.actions))
	for action, counter := range m.actions {
		actions[action] = counter.Load()
	}

	return &MetricsSnapshot{
		RequestTotal:       m.requestTotal.Load(),
		RequestFailed:      m.requestFailed.Load(),
		IntentFallbacks:    m.intentFallbacks.Load(),
		BackendUnavailable: m.backendUnavailable.Load(),
		BookingConflicts:   m.bookingConflicts.Load(),
		Actions:            actions,
		DurationCount:      len(m.durations),
		P50DurationMs:      percentile(m.durations, 50),
		P95DurationMs:      percentile(m.durations, 95),
	}
}

func percentile(durations []time.Duration, p int) int64 {
	if len(durations) == 0 {
		return 0
	}
	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	// nearest-rank
	idx := (len(sorted)*p+99)/100 - 1
	if idx < 0 {
		idx = 0
	}
	return sorted[idx].Milliseconds()
}

// MetricsSnapshot represents a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	RequestTotal       int64            `json:"request_total"`
	RequestFailed      int64            `json:"request_failed"`
	IntentFallbacks    int64            `json:"intent_fallbacks"`
	BackendUnavailable int64            `json:"backend_unavailable"`
	BookingConflicts   int64            `json:"booking_conflicts"`
	Actions            map[string]int64 `json:"actions"`
	DurationCount      int              `json:"duration_count"`
	P50DurationMs      int64            `json:"p50_duration_ms"`
	P95DurationMs      int64            `json:"p95_duration_ms"`
}

// SuccessRate returns the success rate as a percentage (0-100).
func (s *MetricsSnapshot) SuccessRate() float64 {
	if s.RequestTotal == 0 {
		return 100.0
	}
	return float64(s.RequestTotal-s.RequestFailed) / float64(s.RequestTotal) * 100.0
}
