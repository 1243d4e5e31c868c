package observability

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Snapshot(t *testing.T) {
	m := NewMetrics(10)
	m.RecordRequest("appointment_confirmed", 10*time.Millisecond)
	m.RecordRequest("appointment_confirmed", 30*time.Millisecond)
	m.RecordRequest("booking_failed", 20*time.Millisecond)
	m.RecordFailure()
	m.RecordFallback()
	m.RecordConflict()
	m.RecordBackendUnavailable()

	s := m.Snapshot()
	assert.Equal(t, int64(3), s.RequestTotal)
	assert.Equal(t, int64(1), s.RequestFailed)
	assert.Equal(t, int64(1), s.IntentFallbacks)
	assert.Equal(t, int64(1), s.BookingConflicts)
	assert.Equal(t, int64(1), s.BackendUnavailable)
	assert.Equal(t, int64(2), s.Actions["appointment_confirmed"])
	assert.Equal(t, int64(1), s.Actions["booking_failed"])
	assert.Equal(t, 3, s.DurationCount)
	assert.Equal(t, int64(20), s.P50DurationMs)
	assert.InDelta(t, 66.67, s.SuccessRate(), 0.01)

	m.Reset()
	s = m.Snapshot()
	assert.Zero(t, s.RequestTotal)
	assert.Empty(t, s.Actions)
	assert.Equal(t, 100.0, s.SuccessRate())
}

func TestMetrics_DurationWindow(t *testing.T) {
	m := NewMetrics(2)
	for i := 1; i <= 5; i++ {
		m.RecordRequest("show_slots", time.Duration(i)*time.Millisecond)
	}
	s := m.Snapshot()
	assert.Equal(t, 2, s.DurationCount)
	assert.Equal(t, int64(5), s.P95DurationMs)
}

func TestMetrics_Concurrent(t *testing.T) {
	m := NewMetrics(100)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordRequest("show_slots", time.Millisecond)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(50), m.Snapshot().Actions["show_slots"])
}

func TestRequestContext(t *testing.T) {
	rc := NewRequestContext(slog.Default())
	require.NotEmpty(t, rc.RequestID)
	assert.Len(t, rc.RequestID, 36)

	other := NewRequestContext(nil)
	assert.NotEqual(t, rc.RequestID, other.RequestID)

	fixed := NewRequestContextWithID(nil, "req-1")
	assert.Equal(t, "req-1", fixed.RequestID)

	ctx := WithRequestContext(context.Background(), fixed)
	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, fixed, got)

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
}
