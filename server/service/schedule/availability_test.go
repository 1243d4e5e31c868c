package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/slotwise/store"
)

func slotStarts(slots []Slot) []time.Time {
	starts := make([]time.Time, len(slots))
	for i, s := range slots {
		starts[i] = s.Start
	}
	return starts
}

func TestAvailabilityResolver_FindSlots(t *testing.T) {
	tests := []struct {
		name     string
		busy     []store.BusyInterval
		duration time.Duration
		tiling   bool
		want     []time.Time
	}{
		{
			name:     "empty day starts at opening",
			duration: time.Hour,
			want:     []time.Time{at(12, 10, 0)},
		},
		{
			name:     "empty day tiled",
			duration: time.Hour,
			tiling:   true,
			want: []time.Time{
				at(12, 10, 0), at(12, 11, 0), at(12, 12, 0), at(12, 13, 0),
				at(12, 14, 0), at(12, 15, 0), at(12, 16, 0), at(12, 17, 0),
			},
		},
		{
			name:     "one slot per gap",
			busy:     []store.BusyInterval{busy(12, 14, 0, 15, 30), busy(12, 11, 0, 12, 0)},
			duration: time.Hour,
			want:     []time.Time{at(12, 10, 0), at(12, 12, 0), at(12, 15, 30)},
		},
		{
			name:     "overlapping busy intervals",
			busy:     []store.BusyInterval{busy(12, 10, 30, 12, 0), busy(12, 11, 0, 13, 0)},
			duration: time.Hour,
			want:     []time.Time{at(12, 13, 0)},
		},
		{
			name:     "nested busy interval does not move the cursor back",
			busy:     []store.BusyInterval{busy(12, 10, 0, 14, 0), busy(12, 11, 0, 12, 0)},
			duration: time.Hour,
			want:     []time.Time{at(12, 14, 0)},
		},
		{
			name:     "busy interval starting before opening",
			busy:     []store.BusyInterval{busy(12, 9, 0, 10, 30)},
			duration: time.Hour,
			want:     []time.Time{at(12, 10, 30)},
		},
		{
			name:     "gap exactly the duration",
			busy:     []store.BusyInterval{busy(12, 10, 0, 11, 0), busy(12, 12, 0, 18, 0)},
			duration: time.Hour,
			want:     []time.Time{at(12, 11, 0)},
		},
		{
			name:     "gap shorter than the duration",
			busy:     []store.BusyInterval{busy(12, 10, 30, 18, 0)},
			duration: time.Hour,
			want:     []time.Time{},
		},
		{
			name:     "shorter duration fits a short gap",
			busy:     []store.BusyInterval{busy(12, 10, 30, 18, 0)},
			duration: 30 * time.Minute,
			want:     []time.Time{at(12, 10, 0)},
		},
		{
			name:     "fully booked",
			busy:     []store.BusyInterval{busy(12, 8, 0, 19, 0)},
			duration: time.Hour,
			want:     []time.Time{},
		},
		{
			name:     "tiling skips busy hour",
			busy:     []store.BusyInterval{busy(12, 12, 0, 13, 0)},
			duration: time.Hour,
			tiling:   true,
			want: []time.Time{
				at(12, 10, 0), at(12, 11, 0), at(12, 13, 0), at(12, 14, 0),
				at(12, 15, 0), at(12, 16, 0), at(12, 17, 0),
			},
		},
		{
			name: "non-positive duration uses the default",
			want: []time.Time{at(12, 10, 0)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calendar := &fakeCalendar{busy: tt.busy}
			resolver := NewAvailabilityResolver(calendar, DefaultBusinessHours(), WithTiling(tt.tiling))

			day := resolver.FindSlots(context.Background(), at(12, 0, 0), tt.duration)
			require.False(t, day.BackendUnavailable)
			assert.Equal(t, at(12, 10, 0), day.Date)
			assert.Equal(t, tt.want, slotStarts(day.Slots))

			duration := tt.duration
			if duration <= 0 {
				duration = DefaultDuration
			}
			for _, s := range day.Slots {
				assert.Equal(t, duration, s.End.Sub(s.Start))
				assert.False(t, s.End.After(at(12, 18, 0)))
				for _, b := range tt.busy {
					overlaps := s.Start.Before(b.End) && s.End.After(b.Start)
					assert.False(t, overlaps, "slot %v overlaps busy %v", s, b)
				}
			}
		})
	}
}

func TestAvailabilityResolver_MorningAfternoonFlags(t *testing.T) {
	calendar := &fakeCalendar{busy: []store.BusyInterval{busy(12, 10, 0, 13, 0)}}
	resolver := NewAvailabilityResolver(calendar, DefaultBusinessHours())

	day := resolver.FindSlots(context.Background(), at(12, 0, 0), time.Hour)
	assert.False(t, day.HasMorning)
	assert.True(t, day.HasAfternoon)
	require.NotNil(t, day.Earliest())
	assert.Equal(t, at(12, 13, 0), day.Earliest().Start)
	assert.Equal(t, day.Earliest(), day.Latest())
}

func TestAvailabilityResolver_BackendUnavailable(t *testing.T) {
	calendar := &fakeCalendar{listErr: errors.New("connection refused")}
	resolver := NewAvailabilityResolver(calendar, DefaultBusinessHours())

	day := resolver.FindSlots(context.Background(), at(12, 0, 0), time.Hour)
	assert.True(t, day.BackendUnavailable)
	assert.Zero(t, day.Count())
	assert.Nil(t, day.Earliest())
	assert.Nil(t, day.Latest())
}
