package schedule

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/hrygo/slotwise/plugin/ai/timeout"
	"github.com/hrygo/slotwise/store"
)

// DayAvailability is the free time found on one business day.
type DayAvailability struct {
	Date         time.Time
	Slots        []Slot
	HasMorning   bool
	HasAfternoon bool
	// BackendUnavailable is set when the calendar could not be read. Slots
	// is then empty, but that does not mean the day is full.
	BackendUnavailable bool
}

// Count returns the number of slots.
func (d *DayAvailability) Count() int {
	return len(d.Slots)
}

// Earliest returns the first slot, or nil.
func (d *DayAvailability) Earliest() *Slot {
	if len(d.Slots) == 0 {
		return nil
	}
	return &d.Slots[0]
}

// Latest returns the last slot, or nil.
func (d *DayAvailability) Latest() *Slot {
	if len(d.Slots) == 0 {
		return nil
	}
	return &d.Slots[len(d.Slots)-1]
}

// AvailabilityResolver finds free slots inside business hours.
type AvailabilityResolver struct {
	backend CalendarBackend
	hours   BusinessHours
	tiling  bool
}

// ResolverOption configures an AvailabilityResolver.
type ResolverOption func(*AvailabilityResolver)

// WithTiling makes the resolver emit every duration-aligned slot in a gap
// instead of one slot per gap.
func WithTiling(enabled bool) ResolverOption {
	return func(r *AvailabilityResolver) {
		r.tiling = enabled
	}
}

// NewAvailabilityResolver creates a new resolver.
func NewAvailabilityResolver(backend CalendarBackend, hours BusinessHours, opts ...ResolverOption) *AvailabilityResolver {
	r := &AvailabilityResolver{backend: backend, hours: hours}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FindSlots returns the free slots of the given length on date's calendar
// day. It does not check whether date is a business day. A calendar failure
// yields no slots with BackendUnavailable set.
func (r *AvailabilityResolver) FindSlots(ctx context.Context, date time.Time, duration time.Duration) *DayAvailability {
	if duration <= 0 {
		duration = DefaultDuration
	}

	dayStart, dayEnd := r.hours.Open(date), r.hours.Close(date)
	result := &DayAvailability{Date: dayStart}

	callCtx, cancel := context.WithTimeout(ctx, timeout.CalendarTimeout)
	defer cancel()
	busy, err := r.backend.ListBusyIntervals(callCtx, dayStart, dayEnd)
	if err != nil {
		slog.Warn("failed to list busy intervals",
			"date", dayStart.Format(DateLayout),
			"error", err)
		result.BackendUnavailable = true
		return result
	}

	result.Slots = r.findSlotsInRange(busy, dayStart, dayEnd, duration)
	for _, slot := range result.Slots {
		if slot.Start.Hour() < 12 {
			result.HasMorning = true
		} else {
			result.HasAfternoon = true
		}
	}
	return result
}

// findSlotsInRange walks the busy intervals in start order with a cursor and
// emits a slot for every gap of at least duration.
func (r *AvailabilityResolver) findSlotsInRange(busy []store.BusyInterval, rangeStart, rangeEnd time.Time, duration time.Duration) []Slot {
	sorted := make([]store.BusyInterval, 0, len(busy))
	for _, b := range busy {
		if b.End.After(b.Start) {
			sorted = append(sorted, b)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	slots := make([]Slot, 0)
	current := rangeStart
	for _, b := range sorted {
		if !b.End.After(current) {
			continue
		}
		if current.Before(rangeEnd) && b.Start.After(current) {
			gapEnd := b.Start
			if gapEnd.After(rangeEnd) {
				gapEnd = rangeEnd
			}
			slots = r.appendGap(slots, current, gapEnd, duration)
		}
		current = b.End
	}
	if current.Before(rangeEnd) {
		slots = r.appendGap(slots, current, rangeEnd, duration)
	}
	return slots
}

func (r *AvailabilityResolver) appendGap(slots []Slot, gapStart, gapEnd time.Time, duration time.Duration) []Slot {
	loc := r.hours.location()
	if !r.tiling {
		if gapEnd.Sub(gapStart) >= duration {
			slots = append(slots, Slot{Start: gapStart.In(loc), End: gapStart.Add(duration).In(loc)})
		}
		return slots
	}
	for t := gapStart; !t.Add(duration).After(gapEnd); t = t.Add(duration) {
		slots = append(slots, Slot{Start: t.In(loc), End: t.Add(duration).In(loc)})
	}
	return slots
}
