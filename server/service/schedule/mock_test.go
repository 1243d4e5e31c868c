package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hrygo/slotwise/store"
)

// fakeCalendar is an in-memory CalendarBackend for tests.
type fakeCalendar struct {
	mu      sync.Mutex
	busy    []store.BusyInterval
	created []*store.EventCreate

	listErr   error
	freeErr   error
	createErr error
	// takenAfterCheck makes IsWindowFree report free while CreateEvent
	// reports a conflict, as if another client booked in between.
	takenAfterCheck bool
	listCalls       int
}

func (f *fakeCalendar) ListBusyIntervals(_ context.Context, start, end time.Time) ([]store.BusyInterval, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []store.BusyInterval{}
	for _, b := range f.busy {
		if b.Start.Before(end) && b.End.After(start) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeCalendar) IsWindowFree(_ context.Context, start, end time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.freeErr != nil {
		return false, f.freeErr
	}
	if f.takenAfterCheck {
		return true, nil
	}
	for _, b := range f.busy {
		if b.Start.Before(end) && b.End.After(start) {
			return false, nil
		}
	}
	return true, nil
}

func (f *fakeCalendar) CreateEvent(_ context.Context, create *store.EventCreate) (*store.CreatedEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.takenAfterCheck {
		return nil, store.ErrEventConflict
	}
	f.created = append(f.created, create)
	f.busy = append(f.busy, store.BusyInterval{Start: create.Start, End: create.End})
	id := fmt.Sprintf("evt-%d", len(f.created))
	return &store.CreatedEvent{ID: id, Link: "http://localhost/api/v1/events/" + id}, nil
}

// panicCalendar panics on every call.
type panicCalendar struct{}

func (panicCalendar) ListBusyIntervals(context.Context, time.Time, time.Time) ([]store.BusyInterval, error) {
	panic("calendar exploded")
}

func (panicCalendar) IsWindowFree(context.Context, time.Time, time.Time) (bool, error) {
	panic("calendar exploded")
}

func (panicCalendar) CreateEvent(context.Context, *store.EventCreate) (*store.CreatedEvent, error) {
	panic("calendar exploded")
}

func at(day, hour, minute int) time.Time {
	return time.Date(2025, time.June, day, hour, minute, 0, 0, time.UTC)
}

func busy(day, fromHour, fromMinute, toHour, toMinute int) store.BusyInterval {
	return store.BusyInterval{Start: at(day, fromHour, fromMinute), End: at(day, toHour, toMinute)}
}
