package schedule

import (
	"context"
	"time"

	"github.com/hrygo/slotwise/store"
)

// CalendarBackend is the shared calendar the engine books into.
// It is the only durable state; everything else is computed per request.
type CalendarBackend interface {
	// ListBusyIntervals returns occupied spans overlapping [start, end),
	// ordered by start. No events is an empty slice, not an error.
	ListBusyIntervals(ctx context.Context, start, end time.Time) ([]store.BusyInterval, error)

	// IsWindowFree reports whether nothing overlaps [start, end).
	IsWindowFree(ctx context.Context, start, end time.Time) (bool, error)

	// CreateEvent writes the event. It returns store.ErrEventConflict when
	// the backend itself detects an overlap.
	CreateEvent(ctx context.Context, create *store.EventCreate) (*store.CreatedEvent, error)
}

// TimeWindow is a half-open interval [Start, End).
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// Duration returns the window length.
func (w TimeWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Slot is a free window of exactly the requested duration.
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}
