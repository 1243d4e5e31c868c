package store

import (
	"context"
	"errors"
	"time"
)

// ErrEventConflict is returned when a new event overlaps an existing one.
// Backends check this atomically with the insert.
var ErrEventConflict = errors.New("event overlaps an existing event")

// Event is a stored calendar event. Times are unix seconds.
type Event struct {
	ID          int32
	UID         string
	CreatedTs   int64
	Title       string
	Description string
	StartTs     int64
	EndTs       int64
}

// FindEvent is the find condition for events.
// StartBefore and EndAfter together select events overlapping [EndAfter, StartBefore).
type FindEvent struct {
	UID         *string
	StartBefore *int64
	EndAfter    *int64
	Limit       *int
}

// BusyInterval is an occupied span on the calendar.
type BusyInterval struct {
	Start time.Time
	End   time.Time
}

// EventCreate is the request to write a new event.
type EventCreate struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
}

// CreatedEvent identifies an event that was written.
type CreatedEvent struct {
	ID   string
	Link string
}

// ListBusyIntervals returns the events overlapping [start, end) ordered by start.
func (s *Store) ListBusyIntervals(ctx context.Context, start, end time.Time) ([]BusyInterval, error) {
	startBefore, endAfter := end.Unix(), start.Unix()
	events, err := s.driver.ListEvents(ctx, &FindEvent{
		StartBefore: &startBefore,
		EndAfter:    &endAfter,
	})
	if err != nil {
		return nil, err
	}

	intervals := make([]BusyInterval, 0, len(events))
	for _, event := range events {
		intervals = append(intervals, BusyInterval{
			Start: time.Unix(event.StartTs, 0).In(s.location),
			End:   time.Unix(event.EndTs, 0).In(s.location),
		})
	}
	return intervals, nil
}

// IsWindowFree reports whether no event overlaps [start, end).
func (s *Store) IsWindowFree(ctx context.Context, start, end time.Time) (bool, error) {
	startBefore, endAfter := end.Unix(), start.Unix()
	limit := 1
	events, err := s.driver.ListEvents(ctx, &FindEvent{
		StartBefore: &startBefore,
		EndAfter:    &endAfter,
		Limit:       &limit,
	})
	if err != nil {
		return false, err
	}
	return len(events) == 0, nil
}

// CreateEvent writes the event, returning ErrEventConflict if the window
// was taken in the meantime.
func (s *Store) CreateEvent(ctx context.Context, create *EventCreate) (*CreatedEvent, error) {
	if !create.End.After(create.Start) {
		return nil, errors.New("event end must be after start")
	}

	event, err := s.driver.CreateEvent(ctx, &Event{
		UID:         newEventUID(),
		Title:       create.Title,
		Description: create.Description,
		StartTs:     create.Start.Unix(),
		EndTs:       create.End.Unix(),
	})
	if err != nil {
		return nil, err
	}
	return &CreatedEvent{ID: event.UID, Link: s.eventLink(event.UID)}, nil
}

// GetEvent gets an event by uid. It returns nil when no event matches.
func (s *Store) GetEvent(ctx context.Context, uid string) (*Event, error) {
	limit := 1
	list, err := s.driver.ListEvents(ctx, &FindEvent{UID: &uid, Limit: &limit})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}
