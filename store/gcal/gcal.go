// Package gcal is a calendar backend on top of the Google Calendar API.
package gcal

import (
	"context"
	"errors"
	"net/http"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/hrygo/slotwise/internal/profile"
	"github.com/hrygo/slotwise/store"
)

// Calendar reads and writes one Google calendar.
type Calendar struct {
	svc        *calendar.Service
	calendarID string
	location   *time.Location
}

// New creates a Calendar client. opts carry credentials or, in tests, an
// endpoint and HTTP client.
func New(ctx context.Context, calendarID string, loc *time.Location, opts ...option.ClientOption) (*Calendar, error) {
	if calendarID == "" {
		calendarID = "primary"
	}
	if loc == nil {
		loc = time.UTC
	}
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &Calendar{svc: svc, calendarID: calendarID, location: loc}, nil
}

// NewFromProfile creates a Calendar from service account credentials.
// Inline JSON takes precedence over a credentials file.
func NewFromProfile(ctx context.Context, p *profile.Profile) (*Calendar, error) {
	loc, err := p.Location()
	if err != nil {
		return nil, err
	}

	opts := []option.ClientOption{option.WithScopes(calendar.CalendarScope)}
	switch {
	case p.GoogleCredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(p.GoogleCredentialsJSON)))
	case p.GoogleCredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(p.GoogleCredentialsFile))
	default:
		return nil, errors.New("google credentials are not configured")
	}
	return New(ctx, p.CalendarID, loc, opts...)
}

// ListBusyIntervals returns the opaque events overlapping [start, end),
// ordered by start. Cancelled and transparent events do not block time.
func (c *Calendar) ListBusyIntervals(ctx context.Context, start, end time.Time) ([]store.BusyInterval, error) {
	var intervals []store.BusyInterval
	call := c.svc.Events.List(c.calendarID).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx)

	err := call.Pages(ctx, func(events *calendar.Events) error {
		for _, item := range events.Items {
			if item.Status == "cancelled" || item.Transparency == "transparent" {
				continue
			}
			interval, ok := c.toInterval(item)
			if !ok {
				continue
			}
			intervals = append(intervals, interval)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return intervals, nil
}

// IsWindowFree asks the free/busy endpoint about exactly [start, end).
func (c *Calendar) IsWindowFree(ctx context.Context, start, end time.Time) (bool, error) {
	resp, err := c.svc.Freebusy.Query(&calendar.FreeBusyRequest{
		TimeMin:  start.Format(time.RFC3339),
		TimeMax:  end.Format(time.RFC3339),
		TimeZone: c.location.String(),
		Items:    []*calendar.FreeBusyRequestItem{{Id: c.calendarID}},
	}).Context(ctx).Do()
	if err != nil {
		return false, err
	}

	cal, ok := resp.Calendars[c.calendarID]
	if !ok {
		return false, errors.New("calendar missing from free/busy response")
	}
	if len(cal.Errors) > 0 {
		return false, errors.New("free/busy error: " + cal.Errors[0].Reason)
	}
	for _, period := range cal.Busy {
		busyStart, err1 := time.Parse(time.RFC3339, period.Start)
		busyEnd, err2 := time.Parse(time.RFC3339, period.End)
		if err1 != nil || err2 != nil {
			return false, errors.New("malformed free/busy period")
		}
		if busyStart.Before(end) && busyEnd.After(start) {
			return false, nil
		}
	}
	return true, nil
}

// CreateEvent inserts the event. Google does not reject overlapping
// events, so a 409 only means the event id already exists.
func (c *Calendar) CreateEvent(ctx context.Context, create *store.EventCreate) (*store.CreatedEvent, error) {
	event, err := c.svc.Events.Insert(c.calendarID, &calendar.Event{
		Summary:     create.Title,
		Description: create.Description,
		Start: &calendar.EventDateTime{
			DateTime: create.Start.In(c.location).Format(time.RFC3339),
			TimeZone: c.location.String(),
		},
		End: &calendar.EventDateTime{
			DateTime: create.End.In(c.location).Format(time.RFC3339),
			TimeZone: c.location.String(),
		},
	}).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict {
			return nil, store.ErrEventConflict
		}
		return nil, err
	}
	return &store.CreatedEvent{ID: event.Id, Link: event.HtmlLink}, nil
}

// toInterval converts an event to a busy span. All-day events block whole
// days in the calendar's location.
func (c *Calendar) toInterval(item *calendar.Event) (store.BusyInterval, bool) {
	if item.Start == nil || item.End == nil {
		return store.BusyInterval{}, false
	}
	if item.Start.DateTime != "" {
		start, err1 := time.Parse(time.RFC3339, item.Start.DateTime)
		end, err2 := time.Parse(time.RFC3339, item.End.DateTime)
		if err1 != nil || err2 != nil {
			return store.BusyInterval{}, false
		}
		return store.BusyInterval{Start: start.In(c.location), End: end.In(c.location)}, true
	}

	start, err1 := time.ParseInLocation("2006-01-02", item.Start.Date, c.location)
	end, err2 := time.ParseInLocation("2006-01-02", item.End.Date, c.location)
	if err1 != nil || err2 != nil {
		return store.BusyInterval{}, false
	}
	return store.BusyInterval{Start: start, End: end}, true
}
