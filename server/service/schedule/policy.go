package schedule

import (
	"strings"
	"time"

	"github.com/hrygo/slotwise/internal/profile"
)

// Violation names the first business rule a window breaks.
type Violation string

const (
	ViolationNone        Violation = "none"
	ViolationWeekend     Violation = "weekend"
	ViolationBeforeHours Violation = "before_hours"
	ViolationAfterHours  Violation = "after_hours"
	ViolationEndOverruns Violation = "end_overruns_hours"

	// ViolationInvalidWindow is a window that does not end after it starts.
	ViolationInvalidWindow Violation = "invalid_window"
)

// Suggested clock times offered with each hours violation.
var (
	beforeHoursSuggestions = []string{"10:00", "11:00", "12:00", "14:00"}
	afterHoursSuggestions  = []string{"14:00", "15:00", "16:00", "17:00"}
	endOverrunSuggestions  = []string{"10:00", "11:00", "14:00", "15:00"}
)

// PolicyVerdict is the result of checking a window against business hours.
type PolicyVerdict struct {
	Allowed        bool
	Violation      Violation
	SuggestedTimes []string
	SuggestedDates []time.Time
}

// BusinessHours is the calendar policy: which days are bookable and the
// daily [StartHour, EndHour) window. Both validation and slot search read it.
type BusinessHours struct {
	StartHour int
	EndHour   int
	Days      []time.Weekday
	Location  *time.Location
}

// DefaultBusinessHours is Monday to Friday, 10:00 to 18:00 UTC.
func DefaultBusinessHours() BusinessHours {
	return BusinessHours{
		StartHour: 10,
		EndHour:   18,
		Days:      []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		Location:  time.UTC,
	}
}

// NewBusinessHours reads the policy from a validated profile.
func NewBusinessHours(p *profile.Profile) (BusinessHours, error) {
	days, err := p.Weekdays()
	if err != nil {
		return BusinessHours{}, err
	}
	loc, err := p.Location()
	if err != nil {
		return BusinessHours{}, err
	}
	hours := BusinessHours{
		StartHour: p.BusinessStartHour,
		EndHour:   p.BusinessEndHour,
		Days:      days,
		Location:  loc,
	}
	if hours.StartHour == 0 && hours.EndHour == 0 {
		hours.StartHour, hours.EndHour = 10, 18
	}
	return hours, nil
}

func (b BusinessHours) location() *time.Location {
	if b.Location == nil {
		return time.UTC
	}
	return b.Location
}

// IsBusinessDay reports whether d falls on a bookable weekday.
func (b BusinessHours) IsBusinessDay(d time.Time) bool {
	weekday := d.In(b.location()).Weekday()
	for _, day := range b.Days {
		if day == weekday {
			return true
		}
	}
	return false
}

// Open returns the start of business on d's calendar day.
func (b BusinessHours) Open(d time.Time) time.Time {
	d = d.In(b.location())
	return time.Date(d.Year(), d.Month(), d.Day(), b.StartHour, 0, 0, 0, b.location())
}

// Close returns the end of business on d's calendar day.
func (b BusinessHours) Close(d time.Time) time.Time {
	d = d.In(b.location())
	return time.Date(d.Year(), d.Month(), d.Day(), b.EndHour, 0, 0, 0, b.location())
}

// Validate checks the window. A window that does not end after it starts
// is rejected outright; otherwise the first violation wins, in the order
// weekend, before hours, after hours, end overrun.
func (b BusinessHours) Validate(w TimeWindow) PolicyVerdict {
	if !w.End.After(w.Start) {
		return PolicyVerdict{Violation: ViolationInvalidWindow, SuggestedTimes: b.suggestTimes(endOverrunSuggestions)}
	}
	start := w.Start.In(b.location())

	if !b.IsBusinessDay(start) {
		return PolicyVerdict{
			Violation:      ViolationWeekend,
			SuggestedDates: b.NextBusinessDays(start, DefaultSuggestionLimit),
		}
	}

	openAt, closeAt := b.Open(start), b.Close(start)
	switch {
	case start.Before(openAt):
		return PolicyVerdict{Violation: ViolationBeforeHours, SuggestedTimes: b.suggestTimes(beforeHoursSuggestions)}
	case !start.Before(closeAt):
		return PolicyVerdict{Violation: ViolationAfterHours, SuggestedTimes: b.suggestTimes(afterHoursSuggestions)}
	case w.End.After(closeAt):
		return PolicyVerdict{Violation: ViolationEndOverruns, SuggestedTimes: b.suggestTimes(endOverrunSuggestions)}
	}

	return PolicyVerdict{Allowed: true, Violation: ViolationNone}
}

// NextBusinessDays returns up to n business days strictly after from,
// scanning at most MaxBusinessDayScan days. Each is midnight in the policy
// location.
func (b BusinessHours) NextBusinessDays(from time.Time, n int) []time.Time {
	from = from.In(b.location())
	midnight := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, b.location())

	days := make([]time.Time, 0, n)
	for i := 1; i <= MaxBusinessDayScan && len(days) < n; i++ {
		d := midnight.AddDate(0, 0, i)
		if b.IsBusinessDay(d) {
			days = append(days, d)
		}
	}
	return days
}

// suggestTimes keeps the candidates that start a one-hour window inside
// business hours. With a custom policy none may fit; then the opening hour
// is offered.
func (b BusinessHours) suggestTimes(candidates []string) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		t, err := time.Parse(ClockLayout, c)
		if err != nil {
			continue
		}
		if t.Hour() >= b.StartHour && t.Hour()+1 <= b.EndHour {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		out = append(out, time.Date(2000, 1, 1, b.StartHour, 0, 0, 0, time.UTC).Format(ClockLayout))
	}
	return out
}

// Display renders the daily window, e.g. "10:00 AM - 6:00 PM".
func (b BusinessHours) Display() string {
	return hourDisplay(b.StartHour) + " - " + hourDisplay(b.EndHour)
}

// DaysDisplay renders the bookable weekdays, e.g. "Monday to Friday".
func (b BusinessHours) DaysDisplay() string {
	if len(b.Days) == 0 {
		return "none"
	}
	contiguous := true
	for i := 1; i < len(b.Days); i++ {
		if b.Days[i] != b.Days[i-1]+1 {
			contiguous = false
			break
		}
	}
	if contiguous && len(b.Days) > 2 {
		return b.Days[0].String() + " to " + b.Days[len(b.Days)-1].String()
	}
	names := make([]string, len(b.Days))
	for i, d := range b.Days {
		names[i] = d.String()
	}
	return strings.Join(names, ", ")
}

func hourDisplay(hour int) string {
	return time.Date(2000, 1, 1, hour, 0, 0, 0, time.UTC).Format("3:04 PM")
}
