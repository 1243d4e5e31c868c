// Package aitime turns the date and time expressions produced by intent
// extraction into absolute instants.
//
// Every method is total: malformed input degrades to a fixed default
// (tomorrow for dates, 14:00 for times) instead of returning an error.
package aitime

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultHour is the hour used when a time expression cannot be parsed.
	DefaultHour = 14
	// DefaultMinute is the minute used when a time expression cannot be parsed.
	DefaultMinute = 0

	isoDateLayout = "2006-01-02"
)

// relDateOffsets maps relative date keywords to day offsets.
var relDateOffsets = map[string]int{
	"today":              0,
	"tomorrow":           1,
	"day after tomorrow": 2,
	"overmorrow":         2,
}

// weekdayMap maps weekday names to time.Weekday.
var weekdayMap = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

var (
	weekdayPrefixPattern = regexp.MustCompile(`^(?:next|this|on)\s+`)
	meridiemPattern      = regexp.MustCompile(`^(.*?)\s*([ap])\.?m\.?$`)
)

// Clock is a time of day.
type Clock struct {
	Hour   int
	Minute int
}

// String formats the clock as HH:MM.
func (c Clock) String() string {
	return twoDigits(c.Hour) + ":" + twoDigits(c.Minute)
}

// DefaultClock is returned for any time expression that cannot be understood.
var DefaultClock = Clock{Hour: DefaultHour, Minute: DefaultMinute}

// Parser resolves date and time expressions relative to a reference instant.
type Parser struct {
	timezone *time.Location
	now      func() time.Time
}

// NewParser creates a new parser with the given timezone.
func NewParser(timezone *time.Location) *Parser {
	if timezone == nil {
		timezone = time.Local
	}
	return &Parser{
		timezone: timezone,
		now:      time.Now,
	}
}

// WithReference returns a parser whose "now" is fixed to reference.
func (p *Parser) WithReference(reference time.Time) *Parser {
	return &Parser{
		timezone: p.timezone,
		now:      func() time.Time { return reference },
	}
}

// Location returns the parser's timezone.
func (p *Parser) Location() *time.Location {
	return p.timezone
}

// Today returns the reference date at midnight.
func (p *Parser) Today() time.Time {
	return DayStart(p.now().In(p.timezone))
}

// ParseDate resolves a date expression to a midnight instant.
// The boolean reports whether the expression was recognized; unrecognized input
// resolves to tomorrow.
func (p *Parser) ParseDate(expr string) (time.Time, bool) {
	today := p.Today()
	expr = strings.ToLower(strings.TrimSpace(expr))

	if len(expr) == len(isoDateLayout) && strings.Count(expr, "-") == 2 {
		if t, err := time.ParseInLocation(isoDateLayout, expr, p.timezone); err == nil {
			return t, true
		}
		slog.Warn("invalid ISO date, defaulting to tomorrow", "input", expr)
		return today.AddDate(0, 0, 1), false
	}

	if offset, ok := relDateOffsets[expr]; ok {
		return today.AddDate(0, 0, offset), true
	}

	if weekday, ok := weekdayMap[weekdayPrefixPattern.ReplaceAllString(expr, "")]; ok {
		return nextWeekday(today, weekday), true
	}

	slog.Info("unrecognized date expression, defaulting to tomorrow",
		"input", expr,
		"confidence", "low",
	)
	return today.AddDate(0, 0, 1), false
}

// ParseClock resolves a time expression such as "14:30", "2pm", "9 am" or "15".
// The boolean reports whether the expression was understood; otherwise the
// result is DefaultClock.
func (p *Parser) ParseClock(expr string) (Clock, bool) {
	expr = strings.ToLower(strings.TrimSpace(expr))
	if expr == "" {
		return DefaultClock, false
	}

	meridiem := byte(0)
	if m := meridiemPattern.FindStringSubmatch(expr); m != nil {
		expr, meridiem = strings.TrimSpace(m[1]), m[2][0]
	}

	var hour, minute int
	var err error
	if hourPart, minutePart, found := strings.Cut(expr, ":"); found {
		if hour, err = strconv.Atoi(strings.TrimSpace(hourPart)); err != nil {
			return DefaultClock, false
		}
		if minutePart = strings.TrimSpace(minutePart); minutePart != "" {
			if minute, err = strconv.Atoi(minutePart); err != nil {
				return DefaultClock, false
			}
		}
	} else if hour, err = strconv.Atoi(expr); err != nil {
		return DefaultClock, false
	}

	switch meridiem {
	case 'p':
		if hour != 12 {
			hour += 12
		}
	case 'a':
		if hour == 12 {
			hour = 0
		}
	}

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return DefaultClock, false
	}
	return Clock{Hour: hour, Minute: minute}, true
}

// Resolve combines a date expression and a time expression into one instant.
func (p *Parser) Resolve(dateExpr, clockExpr string) time.Time {
	date, _ := p.ParseDate(dateExpr)
	clock, _ := p.ParseClock(clockExpr)
	return At(date, clock)
}

// At returns the instant of clock on date's day.
func At(date time.Time, clock Clock) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), clock.Hour, clock.Minute, 0, 0, date.Location())
}

// DayStart truncates t to midnight in its own location.
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// nextWeekday returns the next strictly-future occurrence of weekday.
func nextWeekday(from time.Time, weekday time.Weekday) time.Time {
	days := int(weekday) - int(from.Weekday())
	if days <= 0 {
		days += 7
	}
	return from.AddDate(0, 0, days)
}

func twoDigits(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
