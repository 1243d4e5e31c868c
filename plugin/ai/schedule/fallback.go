package schedule

import (
	"regexp"
	"strings"
)

type keywordRule[T any] struct {
	pattern *regexp.Regexp
	value   T
}

// Rules are evaluated in order; the first match wins. Intent and date
// keywords match anywhere in the text ("reschedule", "timeslots"); time
// keywords need word boundaries so "12pm" is not read as "2pm".
var (
	intentRules = []keywordRule[Intent]{
		{regexp.MustCompile(`(book|schedule|appointment|create|make)`), IntentBook},
		{regexp.MustCompile(`(available|free|slots?|show|check)`), IntentCheck},
		{regexp.MustCompile(`(cancel|delete|remove)`), IntentCancel},
	}

	dateRules = []keywordRule[string]{
		{regexp.MustCompile(`tomorrow`), "tomorrow"},
		{regexp.MustCompile(`today`), "today"},
		{regexp.MustCompile(`monday`), "next monday"},
		{regexp.MustCompile(`tuesday`), "next tuesday"},
		{regexp.MustCompile(`friday`), "next friday"},
	}

	timeRules = []keywordRule[string]{
		{regexp.MustCompile(`\b2 ?pm\b`), "2pm"},
		{regexp.MustCompile(`\b10 ?am\b`), "10am"},
		{regexp.MustCompile(`\b3 ?pm\b`), "3pm"},
		{regexp.MustCompile(`\b9 ?am\b`), "9am"},
	}
)

const fallbackAppointmentType = "appointment"

// FallbackIntent reads intent from keywords alone. It is used whenever the
// language model is unavailable or its output cannot be parsed, and it
// never fails.
func FallbackIntent(text string) *ParsedIntent {
	lower := strings.ToLower(text)

	intent, _ := firstMatch(intentRules, lower)
	if intent == "" {
		intent = IntentGeneralQuery
	}

	appointmentType := fallbackAppointmentType
	parsed := &ParsedIntent{
		Intent:          intent,
		DurationMinutes: DefaultDurationMinutes,
		AppointmentType: &appointmentType,
		Confidence:      ConfidenceLow,
		Source:          SourceFallback,
	}
	if date, ok := firstMatch(dateRules, lower); ok {
		parsed.Date = &date
	}
	if clock, ok := firstMatch(timeRules, lower); ok {
		parsed.Time = &clock
	}
	return parsed
}

func firstMatch[T any](rules []keywordRule[T], s string) (T, bool) {
	for _, r := range rules {
		if r.pattern.MatchString(s) {
			return r.value, true
		}
	}
	var zero T
	return zero, false
}
