// Package schedule recovers structured booking intent from free text.
package schedule

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/hrygo/slotwise/plugin/ai"
)

// Intent is what the user wants to do.
type Intent string

const (
	IntentBook         Intent = "book_appointment"
	IntentCheck        Intent = "check_availability"
	IntentCancel       Intent = "cancel_appointment"
	IntentGeneralQuery Intent = "general_query"
)

// Confidence is the extractor's self-reported certainty.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// DefaultDurationMinutes is used when no positive duration is given.
const DefaultDurationMinutes = 60

// MaxDurationMinutes caps a requested duration at one day.
const MaxDurationMinutes = 24 * 60

// Source tells where a ParsedIntent came from.
type Source string

const (
	SourceModel    Source = "model"
	SourceFallback Source = "fallback"
)

// ParsedIntent is the structured reading of one user message.
// Date and Time hold raw expressions; they are resolved by aitime.
type ParsedIntent struct {
	Intent          Intent     `json:"intent"`
	Date            *string    `json:"date"`
	Time            *string    `json:"time"`
	DurationMinutes int        `json:"duration_minutes"`
	AppointmentType *string    `json:"appointment_type"`
	Confidence      Confidence `json:"confidence"`

	Source Source `json:"-"`
	// FallbackReason is set when Source is SourceFallback.
	FallbackReason ai.FailureReason `json:"-"`
}

// HasDate reports whether a date expression was recovered.
func (p *ParsedIntent) HasDate() bool {
	return p.Date != nil && *p.Date != ""
}

// HasTime reports whether a time expression was recovered.
func (p *ParsedIntent) HasTime() bool {
	return p.Time != nil && *p.Time != ""
}

// TypeOr returns the appointment type or def when unset.
func (p *ParsedIntent) TypeOr(def string) string {
	if p.AppointmentType == nil || *p.AppointmentType == "" {
		return def
	}
	return *p.AppointmentType
}

var (
	// ErrNoJSON is returned when the model output holds no JSON object.
	ErrNoJSON = errors.New("no JSON object in model output")
	// ErrMissingIntent is returned for an empty object or one without "intent".
	ErrMissingIntent = errors.New("model output has no intent")
)

// ParseModelOutput extracts a ParsedIntent from raw model text.
// The JSON object is taken as the substring between the first '{' and the
// last '}', so surrounding prose or code fences are ignored.
func ParseModelOutput(raw string) (*ParsedIntent, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return nil, ErrNoJSON
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(raw[start:end+1]), &fields); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrMissingIntent
	}
	rawIntent, ok := fields["intent"]
	if !ok || rawIntent == nil {
		return nil, ErrMissingIntent
	}

	return &ParsedIntent{
		Intent:          normalizeIntent(stringField(rawIntent)),
		Date:            optionalString(fields["date"]),
		Time:            optionalString(fields["time"]),
		DurationMinutes: normalizeDuration(fields["duration_minutes"]),
		AppointmentType: optionalString(fields["appointment_type"]),
		Confidence:      normalizeConfidence(stringField(fields["confidence"])),
		Source:          SourceModel,
	}, nil
}

func normalizeIntent(s string) Intent {
	switch Intent(strings.ToLower(strings.TrimSpace(s))) {
	case IntentBook:
		return IntentBook
	case IntentCheck:
		return IntentCheck
	case IntentCancel:
		return IntentCancel
	default:
		return IntentGeneralQuery
	}
}

func normalizeConfidence(s string) Confidence {
	switch Confidence(strings.ToLower(strings.TrimSpace(s))) {
	case ConfidenceHigh:
		return ConfidenceHigh
	case ConfidenceMedium:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func normalizeDuration(v any) int {
	var minutes float64
	switch d := v.(type) {
	case float64:
		minutes = d
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(d), 64)
		if err == nil {
			minutes = n
		}
	}
	switch {
	case math.IsNaN(minutes) || minutes < 1:
		return DefaultDurationMinutes
	case minutes > MaxDurationMinutes:
		return MaxDurationMinutes
	}
	return int(minutes)
}

func stringField(v any) string {
	s, _ := v.(string)
	return s
}

// optionalString treats missing values, empty strings and the literal
// "null" as absent.
func optionalString(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") || strings.EqualFold(s, "none") {
		return nil
	}
	return &s
}
