package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestParseModelOutput(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *ParsedIntent
	}{
		{
			name: "plain JSON",
			raw:  `{"intent":"book_appointment","date":"2026-10-16","time":"14:00","duration_minutes":30,"appointment_type":"meeting","confidence":"high"}`,
			want: &ParsedIntent{
				Intent:          IntentBook,
				Date:            strPtr("2026-10-16"),
				Time:            strPtr("14:00"),
				DurationMinutes: 30,
				AppointmentType: strPtr("meeting"),
				Confidence:      ConfidenceHigh,
				Source:          SourceModel,
			},
		},
		{
			name: "surrounding prose and code fence",
			raw:  "Sure! Here you go:\n```json\n{\"intent\": \"check_availability\", \"date\": \"tomorrow\", \"confidence\": \"medium\"}\n```\nAnything else?",
			want: &ParsedIntent{
				Intent:          IntentCheck,
				Date:            strPtr("tomorrow"),
				DurationMinutes: DefaultDurationMinutes,
				Confidence:      ConfidenceMedium,
				Source:          SourceModel,
			},
		},
		{
			name: "unknown intent and confidence normalise",
			raw:  `{"intent":"reschedule","confidence":"very sure"}`,
			want: &ParsedIntent{
				Intent:          IntentGeneralQuery,
				DurationMinutes: DefaultDurationMinutes,
				Confidence:      ConfidenceLow,
				Source:          SourceModel,
			},
		},
		{
			name: "null strings and bad duration",
			raw:  `{"intent":"BOOK_APPOINTMENT","date":"null","time":null,"duration_minutes":-15,"appointment_type":""}`,
			want: &ParsedIntent{
				Intent:          IntentBook,
				DurationMinutes: DefaultDurationMinutes,
				Confidence:      ConfidenceLow,
				Source:          SourceModel,
			},
		},
		{
			name: "duration as string",
			raw:  `{"intent":"book_appointment","duration_minutes":"45"}`,
			want: &ParsedIntent{
				Intent:          IntentBook,
				DurationMinutes: 45,
				Confidence:      ConfidenceLow,
				Source:          SourceModel,
			},
		},
		{
			name: "duration beyond one day is capped",
			raw:  `{"intent":"book_appointment","duration_minutes":200000000000}`,
			want: &ParsedIntent{
				Intent:          IntentBook,
				DurationMinutes: MaxDurationMinutes,
				Confidence:      ConfidenceLow,
				Source:          SourceModel,
			},
		},
		{
			name: "huge duration as string is capped",
			raw:  `{"intent":"book_appointment","duration_minutes":"1e30"}`,
			want: &ParsedIntent{
				Intent:          IntentBook,
				DurationMinutes: MaxDurationMinutes,
				Confidence:      ConfidenceLow,
				Source:          SourceModel,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseModelOutput(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseModelOutput_Errors(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{"no braces", "I cannot help with that.", ErrNoJSON},
		{"reversed braces", "} nope {", ErrNoJSON},
		{"empty object", "{}", ErrMissingIntent},
		{"missing intent", `{"date":"tomorrow"}`, ErrMissingIntent},
		{"null intent", `{"intent":null}`, ErrMissingIntent},
		{"broken JSON", `{"intent": "book_appointment",}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseModelOutput(tt.raw)
			require.Error(t, err)
			assert.Nil(t, got)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestParsedIntentHelpers(t *testing.T) {
	p := &ParsedIntent{}
	assert.False(t, p.HasDate())
	assert.False(t, p.HasTime())
	assert.Equal(t, "Appointment", p.TypeOr("Appointment"))

	p.Date = strPtr("tomorrow")
	p.Time = strPtr("")
	p.AppointmentType = strPtr("consultation")
	assert.True(t, p.HasDate())
	assert.False(t, p.HasTime())
	assert.Equal(t, "consultation", p.TypeOr("Appointment"))
}
