package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFallbackIntent(t *testing.T) {
	tests := []struct {
		text       string
		wantIntent Intent
		wantDate   string
		wantTime   string
	}{
		{"Book a meeting tomorrow at 2pm", IntentBook, "tomorrow", "2pm"},
		{"Can I schedule something today at 10 AM?", IntentBook, "today", "10am"},
		{"Show me free slots on Friday", IntentCheck, "next friday", ""},
		{"what's available monday 3 pm", IntentCheck, "next monday", "3pm"},
		{"Please cancel my appointment", IntentBook, "", ""},
		{"cancel tuesday 9am", IntentCancel, "next tuesday", "9am"},
		{"remove it", IntentCancel, "", ""},
		{"hello there", IntentGeneralQuery, "", ""},
		{"", IntentGeneralQuery, "", ""},
		{"book at 12pm", IntentBook, "", ""},
		{"booking for tomorrow or today", IntentBook, "tomorrow", ""},
		{"I'd like a slot at 2pm or 10am", IntentCheck, "", "2pm"},
		{"Please reschedule my meeting tomorrow at 2pm", IntentBook, "tomorrow", "2pm"},
		{"rebook me tomorrow at 10am", IntentBook, "tomorrow", "10am"},
		{"are any timeslots open tomorrow?", IntentCheck, "tomorrow", ""},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := FallbackIntent(tt.text)
			assert.Equal(t, tt.wantIntent, got.Intent)
			assert.Equal(t, DefaultDurationMinutes, got.DurationMinutes)
			assert.Equal(t, ConfidenceLow, got.Confidence)
			assert.Equal(t, SourceFallback, got.Source)
			assert.Equal(t, "appointment", got.TypeOr(""))

			if tt.wantDate == "" {
				assert.Nil(t, got.Date)
			} else if assert.NotNil(t, got.Date) {
				assert.Equal(t, tt.wantDate, *got.Date)
			}
			if tt.wantTime == "" {
				assert.Nil(t, got.Time)
			} else if assert.NotNil(t, got.Time) {
				assert.Equal(t, tt.wantTime, *got.Time)
			}
		})
	}
}
