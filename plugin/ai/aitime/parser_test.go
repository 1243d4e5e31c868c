package aitime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// 2026-10-15 is a Thursday.
var reference = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

func newTestParser() *Parser {
	return NewParser(time.UTC).WithReference(reference)
}

func TestParser_ParseDate(t *testing.T) {
	parser := newTestParser()

	tests := []struct {
		name       string
		input      string
		wantDate   string
		recognized bool
	}{
		{"ISO date", "2026-11-02", "2026-11-02", true},
		{"ISO date with spaces", "  2026-11-02 ", "2026-11-02", true},
		{"today", "today", "2026-10-15", true},
		{"tomorrow", "Tomorrow", "2026-10-16", true},
		{"day after tomorrow", "day after tomorrow", "2026-10-17", true},
		{"overmorrow", "overmorrow", "2026-10-17", true},
		{"weekday", "monday", "2026-10-19", true},
		{"next weekday", "next friday", "2026-10-16", true},
		{"same weekday is next week", "thursday", "2026-10-22", true},
		{"this weekday", "this saturday", "2026-10-17", true},
		{"empty defaults to tomorrow", "", "2026-10-16", false},
		{"garbage defaults to tomorrow", "whenever works", "2026-10-16", false},
		{"malformed ISO defaults to tomorrow", "2026-13-45", "2026-10-16", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parser.ParseDate(tt.input)
			assert.Equal(t, tt.wantDate, got.Format("2006-01-02"))
			assert.Equal(t, tt.recognized, ok)
			assert.Equal(t, 0, got.Hour())
			assert.Equal(t, 0, got.Minute())
		})
	}
}

func TestParser_ParseClock(t *testing.T) {
	parser := newTestParser()

	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"14:30", "14:30", true},
		{"9:05", "09:05", true},
		{"10:", "10:00", true},
		{"2pm", "14:00", true},
		{"2 PM", "14:00", true},
		{"12pm", "12:00", true},
		{"12am", "00:00", true},
		{"9am", "09:00", true},
		{"3:30 pm", "15:30", true},
		{"16", "16:00", true},
		{"0", "00:00", true},
		{"", "14:00", false},
		{"noon-ish", "14:00", false},
		{"25", "14:00", false},
		{"10:75", "14:00", false},
		{"13pm", "14:00", false},
		{"pm", "14:00", false},
		{"-3", "14:00", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := parser.ParseClock(tt.input)
			assert.Equal(t, tt.want, got.String())
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestParser_Resolve(t *testing.T) {
	parser := newTestParser()

	got := parser.Resolve("tomorrow", "2pm")
	assert.Equal(t, time.Date(2026, 10, 16, 14, 0, 0, 0, time.UTC), got)

	got = parser.Resolve("", "")
	assert.Equal(t, time.Date(2026, 10, 16, 14, 0, 0, 0, time.UTC), got)
}

func TestParser_UsesTimezone(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	// 20:00 UTC on the 15th is already the 16th at UTC+9.
	parser := NewParser(loc).WithReference(time.Date(2026, 10, 15, 20, 0, 0, 0, time.UTC))

	got, ok := parser.ParseDate("today")
	assert.True(t, ok)
	assert.Equal(t, "2026-10-16", got.Format("2006-01-02"))
	assert.Equal(t, loc, got.Location())
}

func TestParser_NeverPanics(t *testing.T) {
	parser := newTestParser()
	inputs := []string{"", " ", "::", "a:b", "99:99pm", "\x00", "--------10", "next", "p.m."}
	for _, input := range inputs {
		assert.NotPanics(t, func() {
			parser.ParseDate(input)
			parser.ParseClock(input)
			parser.Resolve(input, input)
		})
	}
}
