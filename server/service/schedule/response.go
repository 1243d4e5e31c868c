package schedule

import (
	"fmt"
	"strings"
	"time"
)

// Action tags what kind of answer a Response is.
type Action string

const (
	ActionAppointmentConfirmed   Action = "appointment_confirmed"
	ActionBookingConflict        Action = "booking_conflict"
	ActionBookingFailed          Action = "booking_failed"
	ActionShowSlots              Action = "show_slots"
	ActionChooseAlternativeDate  Action = "choose_alternative_date"
	ActionNoAvailability         Action = "no_availability"
	ActionNeedsClarification     Action = "needs_clarification"
	ActionBusinessHoursViolation Action = "business_hours_violation"
	ActionWeekendViolation       Action = "weekend_violation"
	ActionCancellationNA         Action = "cancellation_not_available"
	ActionGeneralHelp            Action = "general_help"
	ActionError                  Action = "error"
)

// Response is the structured answer to one user message.
type Response struct {
	Message string `json:"message"`
	Action  Action `json:"action"`
	Success bool   `json:"success"`

	AvailableSlots     []SlotView          `json:"available_slots,omitempty"`
	AppointmentDetails *AppointmentDetails `json:"appointment_details,omitempty"`
	SuggestedDates     []DateView          `json:"suggested_dates,omitempty"`
	SuggestedTimes     []string            `json:"suggested_times,omitempty"`
	MissingInfo        []string            `json:"missing_info,omitempty"`
	AvailableCommands  []string            `json:"available_commands,omitempty"`

	Date          string       `json:"date,omitempty"`
	SlotSummary   *SlotSummary `json:"slot_summary,omitempty"`
	RequestedTime string       `json:"requested_time,omitempty"`
	BusinessHours string       `json:"business_hours,omitempty"`
	BusinessDays  string       `json:"business_days,omitempty"`
	ErrorCode     string       `json:"error_code,omitempty"`
	// Degraded is set when part of the answer came from a fallback path.
	Degraded  bool   `json:"degraded,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// SlotView is a slot as shown to users.
type SlotView struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Display   string    `json:"display"`
}

// DateView is a suggested day as shown to users.
type DateView struct {
	Date         string `json:"date"`
	DisplayDate  string `json:"display_date"`
	DayName      string `json:"day_name"`
	SlotsCount   int    `json:"slots_count,omitempty"`
	EarliestSlot string `json:"earliest_slot,omitempty"`
}

// SlotSummary condenses a day's availability.
type SlotSummary struct {
	Total        int    `json:"total"`
	Earliest     string `json:"earliest,omitempty"`
	Latest       string `json:"latest,omitempty"`
	HasMorning   bool   `json:"has_morning"`
	HasAfternoon bool   `json:"has_afternoon"`
}

// AppointmentDetails describes a booked event.
type AppointmentDetails struct {
	EventID         string    `json:"event_id"`
	Title           string    `json:"title"`
	Date            string    `json:"date"`
	StartTime       string    `json:"start_time"`
	EndTime         string    `json:"end_time"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes int       `json:"duration_minutes"`
	Link            string    `json:"link,omitempty"`
}

var helpCommands = []string{
	"Book appointment for [date] at [time]",
	"Show available slots for [date]",
	"Check my schedule for [date]",
	"Help with appointments",
}

func newSlotView(s Slot) SlotView {
	start, end := s.Start.Format(DisplayTimeLayout), s.End.Format(DisplayTimeLayout)
	return SlotView{
		Start:     s.Start,
		End:       s.End,
		StartTime: start,
		EndTime:   end,
		Display:   start + " - " + end,
	}
}

func newSlotViews(slots []Slot) []SlotView {
	views := make([]SlotView, len(slots))
	for i, s := range slots {
		views[i] = newSlotView(s)
	}
	return views
}

func newDateView(d time.Time) DateView {
	return DateView{
		Date:        d.Format(DateLayout),
		DisplayDate: d.Format(DisplayDateLayout),
		DayName:     d.Weekday().String(),
	}
}

func displayDay(d time.Time) string {
	return fmt.Sprintf("%s (%s)", d.Format(DisplayDateLayout), d.Weekday())
}

func clarificationResponse() *Response {
	return &Response{
		Message:     "I'd be happy to help you book an appointment! When would you like to schedule it? For example: 'tomorrow at 2 PM' or 'next Monday morning'.",
		Action:      ActionNeedsClarification,
		Success:     true,
		MissingInfo: []string{"date"},
	}
}

func slotsResponse(day *DayAvailability) *Response {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Available slots for **%s**:\n\nFound %d available time slots.", displayDay(day.Date), day.Count())
	switch {
	case day.HasMorning && day.HasAfternoon:
		sb.WriteString("\n\nMorning and afternoon slots available!")
	case day.HasMorning:
		sb.WriteString("\n\nMorning slots available!")
	case day.HasAfternoon:
		sb.WriteString("\n\nAfternoon slots available!")
	}
	sb.WriteString("\n\n")
	sb.WriteString(formatSlotList(day.Slots, 5))

	summary := &SlotSummary{
		Total:        day.Count(),
		HasMorning:   day.HasMorning,
		HasAfternoon: day.HasAfternoon,
	}
	if s := day.Earliest(); s != nil {
		summary.Earliest = s.Start.Format(DisplayTimeLayout)
	}
	if s := day.Latest(); s != nil {
		summary.Latest = s.Start.Format(DisplayTimeLayout)
	}

	return &Response{
		Message:        sb.String(),
		Action:         ActionShowSlots,
		Success:        true,
		AvailableSlots: newSlotViews(day.Slots),
		Date:           day.Date.Format(DateLayout),
		SlotSummary:    summary,
	}
}

func formatSlotList(slots []Slot, maxDisplay int) string {
	if len(slots) == 0 {
		return "No slots available"
	}
	lines := make([]string, 0, maxDisplay+1)
	for i, s := range slots {
		if i == maxDisplay {
			lines = append(lines, fmt.Sprintf("... and %d more slots", len(slots)-maxDisplay))
			break
		}
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, newSlotView(s).Display))
	}
	return strings.Join(lines, "\n")
}

func alternativesResponse(original time.Time, suggestions []DateSuggestion) *Response {
	if len(suggestions) == 0 {
		return &Response{
			Message: "Unfortunately, I couldn't find any available slots in the next week. Please try a different time period.",
			Action:  ActionNoAvailability,
			Success: false,
			Date:    original.Format(DateLayout),
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "No available slots found for %s. Here are some alternative dates with availability:\n\n", displayDay(original))
	views := make([]DateView, len(suggestions))
	for i, s := range suggestions {
		views[i] = newDateView(s.Date)
		views[i].SlotsCount = s.SlotCount
		views[i].EarliestSlot = s.Earliest.Start.Format(DisplayTimeLayout)
		fmt.Fprintf(&sb, "%d. **%s** (%s) - %d slots available\n", i+1, views[i].DisplayDate, views[i].DayName, s.SlotCount)
	}
	sb.WriteString("\nWhich date would you prefer?")

	return &Response{
		Message:        sb.String(),
		Action:         ActionChooseAlternativeDate,
		Success:        true,
		SuggestedDates: views,
		Date:           original.Format(DateLayout),
	}
}

func calendarUnavailableResponse(date time.Time) *Response {
	return &Response{
		Message:  fmt.Sprintf("I couldn't reach the calendar to check %s right now. Please try again in a moment.", displayDay(date)),
		Action:   ActionNoAvailability,
		Success:  true,
		Date:     date.Format(DateLayout),
		Degraded: true,
	}
}

func weekendResponse(date time.Time, verdict PolicyVerdict, hours BusinessHours) *Response {
	views := make([]DateView, len(verdict.SuggestedDates))
	names := make([]string, len(verdict.SuggestedDates))
	for i, d := range verdict.SuggestedDates {
		views[i] = newDateView(d)
		names[i] = fmt.Sprintf("%s (%s)", views[i].DisplayDate, views[i].DayName)
	}

	message := fmt.Sprintf("Sorry, we don't operate on %s.\n\n**Business Days**: %s only\n**Business Hours**: %s\n\n**Next available business days**: %s\n\nPlease choose a business day for your appointment.",
		date.Weekday(), hours.DaysDisplay(), hours.Display(), strings.Join(names, ", "))
	return &Response{
		Message:        message,
		Action:         ActionWeekendViolation,
		Success:        false,
		SuggestedDates: views,
		Date:           date.Format(DateLayout),
		BusinessHours:  hours.Display(),
		BusinessDays:   hours.DaysDisplay(),
	}
}

func businessHoursResponse(requested time.Time, verdict PolicyVerdict, hours BusinessHours) *Response {
	requestedTime := requested.Format(DisplayTimeLayout)
	reason := "is outside our business hours"
	switch verdict.Violation {
	case ViolationEndOverruns:
		reason = "would run past the end of our business hours"
	case ViolationInvalidWindow:
		reason = "does not have a valid duration"
	}
	message := fmt.Sprintf("Sorry, an appointment at %s %s.\n\n**Business Hours**: %s (%s)\n\n**Available times**: %s\n\nPlease choose a time within business hours for your appointment.",
		requestedTime, reason, hours.Display(), hours.DaysDisplay(), strings.Join(verdict.SuggestedTimes, ", "))
	return &Response{
		Message:        message,
		Action:         ActionBusinessHoursViolation,
		Success:        false,
		SuggestedTimes: verdict.SuggestedTimes,
		RequestedTime:  requestedTime,
		Date:           requested.Format(DateLayout),
		BusinessHours:  hours.Display(),
	}
}

func confirmationResponse(outcome *BookingOutcome) *Response {
	a := outcome.Appointment
	details := &AppointmentDetails{
		EventID:         outcome.Event.ID,
		Title:           a.Title,
		Date:            a.Start.Format(DisplayDateLayout),
		StartTime:       a.Start.Format(DisplayTimeLayout),
		EndTime:         a.End.Format(DisplayTimeLayout),
		Start:           a.Start,
		End:             a.End,
		DurationMinutes: int(a.End.Sub(a.Start).Minutes()),
		Link:            outcome.Event.Link,
	}
	message := fmt.Sprintf("Perfect! Your appointment has been successfully booked!\n\n**Date**: %s\n**Time**: %s - %s\n**Title**: %s",
		details.Date, details.StartTime, details.EndTime, details.Title)
	if details.Link != "" {
		message += fmt.Sprintf("\n**Calendar Link**: [open event](%s)", details.Link)
	}
	return &Response{
		Message:            message,
		Action:             ActionAppointmentConfirmed,
		Success:            true,
		AppointmentDetails: details,
		Date:               a.Start.Format(DateLayout),
	}
}

func conflictResponse(requested time.Time, alternatives []Slot, code string) *Response {
	requestedTime := requested.Format(DisplayTimeLayout)
	message := fmt.Sprintf("Unfortunately, %s on %s was just taken.", requestedTime, displayDay(requested))
	if len(alternatives) > 0 {
		message += " Here are some nearby alternatives:\n\n" + formatSlotList(alternatives, len(alternatives))
	} else {
		message += " Please pick another day."
	}
	return &Response{
		Message:        message,
		Action:         ActionBookingConflict,
		Success:        false,
		AvailableSlots: newSlotViews(alternatives),
		RequestedTime:  requestedTime,
		Date:           requested.Format(DateLayout),
		ErrorCode:      code,
	}
}

func bookingFailedResponse(code string) *Response {
	return &Response{
		Message:   "I found the time you asked for, but I couldn't create the appointment because of a technical problem. Please try again.",
		Action:    ActionBookingFailed,
		Success:   false,
		ErrorCode: code,
	}
}

func cancellationResponse() *Response {
	return &Response{
		Message: "Appointment cancellation is not available yet. Please cancel appointments directly in your calendar.",
		Action:  ActionCancellationNA,
		Success: true,
	}
}

func helpResponse(hours BusinessHours) *Response {
	message := fmt.Sprintf(`Hello! I'm your appointment assistant. Here's what I can help you with:

**Book appointments**
- "Book appointment tomorrow at 2 PM"
- "Schedule a meeting for next Monday at 10 AM"

**Check availability**
- "Show me available slots for tomorrow"
- "What times are free on Monday?"

Appointments can be booked %s, %s.

What would you like to do today?`, hours.DaysDisplay(), hours.Display())
	return &Response{
		Message:           message,
		Action:            ActionGeneralHelp,
		Success:           true,
		AvailableCommands: helpCommands,
		BusinessHours:     hours.Display(),
		BusinessDays:      hours.DaysDisplay(),
	}
}

func internalErrorResponse(code string) *Response {
	return &Response{
		Message:   "I apologize, but I encountered an error. Please try again.",
		Action:    ActionError,
		Success:   false,
		ErrorCode: code,
	}
}
