package schedule

import (
	"fmt"
	"strings"
	"time"
)

// PromptRules describes the calendar policy the model is told about.
type PromptRules struct {
	StartHour int
	EndHour   int
	Days      []time.Weekday
}

const (
	promptTemperature = 0.1
	promptMaxTokens   = 500
	promptDateLayout  = "2006-01-02"
)

const systemPrompt = `You are a professional appointment assistant. You help users:
- Schedule appointments on a shared calendar
- Check availability for meetings
Always be polite, professional, and efficient.`

// buildUserPrompt renders the extraction instructions around the message.
// Relative dates in the prompt are anchored on reference, not on the wall clock.
func buildUserPrompt(message string, reference time.Time, rules PromptRules) string {
	today := reference
	tomorrow := reference.AddDate(0, 0, 1)
	overmorrow := reference.AddDate(0, 0, 2)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Extract appointment information from: %q\n\n", message)

	sb.WriteString("CURRENT CONTEXT:\n")
	fmt.Fprintf(&sb, "- Today is %s (%s)\n", today.Format(promptDateLayout), today.Weekday())
	fmt.Fprintf(&sb, "- Tomorrow is %s\n", tomorrow.Format(promptDateLayout))
	fmt.Fprintf(&sb, "- Day after tomorrow is %s\n\n", overmorrow.Format(promptDateLayout))

	sb.WriteString("BUSINESS RULES:\n")
	fmt.Fprintf(&sb, "- Business Days: %s ONLY\n", describeDays(rules.Days))
	fmt.Fprintf(&sb, "- Business Hours: %s to %s\n\n", hourLabel(rules.StartHour), hourLabel(rules.EndHour))

	sb.WriteString("Convert ALL date expressions to YYYY-MM-DD format and times to HH:MM (24-hour).\n\n")
	sb.WriteString(`Return ONLY this JSON:
{
    "intent": "book_appointment|check_availability|cancel_appointment|general_query",
    "date": "YYYY-MM-DD format or null",
    "time": "HH:MM format (24-hour) or null",
    "duration_minutes": 60,
    "appointment_type": "meeting|appointment|etc or null",
    "confidence": "high|medium|low"
}

NO explanations, ONLY the JSON.`)
	return sb.String()
}

func describeDays(days []time.Weekday) string {
	if len(days) == 0 {
		return "Monday to Friday"
	}
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = d.String()
	}
	return strings.Join(names, ", ")
}

func hourLabel(hour int) string {
	return time.Date(2000, 1, 1, hour, 0, 0, 0, time.UTC).Format("3:04 PM")
}
