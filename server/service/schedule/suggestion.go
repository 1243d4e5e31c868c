package schedule

import (
	"context"
	"log/slog"
	"time"
)

// DateSuggestion is an alternative day with free time.
type DateSuggestion struct {
	Date      time.Time
	SlotCount int
	Earliest  Slot
}

// AlternativeSuggester proposes other days when the requested one is full.
type AlternativeSuggester struct {
	resolver *AvailabilityResolver
	hours    BusinessHours
}

// NewAlternativeSuggester creates a new suggester.
func NewAlternativeSuggester(resolver *AvailabilityResolver, hours BusinessHours) *AlternativeSuggester {
	return &AlternativeSuggester{resolver: resolver, hours: hours}
}

// Suggest looks at up to MaxSuggestionProbeDays days after from, skipping
// non-business days, and returns at most limit days that have a slot, in
// ascending order.
func (s *AlternativeSuggester) Suggest(ctx context.Context, from time.Time, limit int, duration time.Duration) []DateSuggestion {
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}

	from = from.In(s.hours.location())
	midnight := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, s.hours.location())

	suggestions := make([]DateSuggestion, 0, limit)
	for i := 1; i <= MaxSuggestionProbeDays && len(suggestions) < limit; i++ {
		if ctx.Err() != nil {
			break
		}
		day := midnight.AddDate(0, 0, i)
		if !s.hours.IsBusinessDay(day) {
			continue
		}

		availability := s.resolver.FindSlots(ctx, day, duration)
		if availability.Count() == 0 {
			continue
		}
		suggestions = append(suggestions, DateSuggestion{
			Date:      day,
			SlotCount: availability.Count(),
			Earliest:  availability.Slots[0],
		})
	}

	slog.Debug("alternative dates suggested",
		"from", midnight.Format(DateLayout),
		"count", len(suggestions))
	return suggestions
}
