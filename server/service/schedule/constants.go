package schedule

import "time"

const (
	// DefaultDuration is used when a request carries no positive duration.
	DefaultDuration = 60 * time.Minute

	// MaxSuggestionProbeDays bounds how many days after the requested date
	// the alternative suggester looks at.
	MaxSuggestionProbeDays = 7

	// DefaultSuggestionLimit is how many alternative dates are offered.
	DefaultSuggestionLimit = 3

	// MaxBusinessDayScan bounds the search for upcoming business days.
	MaxBusinessDayScan = 14

	// ConflictAlternatives is how many slots are offered after a lost race.
	ConflictAlternatives = 3
)

// Display layouts.
const (
	DateLayout        = "2006-01-02"
	DisplayDateLayout = "January 02, 2006"
	DisplayTimeLayout = "03:04 PM"
	ClockLayout       = "15:04"
)
