package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	aischedule "github.com/hrygo/slotwise/plugin/ai/schedule"
)

// maxDurationMinutes bounds the duration query parameter to one working day.
const maxDurationMinutes = 24 * 60

// GetAvailability lists free slots for a day without going through the
// language model.
// GET /api/v1/availability?date=2025-06-12&duration=60
func (s *APIV1Service) GetAvailability(c echo.Context) error {
	date := c.QueryParam("date")
	if date == "" {
		date = "tomorrow"
	}

	duration := aischedule.DefaultDurationMinutes
	if raw := c.QueryParam("duration"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxDurationMinutes {
			return invalidArgument(c, "duration must be a positive number of minutes")
		}
		duration = parsed
	}

	intent := &aischedule.ParsedIntent{
		Intent:          aischedule.IntentCheck,
		Date:            &date,
		DurationMinutes: duration,
		Confidence:      aischedule.ConfidenceHigh,
		Source:          aischedule.SourceModel,
	}
	resp := s.Coordinator.HandleIntent(c.Request().Context(), "availability for "+date, intent)
	return c.JSON(http.StatusOK, s.render(resp))
}
