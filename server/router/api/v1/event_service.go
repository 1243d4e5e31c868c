package v1

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	engineerrors "github.com/hrygo/slotwise/server/internal/errors"
)

// EventResponse is a stored event.
type EventResponse struct {
	UID         string    `json:"uid"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	CreatedAt   time.Time `json:"created_at"`
}

// GetEvent returns an event booked into a SQL backend. It is the target of
// the links handed out in booking confirmations.
// GET /api/v1/events/:uid
func (s *APIV1Service) GetEvent(c echo.Context) error {
	uid := c.Param("uid")
	event, err := s.Store.GetEvent(c.Request().Context(), uid)
	if err != nil {
		slog.Error("failed to get event", "uid", uid, "error", err)
		return writeEngineError(c, http.StatusServiceUnavailable, engineerrors.CalendarUnavailable("calendar is unavailable", err))
	}
	if event == nil {
		return writeEngineError(c, http.StatusNotFound, engineerrors.InvalidArgument("event not found"))
	}

	loc := s.Coordinator.Hours().Location
	if loc == nil {
		loc = time.UTC
	}
	return c.JSON(http.StatusOK, EventResponse{
		UID:         event.UID,
		Title:       event.Title,
		Description: event.Description,
		Start:       time.Unix(event.StartTs, 0).In(loc),
		End:         time.Unix(event.EndTs, 0).In(loc),
		CreatedAt:   time.Unix(event.CreatedTs, 0).In(loc),
	})
}
