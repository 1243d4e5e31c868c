package v1

import (
	"bytes"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	engineerrors "github.com/hrygo/slotwise/server/internal/errors"
	"github.com/hrygo/slotwise/server/service/schedule"
)

// AssistantMessageRequest is one user turn.
type AssistantMessageRequest struct {
	Message string `json:"message"`
}

// AssistantMessageResponse is the engine response plus the message rendered
// as HTML.
type AssistantMessageResponse struct {
	*schedule.Response
	MessageHTML string `json:"message_html"`
}

// ErrorResponse is returned for requests rejected before reaching the engine.
type ErrorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

// PostAssistantMessage answers one natural-language scheduling message.
// POST /api/v1/assistant/messages
func (s *APIV1Service) PostAssistantMessage(c echo.Context) error {
	var request AssistantMessageRequest
	if err := c.Bind(&request); err != nil {
		return invalidArgument(c, "request body must be JSON with a message field")
	}
	message := strings.TrimSpace(request.Message)
	if message == "" {
		return invalidArgument(c, "message is required")
	}
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return invalidArgument(c, "message is too long")
	}

	resp := s.Coordinator.Handle(c.Request().Context(), message)
	return c.JSON(http.StatusOK, s.render(resp))
}

func (s *APIV1Service) render(resp *schedule.Response) *AssistantMessageResponse {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(resp.Message), &buf); err != nil {
		slog.Warn("failed to render assistant message", "error", err)
		buf.Reset()
	}
	return &AssistantMessageResponse{Response: resp, MessageHTML: buf.String()}
}

func invalidArgument(c echo.Context, message string) error {
	return writeEngineError(c, http.StatusBadRequest, engineerrors.InvalidArgument(message))
}

// writeEngineError renders an EngineError without its internal cause.
func writeEngineError(c echo.Context, status int, err *engineerrors.EngineError) error {
	return c.JSON(status, ErrorResponse{
		ErrorCode: string(err.Code),
		Message:   err.Message,
	})
}
