package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aischedule "github.com/hrygo/slotwise/plugin/ai/schedule"
	"github.com/hrygo/slotwise/server/internal/observability"
	"github.com/hrygo/slotwise/server/service/schedule"
	"github.com/hrygo/slotwise/store"
	teststore "github.com/hrygo/slotwise/store/test"
)

// Wednesday, June 11 2025.
var reference = time.Date(2025, time.June, 11, 9, 0, 0, 0, time.UTC)

type testServer struct {
	echo    *echo.Echo
	store   *store.Store
	metrics *observability.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := teststore.NewTestingStore(context.Background(), t)
	metrics := observability.NewMetrics(100)
	hours := schedule.DefaultBusinessHours()
	extractor := aischedule.NewIntentExtractor(nil, aischedule.PromptRules{
		StartHour: hours.StartHour,
		EndHour:   hours.EndHour,
		Days:      hours.Days,
	})
	coordinator := schedule.NewCoordinator(extractor, ts, hours,
		schedule.WithClock(func() time.Time { return reference }),
		schedule.WithMetrics(metrics),
	)

	e := echo.New()
	NewAPIV1Service(nil, coordinator, metrics, ts).RegisterRoutes(e)
	return &testServer{echo: e, store: ts, metrics: metrics}
}

func (s *testServer) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func decodeAssistant(t *testing.T, rec *httptest.ResponseRecorder) *AssistantMessageResponse {
	t.Helper()
	var resp AssistantMessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Response)
	return &resp
}

func TestPostAssistantMessage_BookThenConflict(t *testing.T) {
	server := newTestServer(t)
	body := `{"message": "Book appointment tomorrow at 2 PM"}`

	rec := server.do(t, http.MethodPost, "/api/v1/assistant/messages", body)
	require.Equal(t, http.StatusOK, rec.Code)
	first := decodeAssistant(t, rec)
	require.Equal(t, schedule.ActionAppointmentConfirmed, first.Action)
	require.NotNil(t, first.AppointmentDetails)
	assert.Equal(t, "AI Scheduled - appointment", first.AppointmentDetails.Title)
	assert.Equal(t, "http://localhost:8081/api/v1/events/"+first.AppointmentDetails.EventID, first.AppointmentDetails.Link)
	assert.Contains(t, first.MessageHTML, "<strong>Date</strong>")
	assert.NotEmpty(t, first.RequestID)

	rec = server.do(t, http.MethodGet, "/api/v1/events/"+first.AppointmentDetails.EventID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var event EventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &event))
	assert.Equal(t, "AI Scheduled - appointment", event.Title)
	assert.True(t, event.Start.Equal(time.Date(2025, time.June, 12, 14, 0, 0, 0, time.UTC)))
	assert.Contains(t, event.Description, "Book appointment tomorrow at 2 PM")

	rec = server.do(t, http.MethodPost, "/api/v1/assistant/messages", body)
	require.Equal(t, http.StatusOK, rec.Code)
	second := decodeAssistant(t, rec)
	assert.Equal(t, schedule.ActionBookingConflict, second.Action)
	assert.False(t, second.Success)
	assert.NotEmpty(t, second.AvailableSlots)
	assert.LessOrEqual(t, len(second.AvailableSlots), schedule.ConflictAlternatives)
}

func TestPostAssistantMessage_InvalidRequests(t *testing.T) {
	server := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"not json", `message=hello`},
		{"empty message", `{"message": "   "}`},
		{"too long", `{"message": "` + strings.Repeat("a", MaxMessageLength+1) + `"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := server.do(t, http.MethodPost, "/api/v1/assistant/messages", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "INVALID_ARGUMENT")
		})
	}
}

func TestGetAvailability_Weekend(t *testing.T) {
	server := newTestServer(t)

	rec := server.do(t, http.MethodGet, "/api/v1/availability?date=2025-06-14", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeAssistant(t, rec)
	assert.Equal(t, schedule.ActionWeekendViolation, resp.Action)
	require.Len(t, resp.SuggestedDates, 3)
	assert.Equal(t, "2025-06-16", resp.SuggestedDates[0].Date)
}

func TestGetAvailability(t *testing.T) {
	server := newTestServer(t)
	_, err := server.store.CreateEvent(context.Background(), &store.EventCreate{
		Title: "Existing",
		Start: time.Date(2025, time.June, 12, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2025, time.June, 12, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	rec := server.do(t, http.MethodGet, "/api/v1/availability?date=2025-06-12&duration=30", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeAssistant(t, rec)
	require.Equal(t, schedule.ActionShowSlots, resp.Action)
	require.NotEmpty(t, resp.AvailableSlots)
	assert.Equal(t, "12:00 PM", resp.AvailableSlots[0].StartTime)
	assert.Equal(t, "12:30 PM", resp.AvailableSlots[0].EndTime)

	rec = server.do(t, http.MethodGet, "/api/v1/availability?duration=soon", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetEvent_NotFound(t *testing.T) {
	server := newTestServer(t)

	rec := server.do(t, http.MethodGet, "/api/v1/events/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error_code":"INVALID_ARGUMENT","message":"event not found"}`, rec.Body.String())
}

func TestGetMetrics(t *testing.T) {
	server := newTestServer(t)
	server.do(t, http.MethodPost, "/api/v1/assistant/messages", `{"message": "hello there"}`)

	rec := server.do(t, http.MethodGet, "/api/v1/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.EqualValues(t, 1, resp["request_total"])
	assert.EqualValues(t, 100, resp["success_rate"])
	actions, ok := resp["actions"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 1, actions[string(schedule.ActionGeneralHelp)])
}
