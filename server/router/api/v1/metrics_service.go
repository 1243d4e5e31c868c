package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/slotwise/server/internal/observability"
)

// MetricsResponse is the metrics snapshot with derived values.
type MetricsResponse struct {
	*observability.MetricsSnapshot
	SuccessRate float64 `json:"success_rate"`
}

// GetMetrics returns the in-process request counters.
// GET /api/v1/metrics
func (s *APIV1Service) GetMetrics(c echo.Context) error {
	snapshot := s.Metrics.Snapshot()
	return c.JSON(http.StatusOK, MetricsResponse{
		MetricsSnapshot: snapshot,
		SuccessRate:     snapshot.SuccessRate(),
	})
}
