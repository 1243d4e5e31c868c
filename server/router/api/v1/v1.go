package v1

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/yuin/goldmark"

	"github.com/hrygo/slotwise/internal/profile"
	ratelimit "github.com/hrygo/slotwise/server/middleware"
	"github.com/hrygo/slotwise/server/internal/observability"
	"github.com/hrygo/slotwise/server/service/schedule"
	"github.com/hrygo/slotwise/store"
)

// MaxMessageLength bounds the text of one assistant message.
const MaxMessageLength = 2000

type APIV1Service struct {
	Profile     *profile.Profile
	Coordinator *schedule.Coordinator
	Metrics     *observability.Metrics
	// Store is nil when events live in Google Calendar.
	Store *store.Store

	markdown    goldmark.Markdown
	rateLimiter *ratelimit.RateLimiter
}

func NewAPIV1Service(profile *profile.Profile, coordinator *schedule.Coordinator, metrics *observability.Metrics, store *store.Store) *APIV1Service {
	return &APIV1Service{
		Profile:     profile,
		Coordinator: coordinator,
		Metrics:     metrics,
		Store:       store,
		markdown:    goldmark.New(),
		rateLimiter: ratelimit.NewRateLimiter(ratelimit.DefaultRate, ratelimit.DefaultBurst),
	}
}

// RegisterRoutes mounts the v1 API on the given Echo instance.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	api := echoServer.Group("/api/v1")
	api.Use(middleware.BodyLimit("64K"))

	api.POST("/assistant/messages", s.PostAssistantMessage, s.rateLimiter.Middleware())
	api.GET("/availability", s.GetAvailability, s.rateLimiter.Middleware())
	api.GET("/metrics", s.GetMetrics)
	if s.Store != nil {
		api.GET("/events/:uid", s.GetEvent)
	}
}
