package server

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/hrygo/slotwise/internal/profile"
	"github.com/hrygo/slotwise/plugin/ai"
	aischedule "github.com/hrygo/slotwise/plugin/ai/schedule"
	"github.com/hrygo/slotwise/plugin/ai/timeout"
	"github.com/hrygo/slotwise/server/internal/observability"
	apiv1 "github.com/hrygo/slotwise/server/router/api/v1"
	"github.com/hrygo/slotwise/server/service/schedule"
	"github.com/hrygo/slotwise/store"
	"github.com/hrygo/slotwise/store/db"
	"github.com/hrygo/slotwise/store/gcal"
)

type Server struct {
	Profile *profile.Profile
	// Store is nil when the Google Calendar backend is used.
	Store *store.Store

	coordinator *schedule.Coordinator
	completer   ai.Completer
	echoServer  *echo.Echo
}

// NewServer wires the calendar backend, the completer and the booking
// coordinator, and mounts the HTTP API.
func NewServer(ctx context.Context, profile *profile.Profile) (*Server, error) {
	s := &Server{Profile: profile}

	hours, err := schedule.NewBusinessHours(profile)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read business hours")
	}

	backend, err := s.newBackend(ctx)
	if err != nil {
		return nil, err
	}

	s.completer, err = ai.NewCompleterFromProfile(ctx, profile)
	if err != nil {
		s.closeStore()
		return nil, errors.Wrap(err, "failed to create completer")
	}

	extractor := aischedule.NewIntentExtractor(s.completer, aischedule.PromptRules{
		StartHour: hours.StartHour,
		EndHour:   hours.EndHour,
		Days:      hours.Days,
	})
	metrics := observability.GlobalMetrics()
	s.coordinator = schedule.NewCoordinator(extractor, backend, hours,
		schedule.WithMetrics(metrics),
		schedule.WithSlotTiling(profile.SlotTiling),
	)

	echoServer := echo.New()
	echoServer.Debug = profile.IsDev()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(middleware.Recover())
	echoServer.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			slog.Debug("http request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds())
			return nil
		},
	}))
	echoServer.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})
	apiv1.NewAPIV1Service(profile, s.coordinator, metrics, s.Store).RegisterRoutes(echoServer)
	s.echoServer = echoServer

	return s, nil
}

func (s *Server) newBackend(ctx context.Context) (schedule.CalendarBackend, error) {
	if s.Profile.Driver == "google" {
		calendar, err := gcal.NewFromProfile(ctx, s.Profile)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create google calendar backend")
		}
		return calendar, nil
	}

	driver, err := db.NewDBDriver(s.Profile)
	if err != nil {
		return nil, err
	}
	s.Store = store.New(driver, s.Profile)
	if err := s.Store.Migrate(ctx); err != nil {
		s.closeStore()
		return nil, errors.Wrap(err, "failed to migrate")
	}
	return s.Store, nil
}

// Coordinator returns the booking coordinator, for callers that answer
// messages without going through HTTP.
func (s *Server) Coordinator() *schedule.Coordinator {
	return s.coordinator
}

// Start serves HTTP until Shutdown is called.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.Profile.ListenAddr())
	if err != nil {
		return errors.Wrap(err, "failed to listen")
	}
	s.echoServer.Listener = listener
	slog.Info("slotwise server started",
		"addr", listener.Addr().String(),
		"driver", s.Profile.Driver,
		"mode", s.Profile.Mode,
		"version", s.Profile.Version)

	if err := s.echoServer.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "failed to start echo server")
	}
	return nil
}

// Shutdown stops the HTTP server and releases the backend and completer.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, timeout.ShutdownTimeout)
	defer cancel()

	slog.Info("server shutting down")
	if s.echoServer != nil {
		if err := s.echoServer.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown server", slog.String("error", err.Error()))
		}
	}
	s.Close()
	slog.Info("server stopped properly", "at", time.Now().Format(time.RFC3339))
}

// Close releases the backend and completer without touching HTTP.
func (s *Server) Close() {
	if closer, ok := s.completer.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			slog.Warn("failed to close completer", slog.String("error", err.Error()))
		}
	}
	s.closeStore()
}

func (s *Server) closeStore() {
	if s.Store == nil {
		return
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", slog.String("error", err.Error()))
	}
}
