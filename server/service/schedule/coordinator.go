package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"github.com/hrygo/slotwise/plugin/ai"
	"github.com/hrygo/slotwise/plugin/ai/aitime"
	aischedule "github.com/hrygo/slotwise/plugin/ai/schedule"
	"github.com/hrygo/slotwise/plugin/ai/timeout"
	engineerrors "github.com/hrygo/slotwise/server/internal/errors"
	"github.com/hrygo/slotwise/server/internal/observability"
	"github.com/hrygo/slotwise/store"
)

// IntentExtractor reads a ParsedIntent from user text. It must always
// return a value.
type IntentExtractor interface {
	Extract(ctx context.Context, text string, reference time.Time) *aischedule.ParsedIntent
}

// Appointment is what was written to the calendar.
type Appointment struct {
	Title string
	Start time.Time
	End   time.Time
}

// BookingOutcome is the result of a verify-then-write attempt.
type BookingOutcome struct {
	Success     bool
	Event       *store.CreatedEvent
	Appointment *Appointment
}

// Coordinator drives one assistant turn from text to a Response.
type Coordinator struct {
	extractor IntentExtractor
	backend   CalendarBackend
	hours     BusinessHours
	resolver  *AvailabilityResolver
	suggester *AlternativeSuggester

	now     func() time.Time
	metrics *observability.Metrics
	logger  *slog.Logger
	tiling  bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock sets the source of the reference instant.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// WithLogger sets the logger used for per-request logging.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// WithSlotTiling switches availability to duration-aligned tiling.
func WithSlotTiling(enabled bool) Option {
	return func(c *Coordinator) { c.tiling = enabled }
}

// NewCoordinator creates a new coordinator.
func NewCoordinator(extractor IntentExtractor, backend CalendarBackend, hours BusinessHours, opts ...Option) *Coordinator {
	c := &Coordinator{
		extractor: extractor,
		backend:   backend,
		hours:     hours,
		now:       time.Now,
		metrics:   observability.GlobalMetrics(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.resolver = NewAvailabilityResolver(backend, hours, WithTiling(c.tiling))
	c.suggester = NewAlternativeSuggester(c.resolver, hours)
	return c
}

// Hours returns the business hours policy in use.
func (c *Coordinator) Hours() BusinessHours {
	return c.hours
}

// Resolver returns the availability resolver in use.
func (c *Coordinator) Resolver() *AvailabilityResolver {
	return c.resolver
}

// Handle answers one user message. It never panics and never returns an
// error; every failure becomes a Response.
func (c *Coordinator) Handle(ctx context.Context, text string) *Response {
	return c.run(ctx, func(ctx context.Context, reqCtx *observability.RequestContext, reference time.Time) *Response {
		if strings.TrimSpace(text) == "" {
			return helpResponse(c.hours)
		}
		intent := c.extractor.Extract(ctx, text, reference)
		if intent == nil {
			intent = aischedule.FallbackIntent(text)
		}
		return c.dispatch(ctx, reqCtx, text, intent, reference)
	})
}

// HandleIntent answers a message whose intent is already known.
func (c *Coordinator) HandleIntent(ctx context.Context, text string, intent *aischedule.ParsedIntent) *Response {
	return c.run(ctx, func(ctx context.Context, reqCtx *observability.RequestContext, reference time.Time) *Response {
		if intent == nil {
			intent = aischedule.FallbackIntent(text)
		}
		return c.dispatch(ctx, reqCtx, text, intent, reference)
	})
}

type turnFunc func(ctx context.Context, reqCtx *observability.RequestContext, reference time.Time) *Response

func (c *Coordinator) run(ctx context.Context, fn turnFunc) (resp *Response) {
	reqCtx := observability.NewRequestContext(c.logger)
	ctx = observability.WithRequestContext(ctx, reqCtx)

	defer func() {
		if r := recover(); r != nil {
			err := engineerrors.Internal(fmt.Sprint(r), nil)
			reqCtx.Error("panic recovered in coordinator", err, slog.String("stack", string(debug.Stack())))
			resp = internalErrorResponse(string(err.Code))
		}
		resp.RequestID = reqCtx.RequestID
		c.record(reqCtx, resp)
	}()

	return fn(ctx, reqCtx, c.now().In(c.hours.location()))
}

func (c *Coordinator) record(reqCtx *observability.RequestContext, resp *Response) {
	c.metrics.RecordRequest(string(resp.Action), reqCtx.Duration())
	switch resp.Action {
	case ActionBookingFailed, ActionError:
		c.metrics.RecordFailure()
	case ActionBookingConflict:
		c.metrics.RecordConflict()
	}

	attrs := []slog.Attr{
		slog.String(observability.LogFieldAction, string(resp.Action)),
		slog.Bool("success", resp.Success),
		slog.Int64(observability.LogFieldDuration, reqCtx.DurationMs()),
	}
	if resp.ErrorCode != "" {
		attrs = append(attrs, slog.String(observability.LogFieldErrorCode, resp.ErrorCode))
	}
	if resp.Degraded {
		attrs = append(attrs, slog.Bool("degraded", true))
	}
	reqCtx.Info("assistant turn finished", attrs...)
}

func (c *Coordinator) dispatch(ctx context.Context, reqCtx *observability.RequestContext, text string, intent *aischedule.ParsedIntent, reference time.Time) *Response {
	reqCtx.Intent = string(intent.Intent)
	if intent.Source == aischedule.SourceFallback {
		c.metrics.RecordFallback()
		reqCtx.Debug("intent from keyword fallback",
			slog.String(observability.LogFieldFallback, string(intent.FallbackReason)))
	}

	var resp *Response
	switch intent.Intent {
	case aischedule.IntentBook:
		resp = c.handleBooking(ctx, reqCtx, text, intent, reference)
	case aischedule.IntentCheck:
		resp = c.handleAvailability(ctx, intent, reference)
	case aischedule.IntentCancel:
		resp = cancellationResponse()
	default:
		resp = helpResponse(c.hours)
	}
	if intent.Source == aischedule.SourceFallback && intent.FallbackReason != ai.FailureNone && intent.FallbackReason != ai.FailureDisabled {
		resp.Degraded = true
	}
	return resp
}

func (c *Coordinator) parser(reference time.Time) *aitime.Parser {
	return aitime.NewParser(c.hours.location()).WithReference(reference)
}

func durationOf(intent *aischedule.ParsedIntent) time.Duration {
	switch {
	case intent.DurationMinutes <= 0:
		return DefaultDuration
	case intent.DurationMinutes > aischedule.MaxDurationMinutes:
		return aischedule.MaxDurationMinutes * time.Minute
	}
	return time.Duration(intent.DurationMinutes) * time.Minute
}

func (c *Coordinator) handleBooking(ctx context.Context, reqCtx *observability.RequestContext, text string, intent *aischedule.ParsedIntent, reference time.Time) *Response {
	if !intent.HasDate() {
		return clarificationResponse()
	}

	// A booking is never written to a guessed date.
	parser := c.parser(reference)
	date, ok := parser.ParseDate(*intent.Date)
	if !ok {
		reqCtx.Info("booking date not understood", slog.String("date", *intent.Date))
		return clarificationResponse()
	}
	duration := durationOf(intent)

	var requested time.Time
	if intent.HasTime() {
		clock, _ := parser.ParseClock(*intent.Time)
		requested = aitime.At(date, clock)
	}

	if !c.hours.IsBusinessDay(date) {
		window := TimeWindow{Start: c.hours.Open(date), End: c.hours.Open(date).Add(duration)}
		if !requested.IsZero() {
			window = TimeWindow{Start: requested, End: requested.Add(duration)}
		}
		return weekendResponse(date, c.hours.Validate(window), c.hours)
	}

	day := c.resolver.FindSlots(ctx, date, duration)
	if day.BackendUnavailable {
		c.metrics.RecordBackendUnavailable()
		return calendarUnavailableResponse(date)
	}
	if day.Count() == 0 {
		return alternativesResponse(date, c.suggester.Suggest(ctx, date, DefaultSuggestionLimit, duration))
	}
	if requested.IsZero() {
		return slotsResponse(day)
	}

	window := TimeWindow{Start: requested, End: requested.Add(duration)}
	verdict := c.hours.Validate(window)
	if !verdict.Allowed {
		if verdict.Violation == ViolationWeekend {
			return weekendResponse(date, verdict, c.hours)
		}
		return businessHoursResponse(requested, verdict, c.hours)
	}

	outcome, err := c.book(ctx, &Appointment{
		Title: "AI Scheduled - " + intent.TypeOr("Appointment"),
		Start: window.Start,
		End:   window.End,
	}, text)
	if engineerrors.IsCode(err, engineerrors.ErrCodeBookingConflict) {
		reqCtx.Warn("booking conflict",
			slog.String("start", window.Start.Format(time.RFC3339)))
		return conflictResponse(requested, nearestSlots(day.Slots, window, ConflictAlternatives), string(engineerrors.ErrCodeBookingConflict))
	}
	if err != nil {
		code := engineerrors.GetCodeFromError(err, engineerrors.ErrCodeBookingFailed)
		reqCtx.Error("booking failed", err, slog.String(observability.LogFieldErrorCode, string(code)))
		return bookingFailedResponse(string(code))
	}
	return confirmationResponse(outcome)
}

// book re-checks the exact window and then writes the event. A window
// taken by someone else is reported as a BOOKING_CONFLICT error.
func (c *Coordinator) book(ctx context.Context, appt *Appointment, originalRequest string) (*BookingOutcome, error) {
	verifyCtx, cancel := context.WithTimeout(ctx, timeout.CalendarTimeout)
	defer cancel()
	free, err := c.backend.IsWindowFree(verifyCtx, appt.Start, appt.End)
	if err != nil {
		return nil, engineerrors.CalendarUnavailable("verify window", err)
	}
	if !free {
		return nil, engineerrors.BookingConflict("window taken before write", nil)
	}

	createCtx, cancelCreate := context.WithTimeout(ctx, timeout.CalendarTimeout)
	defer cancelCreate()
	created, err := c.backend.CreateEvent(createCtx, &store.EventCreate{
		Title:       appt.Title,
		Description: "Scheduled via AI Assistant. Original request: " + originalRequest,
		Start:       appt.Start,
		End:         appt.End,
	})
	if errors.Is(err, store.ErrEventConflict) {
		return nil, engineerrors.BookingConflict("window taken during write", err)
	}
	if err != nil {
		return nil, engineerrors.BookingFailed("create event", err)
	}
	return &BookingOutcome{Success: true, Event: created, Appointment: appt}, nil
}

func (c *Coordinator) handleAvailability(ctx context.Context, intent *aischedule.ParsedIntent, reference time.Time) *Response {
	dateExpr := "tomorrow"
	if intent.HasDate() {
		dateExpr = *intent.Date
	}
	date, _ := c.parser(reference).ParseDate(dateExpr)
	duration := durationOf(intent)

	if !c.hours.IsBusinessDay(date) {
		open := c.hours.Open(date)
		return weekendResponse(date, c.hours.Validate(TimeWindow{Start: open, End: open.Add(duration)}), c.hours)
	}

	day := c.resolver.FindSlots(ctx, date, duration)
	if day.BackendUnavailable {
		c.metrics.RecordBackendUnavailable()
		return calendarUnavailableResponse(date)
	}
	if day.Count() == 0 {
		return alternativesResponse(date, c.suggester.Suggest(ctx, date, DefaultSuggestionLimit, duration))
	}
	return slotsResponse(day)
}

// nearestSlots picks up to n slots closest to the requested start, skipping
// any that overlap the requested window, and returns them in time order.
func nearestSlots(slots []Slot, requested TimeWindow, n int) []Slot {
	candidates := make([]Slot, 0, len(slots))
	for _, s := range slots {
		if s.Start.Before(requested.End) && s.End.After(requested.Start) {
			continue
		}
		candidates = append(candidates, s)
	}

	distance := func(s Slot) time.Duration {
		d := s.Start.Sub(requested.Start)
		if d < 0 {
			return -d
		}
		return d
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return distance(candidates[i]) < distance(candidates[j])
	})
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Start.Before(candidates[j].Start)
	})
	return candidates
}
