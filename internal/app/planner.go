package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"trip_planner/internal/domain"
)

// Observer receives per-stage and per-plan outcomes (metrics).
type Observer interface {
	ObserveStage(stage, outcome string, d time.Duration)
	ObservePlan(outcome string, d time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveStage(string, string, time.Duration) {}
func (nopObserver) ObservePlan(string, time.Duration) {}

type Providers struct {
	Attractions domain.AttractionProvider
	Weather     domain.WeatherProvider
	Hotels      domain.HotelProvider
	Rates       domain.ExchangeRateProvider
}

type stageFunc func(ctx context.Context, tc *domain.TripContext) ([]domain.Diagnostic, error)

// Planner drives one TripContext through the stage graph. It is safe for
// concurrent use; all per-plan state lives in the TripContext.
type Planner struct {
	run      map[domain.Stage]stageFunc
	tolerate map[domain.Stage]func(error) bool

	policy          CallPolicy
	log             zerolog.Logger
	obs             Observer
	tracer          trace.Tracer
	now             func() time.Time
	newID           func() string
	workingCurrency string
	maxTripDays     int
}

type Option func(*Planner)

func WithCallPolicy(p CallPolicy) Option { return func(pl *Planner) { pl.policy = p } }
func WithLogger(l zerolog.Logger) Option { return func(pl *Planner) { pl.log = l } }
func WithObserver(o Observer) Option { return func(pl *Planner) { pl.obs = o } }
func WithTracer(t trace.Tracer) Option { return func(pl *Planner) { pl.tracer = t } }
func WithClock(now func() time.Time) Option { return func(pl *Planner) { pl.now = now } }
func WithIDGenerator(f func() string) Option { return func(pl *Planner) { pl.newID = f } }
func WithWorkingCurrency(code string) Option { return func(pl *Planner) { pl.workingCurrency = code } }
// WithMaxTripDays caps the trip length; n <= 0 keeps domain.DefaultMaxTripDays.
func WithMaxTripDays(n int) Option {
	return func(pl *Planner) {
		if n > 0 {
			pl.maxTripDays = n
		}
	}
}

func NewPlanner(p Providers, opts ...Option) *Planner {
	pl := &Planner{
		policy: DefaultRetryPolicy(),
		log:    zerolog.Nop(),
		obs:    nopObserver{},
		tracer: otel.Tracer("trip_planner/internal/app"),
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },

		maxTripDays: domain.DefaultMaxTripDays,
	}
	for _, o := range opts {
		o(pl)
	}

	summary := SummaryStage{Now: pl.now}
	pl.run = map[domain.Stage]stageFunc{
		domain.StageAttractions: NewAttractionsStage(p.Attractions, pl.policy).Run,
		domain.StageWeather:     NewWeatherStage(p.Weather, pl.policy).Run,
		domain.StageHotel:       NewHotelStage(p.Hotels, pl.policy).Run,
		domain.StageCost:        CostStage{}.Run,
		domain.StageCurrency:    NewCurrencyStage(p.Rates, pl.policy).Run,
		domain.StageItinerary:   ItineraryStage{}.Run,
		domain.StageSummary:     summary.Run,
	}
	// an empty attraction set still yields a plan
	pl.tolerate = map[domain.Stage]func(error) bool{
		domain.StageAttractions: func(err error) bool { return domain.KindOf(err) == domain.KindDataUnavailable },
	}
	return pl
}

type stageOutcome struct {
	diags []domain.Diagnostic
	err   error
}

// PlanTrip runs the whole pipeline. On failure the error is a
// *domain.PlanningFailure naming the stage and kind; no partial summary is returned.
func (p *Planner) PlanTrip(ctx context.Context, req domain.TripRequest, opts domain.Options) (*domain.TripSummary, error) {
	planID := p.newID()
	start := time.Now()
	ctx, span := p.tracer.Start(ctx, "PlanTrip", trace.WithAttributes(
		attribute.String("plan.id", planID),
		attribute.String("trip.destination", req.Destination),
		attribute.Int("trip.days", req.Days()),
	))
	defer span.End()

	logger := p.log.With().Str("plan_id", planID).Str("destination", req.Destination).Logger()
	states := []domain.PlanState{domain.StateInit}

	fail := func(stage domain.Stage, err error, diags []domain.Diagnostic) error {
		states = append(states, domain.StateFailed)
		f := &domain.PlanningFailure{
			PlanID:      planID,
			Stage:       stage,
			Kind:        domain.KindOf(err),
			Err:         err,
			Diagnostics: diags,
			States:      states,
		}
		span.RecordError(f)
		span.SetStatus(codes.Error, f.Error())
		p.obs.ObservePlan("failed", time.Since(start))
		ev := logger.Error()
		if f.Kind == domain.KindInvalidRequest {
			ev = logger.Warn()
		}
		ev.Err(err).
			Str("stage", string(stage)).
			Str("kind", string(f.Kind)).
			Dur("duration", time.Since(start)).
			Msg("plan failed")
		return f
	}

	if err := req.ValidateMaxDays(p.maxTripDays); err != nil {
		return nil, fail(domain.StageRequest, err, nil)
	}
	if err := opts.Validate(); err != nil {
		return nil, fail(domain.StageRequest, err, nil)
	}

	working := opts.WorkingCurrency
	if working == "" {
		working = p.workingCurrency
	}
	if working == "" {
		working = req.NativeCurrency
	}
	tc := domain.NewTripContext(planID, req, opts, working)
	logger.Debug().Str("working_currency", working).Int("days", req.Days()).Msg("plan started")

	for _, lvl := range pipelineLevels {
		states = append(states, lvl.state)
		outcomes := p.runLevel(ctx, tc, lvl)

		var failed domain.Stage
		var fatal error
		for i, o := range outcomes {
			for _, d := range o.diags {
				logger.Warn().Str("stage", string(d.Stage)).Str("kind", string(d.Kind)).Msg(d.Detail)
			}
			tc.Diagnostics = append(tc.Diagnostics, o.diags...)
			if o.err != nil && fatal == nil {
				failed, fatal = lvl.stages[i], o.err
			}
		}
		if fatal != nil {
			return nil, fail(failed, fatal, tc.Diagnostics)
		}
	}

	summary, ok := tc.Summary()
	if !ok {
		return nil, fail(domain.StageSummary, domain.Invariant("pipeline finished without a summary"), tc.Diagnostics)
	}
	states = append(states, domain.StateDone)
	outcome := "ok"
	if len(tc.Diagnostics) > 0 {
		outcome = "degraded"
	}
	p.obs.ObservePlan(outcome, time.Since(start))
	logger.Info().
		Int("diagnostics", len(tc.Diagnostics)).
		Str("total", summary.Costs.Total.String()).
		Dur("duration", time.Since(start)).
		Msg("plan done")
	return &summary, nil
}

// runLevel runs every stage of a level and returns outcomes in level order.
// Siblings are not cancelled when one of them fails.
func (p *Planner) runLevel(ctx context.Context, tc *domain.TripContext, lvl level) []stageOutcome {
	out := make([]stageOutcome, len(lvl.stages))
	if len(lvl.stages) == 1 || !tc.Options.ConcurrencyEnabled {
		for i, s := range lvl.stages {
			out[i] = p.runStage(ctx, tc, s)
		}
		return out
	}

	var g errgroup.Group
	var mu sync.Mutex
	for i, s := range lvl.stages {
		i, s := i, s
		g.Go(func() error {
			o := p.runStage(ctx, tc, s)
			mu.Lock()
			out[i] = o
			mu.Unlock()
			return o.err
		})
	}
	// Wait reports whichever failure finished first; callers use level order instead.
	_ = g.Wait()
	return out
}

func (p *Planner) runStage(ctx context.Context, tc *domain.TripContext, stage domain.Stage) (o stageOutcome) {
	ctx, span := p.tracer.Start(ctx, "stage."+string(stage))
	defer span.End()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			o = stageOutcome{err: domain.Invariant("stage %s panicked: %v", stage, r)}
		}
		result := "ok"
		switch {
		case o.err != nil:
			result = "failed"
			span.RecordError(o.err)
			span.SetStatus(codes.Error, o.err.Error())
		case len(o.diags) > 0:
			result = "degraded"
		}
		span.SetAttributes(attribute.Int("diagnostics", len(o.diags)))
		p.obs.ObserveStage(string(stage), result, time.Since(start))
		p.log.Debug().
			Str("plan_id", tc.PlanID).
			Str("stage", string(stage)).
			Str("result", result).
			Dur("duration", time.Since(start)).
			Msg("stage finished")
	}()

	run, ok := p.run[stage]
	if !ok {
		return stageOutcome{err: domain.Invariant("no runner for stage %s", stage)}
	}
	diags, err := run(ctx, tc)
	if err != nil {
		if tol := p.tolerate[stage]; tol != nil && tol(err) {
			return stageOutcome{diags: diags}
		}
		return stageOutcome{diags: diags, err: fmt.Errorf("%s: %w", stage, err)}
	}
	return stageOutcome{diags: diags}
}
