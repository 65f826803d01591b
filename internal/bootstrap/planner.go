// Package bootstrap wires the planner's providers from configuration. Shared
// by the API and the CLI.
package bootstrap

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	"trip_planner/internal/adapters/exchangerate"
	"trip_planner/internal/adapters/observability"
	"trip_planner/internal/adapters/openmeteo"
	"trip_planner/internal/adapters/places"
	"trip_planner/internal/app"
	"trip_planner/internal/domain"
	"trip_planner/internal/shared"
	mysqlrepo "trip_planner/internal/storage/mysql"
)

// Providers builds the four provider ports. A nil cache disables the
// read-through decorators.
func Providers(cfg shared.Config, db *sql.DB, cache domain.Cache) (app.Providers, error) {
	weather := openmeteo.New(openmeteo.Config{
		GeocodingURL: cfg.GeocodingBase,
		WeatherURL:   cfg.WeatherBase,
		RPS:          cfg.ProviderRPS,
		Timeout:      cfg.ProviderTimeout,
	})
	pl, err := places.New(places.Config{
		BaseURL:  cfg.PlacesBase,
		APIKey:   cfg.PlacesKey,
		RPS:      cfg.ProviderRPS,
		Timeout:  cfg.ProviderTimeout,
		Currency: cfg.WorkingCurrency,
	}, weather)
	if err != nil {
		return app.Providers{}, fmt.Errorf("places: %w", err)
	}
	fx, err := exchangerate.New(cfg.FXBase, cfg.FXKey, cfg.ProviderRPS, cfg.ProviderTimeout)
	if err != nil {
		return app.Providers{}, fmt.Errorf("exchangerate: %w", err)
	}
	if db == nil {
		return app.Providers{}, fmt.Errorf("hotel catalog: database handle is required")
	}
	hotels := mysqlrepo.New(db).WithMaxAge(cfg.RateMaxAge)

	p := app.Providers{Attractions: pl, Weather: weather, Hotels: hotels, Rates: fx}
	if cache != nil {
		p = Cached(p, cache, cfg)
	}
	return p, nil
}

func Planner(cfg shared.Config, p app.Providers, logger zerolog.Logger) *app.Planner {
	policy := app.DefaultRetryPolicy()
	policy.Retries = cfg.ProviderRetries
	policy.Timeout = cfg.ProviderTimeout

	return app.NewPlanner(p,
		app.WithCallPolicy(policy),
		app.WithLogger(logger),
		app.WithObserver(observability.PlannerMetrics{}),
		app.WithWorkingCurrency(cfg.WorkingCurrency),
		app.WithMaxTripDays(cfg.MaxTripDays),
		app.WithTracer(otel.Tracer("trip_planner")),
	)
}

// Options returns the request defaults derived from configuration.
func Options(cfg shared.Config) domain.Options {
	o := domain.DefaultOptions()
	if cfg.MaxItemsPerDay > 0 {
		o.MaxItemsPerDay = cfg.MaxItemsPerDay
	}
	return o
}
