package app

import (
	"context"
	"errors"
	"fmt"

	"trip_planner/internal/domain"
)

// WeatherStage fetches current conditions and one forecast per trip date.
// Current conditions are required; a missing forecast day becomes "unknown".
type WeatherStage struct {
	provider domain.WeatherProvider
	policy   CallPolicy
}

func NewWeatherStage(p domain.WeatherProvider, policy CallPolicy) *WeatherStage {
	return &WeatherStage{provider: p, policy: policy}
}

func (s *WeatherStage) Run(ctx context.Context, tc *domain.TripContext) ([]domain.Diagnostic, error) {
	dest := tc.Request.Destination

	var current domain.CurrentWeather
	err := s.policy.Do(ctx, "weather.current", func(ctx context.Context) error {
		var err error
		current, err = s.provider.Current(ctx, dest)
		return err
	})
	if err != nil {
		return nil, asUnavailable(err, "current weather for %s", dest)
	}

	dates := tc.Request.Dates()
	forecast := make([]domain.DayForecast, len(dates))
	reasons := make([]string, len(dates))

	limit := 1
	if tc.Options.ConcurrencyEnabled {
		limit = 4
	}
	fanOut(ctx, len(dates), limit, func(i int) {
		var f domain.DayForecast
		err := s.policy.Do(ctx, "weather.forecast", func(ctx context.Context) error {
			var err error
			f, err = s.provider.Forecast(ctx, dest, dates[i])
			return err
		})
		switch {
		case err == nil && f.Known:
			f.Date = domain.DateOnly(dates[i])
			forecast[i] = f
		case err == nil:
			forecast[i] = domain.UnknownForecast(dates[i])
			reasons[i] = "provider returned no data"
		case errors.Is(err, domain.ErrForecastUnknown):
			forecast[i] = domain.UnknownForecast(dates[i])
			reasons[i] = "beyond forecast horizon"
		default:
			forecast[i] = domain.UnknownForecast(dates[i])
			reasons[i] = err.Error()
		}
	})

	var diags []domain.Diagnostic
	for i, r := range reasons {
		if r == "" {
			continue
		}
		diags = append(diags, domain.Diagnostic{
			Stage:  domain.StageWeather,
			Kind:   domain.DiagUnknown,
			Detail: fmt.Sprintf("forecast for %s unknown: %s", dates[i].Format(domain.DateLayout), r),
		})
	}
	return diags, tc.SetWeather(domain.WeatherInfo{Current: current, Forecast: forecast})
}
