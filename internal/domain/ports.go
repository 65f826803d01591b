package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Providers consumed by the planning pipeline. Implementations wrap their
// failures in ErrDataUnavailable (and ErrBadInput for rejected input).
type AttractionProvider interface {
	Search(ctx context.Context, destination string, category Category) ([]POI, error)
}

type WeatherProvider interface {
	Current(ctx context.Context, destination string) (CurrentWeather, error)
	// Forecast returns ErrForecastUnknown for dates outside the provider's horizon.
	Forecast(ctx context.Context, destination string, date time.Time) (DayForecast, error)
}

type HotelProvider interface {
	Search(ctx context.Context, destination string, partySize int) ([]RateCandidate, error)
}

// CurrencyHotelProvider is a HotelProvider that can leave out candidates
// quoted in other currencies at the source. An empty currency means any.
type CurrencyHotelProvider interface {
	HotelProvider
	SearchIn(ctx context.Context, destination string, partySize int, currency string) ([]RateCandidate, error)
}

type ExchangeRateProvider interface {
	// Rate returns units of `to` per unit of `from`.
	Rate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// Rate catalog (ingestor write path)
type RateCatalog interface {
	UpsertRates(ctx context.Context, rs []RateListing) error
	LogMiss(ctx context.Context, destination string, status int, reason string) error
}

type HotelRatesClient interface {
	GetRates(ctx context.Context, destination string, partySize int) ([]map[string]any, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
