package app_test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"trip_planner/internal/app"
	"trip_planner/internal/domain"
)

func eur(v float64) domain.Money { return domain.MoneyFromFloat(v, "EUR") }

func day(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

type fakeAttractions struct {
	mu    sync.Mutex
	calls map[domain.Category]int
	fail  map[domain.Category]bool
	items map[domain.Category][]domain.POI
}

func (f *fakeAttractions) Search(_ context.Context, _ string, cat domain.Category) ([]domain.POI, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[domain.Category]int{}
	}
	f.calls[cat]++
	if f.fail[cat] {
		return nil, domain.Unavailable("%s lookup exploded", cat)
	}
	return f.items[cat], nil
}

func (f *fakeAttractions) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

type fakeWeather struct {
	horizon    int // days from start with a forecast; 0 = unlimited
	start      time.Time
	currentErr error
	calls      atomic.Int32
}

func (f *fakeWeather) Current(context.Context, string) (domain.CurrentWeather, error) {
	f.calls.Add(1)
	if f.currentErr != nil {
		return domain.CurrentWeather{}, f.currentErr
	}
	return domain.CurrentWeather{TemperatureC: 18, Description: "partly cloudy"}, nil
}

func (f *fakeWeather) Forecast(_ context.Context, _ string, date time.Time) (domain.DayForecast, error) {
	f.calls.Add(1)
	if f.horizon > 0 && !date.Before(f.start.AddDate(0, 0, f.horizon)) {
		return domain.DayForecast{}, domain.ErrForecastUnknown
	}
	return domain.DayForecast{Date: date, Known: true, MinTempC: 14, MaxTempC: 24, PrecipitationProb: 10, Description: "clear sky"}, nil
}

type fakeHotels struct {
	cands []domain.RateCandidate
	err   error
	calls atomic.Int32
}

func (f *fakeHotels) Search(context.Context, string, int) ([]domain.RateCandidate, error) {
	f.calls.Add(1)
	return f.cands, f.err
}

type fakeRates struct {
	rate  decimal.Decimal
	err   error
	calls atomic.Int32
}

func (f *fakeRates) Rate(context.Context, string, string) (decimal.Decimal, error) {
	f.calls.Add(1)
	return f.rate, f.err
}

type fixture struct {
	attractions *fakeAttractions
	weather     *fakeWeather
	hotels      *fakeHotels
	rates       *fakeRates
}

// parisFixture prices everything in EUR: three hotels at 100/120/140 a night,
// POIs totalling 96 EUR plus a 30 EUR transport pass, and a 1.1 EUR->USD rate.
func parisFixture() *fixture {
	return &fixture{
		attractions: &fakeAttractions{items: map[domain.Category][]domain.POI{
			domain.CategoryAttraction: {
				{Name: "Louvre", Cost: eur(17)},
				{Name: "Eiffel Tower", Cost: eur(29)},
			},
			domain.CategoryRestaurant:     {{Name: "Bistrot Paul Bert", Cost: eur(35)}},
			domain.CategoryActivity:       {{Name: "Seine cruise", Cost: eur(15)}},
			domain.CategoryTransportation: {{Name: "Navigo week pass", Cost: eur(30)}},
		}},
		weather: &fakeWeather{start: day("2024-06-01")},
		hotels: &fakeHotels{cands: []domain.RateCandidate{
			{Name: "Hotel A", NightlyRate: eur(140)},
			{Name: "Hotel B", NightlyRate: eur(100)},
			{Name: "Hotel C", NightlyRate: eur(120)},
		}},
		rates: &fakeRates{rate: decimal.RequireFromString("1.1")},
	}
}

func (f *fixture) planner(opts ...app.Option) *app.Planner {
	base := []app.Option{
		app.WithCallPolicy(app.NoRetry{}),
		app.WithWorkingCurrency("EUR"),
		app.WithClock(func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }),
		app.WithIDGenerator(func() string { return "plan-1" }),
	}
	return app.NewPlanner(app.Providers{
		Attractions: f.attractions,
		Weather:     f.weather,
		Hotels:      f.hotels,
		Rates:       f.rates,
	}, append(base, opts...)...)
}

func parisRequest(native string) domain.TripRequest {
	return domain.NewTripRequest("Paris", day("2024-06-01"), day("2024-06-04"), 2, native)
}
