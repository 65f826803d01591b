package openmeteo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"trip_planner/internal/adapters/restclient"
	"trip_planner/internal/domain"
)

// HorizonDays is how far ahead the forecast endpoint has data.
const HorizonDays = 16

type Location struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Country   string  `json:"country"`
	Timezone  string  `json:"timezone"`
}

// Client implements domain.WeatherProvider on the Open-Meteo geocoding and
// forecast APIs. Geocoding results are kept for the client's lifetime.
type Client struct {
	geo     *restclient.Client
	weather *restclient.Client
	now     func() time.Time

	sf    singleflight.Group
	mu    sync.RWMutex
	known map[string]Location
}

type Config struct {
	GeocodingURL string
	WeatherURL   string
	RPS          int
	Timeout      time.Duration
}

func New(cfg Config) *Client {
	return &Client{
		geo:     restclient.New(restclient.Config{Service: "open-meteo-geocoding", BaseURL: cfg.GeocodingURL, RPS: cfg.RPS, Timeout: cfg.Timeout}),
		weather: restclient.New(restclient.Config{Service: "open-meteo", BaseURL: cfg.WeatherURL, RPS: cfg.RPS, Timeout: cfg.Timeout}),
		now:     time.Now,
		known:   map[string]Location{},
	}
}

func (c *Client) Locate(ctx context.Context, destination string) (Location, error) {
	key := domain.NormalizeDestination(destination)
	c.mu.RLock()
	loc, ok := c.known[key]
	c.mu.RUnlock()
	if ok {
		return loc, nil
	}

	v, err, _ := c.sf.Do(key, func() (any, error) {
		var resp struct {
			Results []Location `json:"results"`
		}
		q := url.Values{"name": {strings.TrimSpace(destination)}, "count": {"1"}, "language": {"en"}, "format": {"json"}}
		if err := c.geo.Get(ctx, "search", "/v1/search", q, &resp); err != nil {
			return Location{}, err
		}
		if len(resp.Results) == 0 {
			return Location{}, fmt.Errorf("%w: %w: unknown destination %q", domain.ErrDataUnavailable, domain.ErrBadInput, destination)
		}
		loc := resp.Results[0]
		c.mu.Lock()
		c.known[key] = loc
		c.mu.Unlock()
		return loc, nil
	})
	if err != nil {
		return Location{}, err
	}
	return v.(Location), nil
}

type currentResponse struct {
	Current struct {
		Time        string  `json:"time"`
		Temperature float64 `json:"temperature_2m"`
		WindSpeed   float64 `json:"wind_speed_10m"`
		WeatherCode int     `json:"weather_code"`
	} `json:"current"`
}

func (c *Client) Current(ctx context.Context, destination string) (domain.CurrentWeather, error) {
	loc, err := c.Locate(ctx, destination)
	if err != nil {
		return domain.CurrentWeather{}, err
	}
	q := coords(loc)
	q.Set("current", "temperature_2m,wind_speed_10m,weather_code")

	var resp currentResponse
	if err := c.weather.Get(ctx, "forecast", "/v1/forecast", q, &resp); err != nil {
		return domain.CurrentWeather{}, err
	}
	observed, _ := time.Parse("2006-01-02T15:04", resp.Current.Time)
	return domain.CurrentWeather{
		TemperatureC: resp.Current.Temperature,
		WindSpeedKmh: resp.Current.WindSpeed,
		Description:  Describe(resp.Current.WeatherCode),
		ObservedAt:   observed,
	}, nil
}

type dailyResponse struct {
	Daily struct {
		Time          []string   `json:"time"`
		MaxTemp       []*float64 `json:"temperature_2m_max"`
		MinTemp       []*float64 `json:"temperature_2m_min"`
		Precipitation []*float64 `json:"precipitation_probability_max"`
		WeatherCode   []*int     `json:"weather_code"`
	} `json:"daily"`
}

// Forecast returns domain.ErrForecastUnknown for dates in the past or beyond HorizonDays.
func (c *Client) Forecast(ctx context.Context, destination string, date time.Time) (domain.DayForecast, error) {
	d := domain.DateOnly(date)
	today := domain.DateOnly(c.now())
	if d.Before(today) || !d.Before(today.AddDate(0, 0, HorizonDays)) {
		return domain.DayForecast{}, fmt.Errorf("%w: %s outside %d-day horizon", domain.ErrForecastUnknown, d.Format(domain.DateLayout), HorizonDays)
	}

	loc, err := c.Locate(ctx, destination)
	if err != nil {
		return domain.DayForecast{}, err
	}
	q := coords(loc)
	q.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_probability_max,weather_code")
	q.Set("start_date", d.Format(domain.DateLayout))
	q.Set("end_date", d.Format(domain.DateLayout))

	var resp dailyResponse
	if err := c.weather.Get(ctx, "forecast", "/v1/forecast", q, &resp); err != nil {
		return domain.DayForecast{}, err
	}
	daily := resp.Daily
	if len(daily.Time) == 0 || len(daily.MaxTemp) == 0 || daily.MaxTemp[0] == nil || len(daily.MinTemp) == 0 || daily.MinTemp[0] == nil {
		return domain.DayForecast{}, fmt.Errorf("%w: no daily data for %s", domain.ErrForecastUnknown, d.Format(domain.DateLayout))
	}

	f := domain.DayForecast{Date: d, Known: true, MaxTempC: *daily.MaxTemp[0], MinTempC: *daily.MinTemp[0]}
	if len(daily.Precipitation) > 0 && daily.Precipitation[0] != nil {
		f.PrecipitationProb = *daily.Precipitation[0]
	}
	if len(daily.WeatherCode) > 0 && daily.WeatherCode[0] != nil {
		f.Description = Describe(*daily.WeatherCode[0])
	}
	return f, nil
}

func coords(loc Location) url.Values {
	return url.Values{
		"latitude":  {strconv.FormatFloat(loc.Latitude, 'f', 4, 64)},
		"longitude": {strconv.FormatFloat(loc.Longitude, 'f', 4, 64)},
		"timezone":  {"auto"},
	}
}

// WMO weather interpretation codes.
var wmo = map[int]string{
	0: "clear sky", 1: "mainly clear", 2: "partly cloudy", 3: "overcast",
	45: "fog", 48: "rime fog",
	51: "light drizzle", 53: "drizzle", 55: "dense drizzle",
	56: "freezing drizzle", 57: "dense freezing drizzle",
	61: "light rain", 63: "rain", 65: "heavy rain",
	66: "freezing rain", 67: "heavy freezing rain",
	71: "light snow", 73: "snow", 75: "heavy snow", 77: "snow grains",
	80: "light showers", 81: "showers", 82: "violent showers",
	85: "snow showers", 86: "heavy snow showers",
	95: "thunderstorm", 96: "thunderstorm with hail", 99: "thunderstorm with heavy hail",
}

func Describe(code int) string {
	if s, ok := wmo[code]; ok {
		return s
	}
	return "unknown conditions"
}

// Coordinates lets other adapters reuse the geocoder.
func (c *Client) Coordinates(ctx context.Context, destination string) (lat, lon float64, err error) {
	loc, err := c.Locate(ctx, destination)
	if err != nil {
		return 0, 0, err
	}
	return loc.Latitude, loc.Longitude, nil
}
