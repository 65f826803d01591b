package openmeteo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trip_planner/internal/domain"
)

func testServer(t *testing.T, geoHits *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(geoHits, 1)
		if r.URL.Query().Get("name") == "Atlantis" {
			_ = json.NewEncoder(w).Encode(map[string]any{})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"results": []any{
			map[string]any{"name": "Paris", "latitude": 48.8534, "longitude": 2.3488, "country": "France", "timezone": "Europe/Paris"},
		}})
	})
	mux.HandleFunc("/v1/forecast", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("latitude") != "48.8534" {
			t.Errorf("latitude = %s", q.Get("latitude"))
		}
		if q.Get("current") != "" {
			_ = json.NewEncoder(w).Encode(map[string]any{"current": map[string]any{
				"time": "2024-06-01T12:00", "temperature_2m": 18.4, "wind_speed_10m": 9.0, "weather_code": 2,
			}})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"daily": map[string]any{
			"time":                          []string{q.Get("start_date")},
			"temperature_2m_max":            []float64{24.1},
			"temperature_2m_min":            []float64{13.9},
			"precipitation_probability_max": []float64{35},
			"weather_code":                  []int{61},
		}})
	})
	return httptest.NewServer(mux)
}

func newTestClient(base string) *Client {
	c := New(Config{GeocodingURL: base, WeatherURL: base, RPS: 100, Timeout: time.Second})
	c.now = func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }
	return c
}

func TestCurrent(t *testing.T) {
	var geo int32
	ts := testServer(t, &geo)
	defer ts.Close()

	cw, err := newTestClient(ts.URL).Current(context.Background(), "Paris")
	require.NoError(t, err)
	assert.InDelta(t, 18.4, cw.TemperatureC, 1e-9)
	assert.Equal(t, "partly cloudy", cw.Description)
	assert.Equal(t, 12, cw.ObservedAt.Hour())
}

func TestForecast_WithinHorizon(t *testing.T) {
	var geo int32
	ts := testServer(t, &geo)
	defer ts.Close()
	c := newTestClient(ts.URL)

	for _, d := range []string{"2024-06-01", "2024-06-02", "2024-06-16"} {
		date, _ := time.Parse(domain.DateLayout, d)
		f, err := c.Forecast(context.Background(), "Paris", date)
		require.NoError(t, err, d)
		assert.True(t, f.Known)
		assert.Equal(t, date, f.Date)
		assert.InDelta(t, 24.1, f.MaxTempC, 1e-9)
		assert.Equal(t, "light rain", f.Description)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&geo), "geocoding should be cached")
}

func TestForecast_OutsideHorizon(t *testing.T) {
	var geo int32
	ts := testServer(t, &geo)
	defer ts.Close()
	c := newTestClient(ts.URL)

	for _, d := range []string{"2024-05-31", "2024-06-17", "2025-01-01"} {
		date, _ := time.Parse(domain.DateLayout, d)
		_, err := c.Forecast(context.Background(), "Paris", date)
		assert.ErrorIs(t, err, domain.ErrForecastUnknown, d)
	}
	assert.Zero(t, atomic.LoadInt32(&geo))
}

func TestLocate_UnknownDestination(t *testing.T) {
	var geo int32
	ts := testServer(t, &geo)
	defer ts.Close()

	_, err := newTestClient(ts.URL).Current(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, domain.ErrBadInput)
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)
}
