package places_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trip_planner/internal/adapters/places"
	"trip_planner/internal/domain"
)

type fixedLocator struct{ err error }

func (l fixedLocator) Coordinates(context.Context, string) (float64, float64, error) {
	return 48.8534, 2.3488, l.err
}

func TestSearch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/v2/places", r.URL.Path)
		assert.Equal(t, "catering.restaurant", q.Get("categories"))
		assert.Equal(t, "circle:2.34880,48.85340,5000", q.Get("filter"))
		assert.Equal(t, "k", q.Get("apiKey"))
		_ = json.NewEncoder(w).Encode(map[string]any{"features": []any{
			map[string]any{"properties": map[string]any{"name": "Le Comptoir", "formatted": "9 Carrefour de l'Odéon"}},
			map[string]any{"properties": map[string]any{"name": ""}},
			map[string]any{"properties": map[string]any{"name": "Soup kitchen", "datasource": map[string]any{"raw": map[string]any{"fee": "no"}}}},
		}})
	}))
	defer ts.Close()

	c, err := places.New(places.Config{BaseURL: ts.URL, APIKey: "k", RPS: 100, Timeout: time.Second, Currency: "eur"}, fixedLocator{})
	require.NoError(t, err)

	pois, err := c.Search(context.Background(), "Paris", domain.CategoryRestaurant)
	require.NoError(t, err)
	require.Len(t, pois, 2)
	assert.Equal(t, "Le Comptoir", pois[0].Name)
	assert.Equal(t, "30.00 EUR", pois[0].Cost.String())
	require.NotNil(t, pois[0].Duration)
	assert.Equal(t, 90*time.Minute, *pois[0].Duration)
	assert.True(t, pois[1].Cost.IsZero())
}

func TestSearch_LocatorFailure(t *testing.T) {
	c, err := places.New(places.Config{BaseURL: "http://unused", APIKey: "k", Currency: "EUR"}, fixedLocator{err: domain.Unavailable("geocoder down")})
	require.NoError(t, err)

	_, err = c.Search(context.Background(), "Paris", domain.CategoryAttraction)
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)
}
