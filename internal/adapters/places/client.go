package places

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"trip_planner/internal/adapters/restclient"
	"trip_planner/internal/domain"
)

// Locator resolves a destination to coordinates (the Open-Meteo geocoder in production).
type Locator interface {
	Coordinates(ctx context.Context, destination string) (lat, lon float64, err error)
}

// Provider category filters per domain category.
var categoryFilters = map[domain.Category]string{
	domain.CategoryAttraction:     "tourism.sights,tourism.attraction",
	domain.CategoryRestaurant:     "catering.restaurant",
	domain.CategoryActivity:       "entertainment,leisure.park",
	domain.CategoryTransportation: "public_transport,rental.bicycle",
}

// Estimate is the flat price and visit length assumed for a category.
type Estimate struct {
	Cost     decimal.Decimal
	Duration time.Duration
}

// DefaultEstimates are per-person figures used when a listing carries no fee information.
func DefaultEstimates() map[domain.Category]Estimate {
	return map[domain.Category]Estimate{
		domain.CategoryAttraction:     {Cost: decimal.NewFromInt(18), Duration: 2 * time.Hour},
		domain.CategoryRestaurant:     {Cost: decimal.NewFromInt(30), Duration: 90 * time.Minute},
		domain.CategoryActivity:       {Cost: decimal.NewFromInt(25), Duration: 3 * time.Hour},
		domain.CategoryTransportation: {Cost: decimal.NewFromInt(8)},
	}
}

type Config struct {
	BaseURL   string
	APIKey    string
	RPS       int
	Timeout   time.Duration
	Currency  string // currency of Estimates
	Estimates map[domain.Category]Estimate
	Limit     int
	RadiusM   int
}

// Client implements domain.AttractionProvider on a Geoapify-style places API.
type Client struct {
	rc        *restclient.Client
	locator   Locator
	key       string
	currency  string
	estimates map[domain.Category]Estimate
	limit     int
	radius    int
}

func New(cfg Config, loc Locator) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("places API key is required")
	}
	if loc == nil {
		return nil, fmt.Errorf("places: locator is required")
	}
	if cfg.Estimates == nil {
		cfg.Estimates = DefaultEstimates()
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 10
	}
	if cfg.RadiusM <= 0 {
		cfg.RadiusM = 5000
	}
	return &Client{
		rc:        restclient.New(restclient.Config{Service: "places", BaseURL: cfg.BaseURL, RPS: cfg.RPS, Timeout: cfg.Timeout}),
		locator:   loc,
		key:       cfg.APIKey,
		currency:  strings.ToUpper(cfg.Currency),
		estimates: cfg.Estimates,
		limit:     cfg.Limit,
		radius:    cfg.RadiusM,
	}, nil
}

type featureCollection struct {
	Features []struct {
		Properties struct {
			Name       string   `json:"name"`
			Formatted  string   `json:"formatted"`
			Categories []string `json:"categories"`
			Datasource struct {
				Raw map[string]any `json:"raw"`
			} `json:"datasource"`
		} `json:"properties"`
	} `json:"features"`
}

func (c *Client) Search(ctx context.Context, destination string, category domain.Category) ([]domain.POI, error) {
	filter, ok := categoryFilters[category]
	if !ok {
		return nil, fmt.Errorf("%w: %w: unknown category %q", domain.ErrDataUnavailable, domain.ErrBadInput, category)
	}
	lat, lon, err := c.locator.Coordinates(ctx, destination)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("categories", filter)
	q.Set("filter", fmt.Sprintf("circle:%s,%s,%d", ftoa(lon), ftoa(lat), c.radius))
	q.Set("bias", fmt.Sprintf("proximity:%s,%s", ftoa(lon), ftoa(lat)))
	q.Set("limit", strconv.Itoa(c.limit))
	q.Set("apiKey", c.key)

	var fc featureCollection
	if err := c.rc.Get(ctx, "places", "/v2/places", q, &fc); err != nil {
		return nil, err
	}

	est := c.estimates[category]
	out := make([]domain.POI, 0, len(fc.Features))
	for _, f := range fc.Features {
		p := f.Properties
		if strings.TrimSpace(p.Name) == "" {
			continue
		}
		cost := est.Cost
		if fee, _ := p.Datasource.Raw["fee"].(string); fee == "no" {
			cost = decimal.Zero
		}
		poi := domain.POI{
			Name:     p.Name,
			Category: category,
			Cost:     domain.NewMoney(cost, c.currency),
			Address:  p.Formatted,
		}
		if est.Duration > 0 {
			d := est.Duration
			poi.Duration = &d
		}
		out = append(out, poi)
	}
	return out, nil
}

func ftoa(f float64) string { return strconv.FormatFloat(f, 'f', 5, 64) }
