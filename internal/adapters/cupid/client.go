package cupid

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"trip_planner/internal/adapters/restclient"
	"trip_planner/internal/domain"
)

// Client reads nightly hotel rates for the ingestor.
type Client struct {
	rc *restclient.Client
}

func New(base, key string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("API key is required")
	}
	// the ingestor calls this directly, with no retry policy around it
	return &Client{rc: restclient.New(restclient.Config{
		Service:  "cupid",
		BaseURL:  base,
		RPS:      rps,
		Timeout:  20 * time.Second,
		Headers:  map[string]string{"X-API-Key": key},
		Attempts: 4,
	})}, nil
}

// GetRates tries the current rates endpoint first, then the legacy one.
// Both a bare array and a {"data": [...]} envelope are accepted.
func (c *Client) GetRates(ctx context.Context, destination string, partySize int) ([]map[string]any, error) {
	q := url.Values{}
	q.Set("destination", destination)
	q.Set("occupancy", strconv.Itoa(partySize))

	var raw json.RawMessage
	if err := c.rc.GetFirst(ctx, "rates", []string{"/rates", "/hotels/rates"}, q, &raw); err != nil {
		return nil, err
	}
	return decodeRates(raw)
}

func decodeRates(raw json.RawMessage) ([]map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var list []map[string]any
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var env struct {
		Data    []map[string]any `json:"data"`
		Results []map[string]any `json:"results"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: cupid: unexpected rates payload: %v", domain.ErrDataUnavailable, err)
	}
	if env.Data != nil {
		return env.Data, nil
	}
	return env.Results, nil
}
