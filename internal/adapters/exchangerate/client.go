package exchangerate

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"trip_planner/internal/adapters/restclient"
	"trip_planner/internal/domain"
)

// Client implements domain.ExchangeRateProvider on the exchangerate-api v6 pair endpoint.
type Client struct {
	rc  *restclient.Client
	key string
}

func New(base, key string, rps int, timeout time.Duration) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("FX API key is required")
	}
	return &Client{
		rc:  restclient.New(restclient.Config{Service: "exchangerate", BaseURL: base, RPS: rps, Timeout: timeout}),
		key: key,
	}, nil
}

type pairResponse struct {
	Result         string          `json:"result"`
	ErrorType      string          `json:"error-type"`
	Base           string          `json:"base_code"`
	Target         string          `json:"target_code"`
	ConversionRate decimal.Decimal `json:"conversion_rate"`
}

func (c *Client) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	path := fmt.Sprintf("/v6/%s/pair/%s/%s", url.PathEscape(c.key), url.PathEscape(from), url.PathEscape(to))
	var resp pairResponse
	if err := c.rc.Get(ctx, "pair", path, nil, &resp); err != nil {
		return decimal.Decimal{}, err
	}
	if resp.Result != "success" {
		switch resp.ErrorType {
		case "unsupported-code", "malformed-request":
			return decimal.Decimal{}, fmt.Errorf("%w: %w: %s->%s: %s", domain.ErrDataUnavailable, domain.ErrBadInput, from, to, resp.ErrorType)
		default:
			return decimal.Decimal{}, fmt.Errorf("%w: %s->%s: %s", domain.ErrDataUnavailable, from, to, resp.ErrorType)
		}
	}
	if !resp.ConversionRate.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("%w: %s->%s: non-positive rate %s", domain.ErrDataUnavailable, from, to, resp.ConversionRate)
	}
	return resp.ConversionRate, nil
}
