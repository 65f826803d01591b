package exchangerate_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trip_planner/internal/adapters/exchangerate"
	"trip_planner/internal/domain"
)

func TestRate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v6/k/pair/EUR/USD":
			w.Write([]byte(`{"result":"success","base_code":"EUR","target_code":"USD","conversion_rate":1.0845}`))
		case "/v6/k/pair/EUR/XXX":
			w.Write([]byte(`{"result":"error","error-type":"unsupported-code"}`))
		default:
			w.Write([]byte(`{"result":"error","error-type":"quota-reached"}`))
		}
	}))
	defer ts.Close()

	c, err := exchangerate.New(ts.URL, "k", 100, time.Second)
	require.NoError(t, err)

	rate, err := c.Rate(context.Background(), "eur", "usd")
	require.NoError(t, err)
	assert.Equal(t, "1.0845", rate.String())

	same, err := c.Rate(context.Background(), "USD", "USD")
	require.NoError(t, err)
	assert.Equal(t, "1", same.String())

	_, err = c.Rate(context.Background(), "EUR", "XXX")
	assert.ErrorIs(t, err, domain.ErrBadInput)

	_, err = c.Rate(context.Background(), "EUR", "GBP")
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)
	assert.NotErrorIs(t, err, domain.ErrBadInput)
}
