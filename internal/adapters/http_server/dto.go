package httpserver

import (
	"strings"

	"github.com/shopspring/decimal"

	"trip_planner/internal/domain"
)

type planOptionsDTO struct {
	SkipLodging        *bool   `json:"skip_lodging"`
	MaxItemsPerDay     *int    `json:"max_items_per_day"`
	ConcurrencyEnabled *bool   `json:"concurrency_enabled"`
	WorkingCurrency    *string `json:"working_currency"`
	RequireConversion  *bool   `json:"require_conversion"`
}

type budgetDTO struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

type planRequestDTO struct {
	Destination    string          `json:"destination"`
	StartDate      string          `json:"start_date"`
	EndDate        string          `json:"end_date"`
	PartySize      int             `json:"party_size"`
	NativeCurrency string          `json:"native_currency"`
	Budget         *budgetDTO      `json:"budget"`
	Options        *planOptionsDTO `json:"options"`
}

// toDomain parses dates and overlays options on defaults. Range and format
// checks beyond date parsing are left to the planner's validation.
func (d planRequestDTO) toDomain(defaults domain.Options) (domain.TripRequest, domain.Options, error) {
	start, err := domain.ParseDate(d.StartDate)
	if err != nil {
		return domain.TripRequest{}, domain.Options{}, err
	}
	end, err := domain.ParseDate(d.EndDate)
	if err != nil {
		return domain.TripRequest{}, domain.Options{}, err
	}
	req := domain.NewTripRequest(d.Destination, start, end, d.PartySize, d.NativeCurrency)
	if d.Budget != nil {
		b := domain.NewMoney(d.Budget.Amount, d.Budget.Currency)
		if b.Currency == "" {
			b.Currency = req.NativeCurrency
		}
		req.Budget = &b
	}

	opts := defaults
	if o := d.Options; o != nil {
		if o.SkipLodging != nil {
			opts.SkipLodging = *o.SkipLodging
		}
		if o.MaxItemsPerDay != nil {
			opts.MaxItemsPerDay = *o.MaxItemsPerDay
		}
		if o.ConcurrencyEnabled != nil {
			opts.ConcurrencyEnabled = *o.ConcurrencyEnabled
		}
		if o.WorkingCurrency != nil {
			opts.WorkingCurrency = strings.ToUpper(strings.TrimSpace(*o.WorkingCurrency))
		}
		if o.RequireConversion != nil {
			opts.RequireConversion = *o.RequireConversion
		}
	}
	return req, opts, nil
}
