package app

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"trip_planner/internal/domain"
)

// CurrencyStage re-expresses the breakdown in the traveller's currency using
// a single rate snapshot. Same-currency plans never call the provider.
type CurrencyStage struct {
	provider domain.ExchangeRateProvider
	policy   CallPolicy
}

func NewCurrencyStage(p domain.ExchangeRateProvider, policy CallPolicy) *CurrencyStage {
	return &CurrencyStage{provider: p, policy: policy}
}

func (s *CurrencyStage) Run(ctx context.Context, tc *domain.TripContext) ([]domain.Diagnostic, error) {
	costs, ok := tc.Costs()
	if !ok {
		return nil, domain.Invariant("conversion before cost calculation")
	}
	from, to := costs.Currency, tc.Request.NativeCurrency
	if from == to {
		return nil, tc.SetConverted(ConvertBreakdown(costs, decimal.NewFromInt(1), to))
	}

	var rate decimal.Decimal
	err := s.policy.Do(ctx, "fx.rate", func(ctx context.Context) error {
		var err error
		rate, err = s.provider.Rate(ctx, from, to)
		return err
	})
	if err == nil && !rate.IsPositive() {
		err = domain.Unavailable("non-positive rate %s for %s->%s", rate, from, to)
	}
	if err != nil {
		if tc.Options.RequireConversion {
			return nil, asUnavailable(err, "exchange rate %s->%s", from, to)
		}
		cc := ConvertBreakdown(costs, decimal.NewFromInt(1), from)
		cc.ConversionUnavailable = true
		return []domain.Diagnostic{{
			Stage:  domain.StageCurrency,
			Kind:   domain.DiagConversionUnavailable,
			Detail: fmt.Sprintf("no %s->%s rate, amounts left in %s (%v)", from, to, from, err),
		}}, tc.SetConverted(cc)
	}
	return nil, tc.SetConverted(ConvertBreakdown(costs, rate, to))
}

// ConvertBreakdown applies one rate to every amount. Amounts stay exact;
// rounding happens on display.
func ConvertBreakdown(c domain.CostBreakdown, rate decimal.Decimal, to string) domain.ConvertedCosts {
	return domain.ConvertedCosts{
		From:           c.Currency,
		To:             to,
		Rate:           rate,
		NightlyRate:    c.NightlyRate.Convert(rate, to),
		Hotel:          c.Hotel.Convert(rate, to),
		HotelRange:     c.HotelRange.Convert(rate, to),
		Attractions:    c.Attractions.Convert(rate, to),
		Transportation: c.Transportation.Convert(rate, to),
		Total:          c.Total.Convert(rate, to),
		DailyBudget:    c.DailyBudget.Convert(rate, to),
	}
}
