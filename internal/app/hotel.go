package app

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"trip_planner/internal/domain"
)

// HotelStage turns rate candidates into one nightly estimate using the
// median, so a single outlier listing does not move the plan.
type HotelStage struct {
	provider domain.HotelProvider
	policy   CallPolicy
}

func NewHotelStage(p domain.HotelProvider, policy CallPolicy) *HotelStage {
	return &HotelStage{provider: p, policy: policy}
}

func (s *HotelStage) Run(ctx context.Context, tc *domain.TripContext) ([]domain.Diagnostic, error) {
	req := tc.Request
	cur := tc.WorkingCurrency

	var cands []domain.RateCandidate
	err := s.policy.Do(ctx, "hotel.search", func(ctx context.Context) error {
		var err error
		if cp, ok := s.provider.(domain.CurrencyHotelProvider); ok {
			cands, err = cp.SearchIn(ctx, req.Destination, req.PartySize, cur)
		} else {
			cands, err = s.provider.Search(ctx, req.Destination, req.PartySize)
		}
		return err
	})

	var diags []domain.Diagnostic
	usable := make([]domain.RateCandidate, 0, len(cands))
	mismatched := 0
	for _, c := range cands {
		if c.NightlyRate.Currency != cur {
			mismatched++
			continue
		}
		if !c.NightlyRate.Amount.IsPositive() {
			continue
		}
		usable = append(usable, c)
	}
	if mismatched > 0 {
		diags = append(diags, domain.Diagnostic{
			Stage:  domain.StageHotel,
			Kind:   domain.DiagCurrencyMismatch,
			Detail: fmt.Sprintf("dropped %d candidate(s) not priced in %s", mismatched, cur),
		})
	}

	if err == nil && len(usable) == 0 {
		err = domain.Unavailable("no lodging candidates for %s", req.Destination)
	}
	if err != nil {
		if !tc.Options.SkipLodging {
			return diags, asUnavailable(err, "hotel rates for %s", req.Destination)
		}
		diags = append(diags, domain.Diagnostic{
			Stage:  domain.StageHotel,
			Kind:   domain.DiagAssumption,
			Detail: fmt.Sprintf("lodging skipped, hotel cost assumed 0 %s (%v)", cur, err),
		})
		zero := domain.Zero(cur)
		return diags, tc.SetHotel(domain.HotelEstimate{
			NightlyRate: zero,
			Nights:      req.Nights(),
			Total:       zero,
			BudgetRange: domain.BudgetRange{Low: zero, High: zero},
			Skipped:     true,
		})
	}

	return diags, tc.SetHotel(Estimate(usable, req.Nights(), cur))
}

// Estimate computes the median nightly rate over candidates (all priced in
// currency, at least one). Even counts use the mean of the two middle rates.
func Estimate(cands []domain.RateCandidate, nights int, currency string) domain.HotelEstimate {
	sorted := append([]domain.RateCandidate(nil), cands...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].NightlyRate.Amount.LessThan(sorted[j].NightlyRate.Amount)
	})

	n := len(sorted)
	var median decimal.Decimal
	if n%2 == 1 {
		median = sorted[n/2].NightlyRate.Amount
	} else {
		median = sorted[n/2-1].NightlyRate.Amount.Add(sorted[n/2].NightlyRate.Amount).Div(decimal.NewFromInt(2))
	}

	rate := domain.NewMoney(median, currency)
	return domain.HotelEstimate{
		NightlyRate: rate,
		Nights:      nights,
		Total:       rate.MulInt(nights),
		BudgetRange: domain.BudgetRange{
			Low:  sorted[0].NightlyRate.MulInt(nights),
			High: sorted[n-1].NightlyRate.MulInt(nights),
		},
		Candidates:     n,
		Representative: sorted[(n-1)/2].Name,
	}
}
