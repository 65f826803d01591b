package app

import (
	"context"

	"trip_planner/internal/domain"
)

// CalculateCosts aggregates the hotel estimate and priced POIs into one
// breakdown in the working currency. Transportation options are counted once.
func CalculateCosts(tc *domain.TripContext) (domain.CostBreakdown, error) {
	set, ok := tc.Attractions()
	if !ok {
		return domain.CostBreakdown{}, domain.Invariant("cost calculation before attractions")
	}
	hotel, ok := tc.Hotel()
	if !ok {
		return domain.CostBreakdown{}, domain.Invariant("cost calculation before hotel estimate")
	}

	cur := tc.WorkingCurrency
	var sights, transport []domain.Money
	for _, p := range set.Items {
		if p.Category == domain.CategoryTransportation {
			transport = append(transport, p.Cost)
		} else {
			sights = append(sights, p.Cost)
		}
	}

	attractions, err := domain.Sum(cur, sights...)
	if err != nil {
		return domain.CostBreakdown{}, domain.Invariant("attraction costs: %v", err)
	}
	transportation, err := domain.Sum(cur, transport...)
	if err != nil {
		return domain.CostBreakdown{}, domain.Invariant("transportation costs: %v", err)
	}
	total, err := domain.Sum(cur, hotel.Total, attractions, transportation)
	if err != nil {
		return domain.CostBreakdown{}, domain.Invariant("total: %v", err)
	}

	days := tc.Request.Days()
	return domain.CostBreakdown{
		Currency:       cur,
		NightlyRate:    hotel.NightlyRate,
		Hotel:          hotel.Total,
		HotelRange:     hotel.BudgetRange,
		Attractions:    attractions,
		Transportation: transportation,
		Total:          total,
		DailyBudget:    total.DivInt(days),
		Days:           days,
	}, nil
}

type CostStage struct{}

func (CostStage) Run(_ context.Context, tc *domain.TripContext) ([]domain.Diagnostic, error) {
	b, err := CalculateCosts(tc)
	if err != nil {
		return nil, err
	}
	return nil, tc.SetCosts(b)
}
