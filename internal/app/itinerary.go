package app

import (
	"context"
	"fmt"

	"trip_planner/internal/domain"
)

// slotOrder is the order in which categories are dealt onto days.
var slotOrder = []domain.Category{domain.CategoryActivity, domain.CategoryAttraction, domain.CategoryRestaurant}

// BuildItinerary deals POIs round-robin across the trip dates, skipping days
// already holding maxPerDay items. Whatever does not fit is returned as
// unscheduled. Transportation options are attached to every day.
func BuildItinerary(set domain.AttractionSet, weather *domain.WeatherInfo, req domain.TripRequest, maxPerDay int, currency string) (domain.Itinerary, error) {
	if maxPerDay < 1 {
		maxPerDay = domain.DefaultMaxItemsPerDay
	}
	dates := req.Dates()
	transport := set.ByCategory(domain.CategoryTransportation)

	days := make([]domain.ItineraryDay, len(dates))
	for i, d := range dates {
		days[i] = domain.ItineraryDay{
			Day:       i + 1,
			Date:      d,
			Weather:   weather.ForDate(d),
			Items:     []domain.POI{},
			Transport: transport,
		}
	}

	var unscheduled []domain.POI
	next := 0
	for _, cat := range slotOrder {
		for _, p := range set.ByCategory(cat) {
			placed := false
			for k := 0; k < len(days); k++ {
				idx := (next + k) % len(days)
				if len(days[idx].Items) < maxPerDay {
					days[idx].Items = append(days[idx].Items, p)
					next = idx + 1
					placed = true
					break
				}
			}
			if !placed {
				unscheduled = append(unscheduled, p)
			}
		}
	}

	running := domain.Zero(currency)
	for i := range days {
		costs := make([]domain.Money, 0, len(days[i].Items))
		for _, p := range days[i].Items {
			costs = append(costs, p.Cost)
		}
		sub, err := domain.Sum(currency, costs...)
		if err != nil {
			return domain.Itinerary{}, domain.Invariant("day %d subtotal: %v", i+1, err)
		}
		if running, err = running.Add(sub); err != nil {
			return domain.Itinerary{}, domain.Invariant("day %d running total: %v", i+1, err)
		}
		days[i].Subtotal = sub
		days[i].RunningTotal = running
	}
	return domain.Itinerary{Days: days, Unscheduled: unscheduled}, nil
}

type ItineraryStage struct{}

func (ItineraryStage) Run(_ context.Context, tc *domain.TripContext) ([]domain.Diagnostic, error) {
	set, ok := tc.Attractions()
	if !ok {
		return nil, domain.Invariant("itinerary before attractions")
	}
	weather, ok := tc.Weather()
	if !ok {
		return nil, domain.Invariant("itinerary before weather")
	}
	it, err := BuildItinerary(set, &weather, tc.Request, tc.Options.MaxItemsPerDay, tc.WorkingCurrency)
	if err != nil {
		return nil, err
	}
	var diags []domain.Diagnostic
	if n := len(it.Unscheduled); n > 0 {
		diags = append(diags, domain.Diagnostic{
			Stage:  domain.StageItinerary,
			Kind:   domain.DiagUnscheduled,
			Detail: fmt.Sprintf("%d item(s) did not fit %d per day", n, tc.Options.MaxItemsPerDay),
		})
	}
	return diags, tc.SetItinerary(it)
}
