package app

import (
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"trip_planner/internal/domain"
)

const topPicksPerCategory = 3

var pickLabels = []struct {
	cat   domain.Category
	label string
}{
	{domain.CategoryAttraction, "Sights"},
	{domain.CategoryActivity, "Things to do"},
	{domain.CategoryRestaurant, "Where to eat"},
}

var narrative = template.Must(template.New("narrative").Funcs(template.FuncMap{
	"date": func(t time.Time) string { return t.Format("Mon 02 Jan 2006") },
	"join": strings.Join,
}).Parse(`{{.Days}}-day trip to {{.Destination}} ({{date .Start}} to {{date .End}}) for {{.PartySize}} {{if eq .PartySize 1}}traveller{{else}}travellers{{end}}.
Weather: {{.Weather}}.
{{if .Skipped}}Lodging is not included.{{else}}Stay: about {{.Nightly}} per night for the party, {{.Hotel}} over {{.Nights}} {{if eq .Nights 1}}night{{else}}nights{{end}}.{{end}}
{{range .Picks}}{{.Label}}: {{join .Names ", "}}.
{{end}}Estimated total {{.Total}}, roughly {{.Daily}} per day.{{with .Budget}}{{if .OverBudget}} Over budget by {{$.Over}}.{{else}} Within budget with {{.Remaining}} to spare.{{end}}{{end}}{{range .Assumptions}}
Note: {{.}}{{end}}`))

type pick struct {
	Label string
	Names []string
}

type narrativeView struct {
	Days, Nights, PartySize int
	Destination             string
	Start, End              time.Time
	Weather                 string
	Skipped                 bool
	Nightly, Hotel          domain.Money
	Picks                   []pick
	Total, Daily            domain.Money
	Budget                  *domain.BudgetCheck
	Over                    domain.Money
	Assumptions             []string
}

// BuildSummary assembles the final artifact from a fully populated context.
// The returned diagnostics are already included in the summary.
func BuildSummary(tc *domain.TripContext, now time.Time) (domain.TripSummary, []domain.Diagnostic, error) {
	set, ok := tc.Attractions()
	if !ok {
		return domain.TripSummary{}, nil, domain.Invariant("summary before attractions")
	}
	weather, ok := tc.Weather()
	if !ok {
		return domain.TripSummary{}, nil, domain.Invariant("summary before weather")
	}
	hotel, ok := tc.Hotel()
	if !ok {
		return domain.TripSummary{}, nil, domain.Invariant("summary before hotel estimate")
	}
	costs, ok := tc.Costs()
	if !ok {
		return domain.TripSummary{}, nil, domain.Invariant("summary before cost breakdown")
	}
	converted, ok := tc.Converted()
	if !ok {
		return domain.TripSummary{}, nil, domain.Invariant("summary before conversion")
	}
	it, ok := tc.Itinerary()
	if !ok {
		return domain.TripSummary{}, nil, domain.Invariant("summary before itinerary")
	}

	req := tc.Request
	var diags []domain.Diagnostic
	budget, d := checkBudget(req.Budget, costs, converted)
	if d != nil {
		diags = append(diags, *d)
	}
	all := make([]domain.Diagnostic, 0, len(tc.Diagnostics)+len(diags))
	all = append(append(all, tc.Diagnostics...), diags...)

	s := domain.TripSummary{
		ID:                tc.PlanID,
		Destination:       req.Destination,
		Start:             req.Start,
		End:               req.End,
		Nights:            req.Nights(),
		Days:              req.Days(),
		PartySize:         req.PartySize,
		WeatherHeadline:   weatherHeadline(weather),
		WeatherHighlights: weatherHighlights(weather),
		TopPicks:          map[domain.Category][]string{},
		Hotel:             hotel,
		Itinerary:         it,
		Breakdown:         costs,
		Costs:             converted,
		Budget:            budget,
		Assumptions:       assumptions(all, costs),
		Diagnostics:       all,
		GeneratedAt:       now.UTC(),
	}

	view := narrativeView{
		Days: s.Days, Nights: s.Nights, PartySize: s.PartySize,
		Destination: s.Destination, Start: s.Start, End: s.End,
		Weather: s.WeatherHeadline, Skipped: hotel.Skipped,
		Nightly: converted.NightlyRate, Hotel: converted.Hotel,
		Total: converted.Total, Daily: converted.DailyBudget,
		Budget: budget, Assumptions: s.Assumptions,
	}
	if budget != nil && budget.OverBudget {
		view.Over = domain.NewMoney(budget.Remaining.Amount.Neg(), budget.Remaining.Currency)
	}
	for _, pl := range pickLabels {
		names := topNames(set.ByCategory(pl.cat), topPicksPerCategory)
		if len(names) == 0 {
			continue
		}
		s.TopPicks[pl.cat] = names
		view.Picks = append(view.Picks, pick{Label: pl.label, Names: names})
	}

	var b strings.Builder
	if err := narrative.Execute(&b, view); err != nil {
		return domain.TripSummary{}, diags, fmt.Errorf("render narrative: %w", err)
	}
	s.Narrative = b.String()
	return s, diags, nil
}

func topNames(pois []domain.POI, n int) []string {
	out := make([]string, 0, n)
	for _, p := range pois {
		if len(out) == n {
			break
		}
		out = append(out, p.Name)
	}
	return out
}

func weatherHeadline(w domain.WeatherInfo) string {
	parts := []string{fmt.Sprintf("currently %.0f°C", w.Current.TemperatureC)}
	if w.Current.Description != "" {
		parts[0] += ", " + w.Current.Description
	}

	known, rainy := 0, 0
	var lo, hi float64
	for _, f := range w.Forecast {
		if !f.Known {
			continue
		}
		if known == 0 || f.MinTempC < lo {
			lo = f.MinTempC
		}
		if known == 0 || f.MaxTempC > hi {
			hi = f.MaxTempC
		}
		if f.PrecipitationProb >= 50 {
			rainy++
		}
		known++
	}
	if known > 0 {
		parts = append(parts, fmt.Sprintf("%.0f to %.0f°C expected", lo, hi))
		if rainy > 0 {
			parts = append(parts, fmt.Sprintf("rain likely on %d of %d days", rainy, known))
		}
	}
	if unknown := w.UnknownDays(); unknown > 0 {
		parts = append(parts, fmt.Sprintf("no forecast yet for %d day(s)", unknown))
	}
	return strings.Join(parts, "; ")
}

func weatherHighlights(w domain.WeatherInfo) []string {
	out := make([]string, 0, len(w.Forecast))
	for _, f := range w.Forecast {
		day := f.Date.Format("Mon 02 Jan")
		if !f.Known {
			out = append(out, day+": forecast unknown")
			continue
		}
		line := fmt.Sprintf("%s: %.0f-%.0f°C", day, f.MinTempC, f.MaxTempC)
		if f.Description != "" {
			line += ", " + f.Description
		}
		line += fmt.Sprintf(", %.0f%% chance of rain", f.PrecipitationProb)
		out = append(out, line)
	}
	return out
}

func assumptions(diags []domain.Diagnostic, costs domain.CostBreakdown) []string {
	var out []string
	if !costs.Transportation.IsZero() {
		out = append(out, "transportation options are counted once for the whole party")
	}
	for _, d := range diags {
		if d.Kind == domain.DiagAssumption || d.Kind == domain.DiagConversionUnavailable {
			out = append(out, d.Detail)
		}
	}
	return out
}

// checkBudget compares the budget against whichever total shares its currency.
func checkBudget(budget *domain.Money, costs domain.CostBreakdown, converted domain.ConvertedCosts) (*domain.BudgetCheck, *domain.Diagnostic) {
	if budget == nil {
		return nil, nil
	}
	var planned domain.Money
	switch budget.Currency {
	case converted.Total.Currency:
		planned = converted.Total
	case costs.Currency:
		planned = costs.Total
	default:
		return nil, &domain.Diagnostic{
			Stage:  domain.StageSummary,
			Kind:   domain.DiagCurrencyMismatch,
			Detail: fmt.Sprintf("budget in %s not compared, plan is priced in %s", budget.Currency, converted.Total.Currency),
		}
	}
	remaining := domain.NewMoney(budget.Amount.Sub(planned.Amount), planned.Currency)
	return &domain.BudgetCheck{
		Budget:     *budget,
		Planned:    planned,
		Remaining:  remaining,
		OverBudget: remaining.Amount.IsNegative(),
	}, nil
}

type SummaryStage struct {
	Now func() time.Time
}

func (s SummaryStage) Run(_ context.Context, tc *domain.TripContext) ([]domain.Diagnostic, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	sum, diags, err := BuildSummary(tc, now())
	if err != nil {
		return diags, err
	}
	return diags, tc.SetSummary(sum)
}
