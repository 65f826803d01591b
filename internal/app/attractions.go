package app

import (
	"context"
	"fmt"

	"trip_planner/internal/domain"
)

// AttractionsStage looks up every category independently. One failing
// category is recorded and skipped; the stage only errors when all fail.
type AttractionsStage struct {
	provider domain.AttractionProvider
	policy   CallPolicy
}

func NewAttractionsStage(p domain.AttractionProvider, policy CallPolicy) *AttractionsStage {
	return &AttractionsStage{provider: p, policy: policy}
}

type categoryResult struct {
	items []domain.POI
	diags []domain.Diagnostic
	err   error
}

func (s *AttractionsStage) Run(ctx context.Context, tc *domain.TripContext) ([]domain.Diagnostic, error) {
	cats := domain.Categories
	results := make([]categoryResult, len(cats))

	limit := 1
	if tc.Options.ConcurrencyEnabled {
		limit = len(cats)
	}
	fanOut(ctx, len(cats), limit, func(i int) {
		results[i] = s.lookup(ctx, tc.Request.Destination, cats[i], tc.WorkingCurrency)
	})

	set := domain.AttractionSet{Items: []domain.POI{}}
	var diags []domain.Diagnostic
	for i, c := range cats {
		r := results[i]
		diags = append(diags, r.diags...)
		if r.err != nil {
			set.Failed = append(set.Failed, c)
			continue
		}
		set.Items = append(set.Items, r.items...)
	}
	if err := tc.SetAttractions(set); err != nil {
		return diags, err
	}
	if len(set.Failed) == len(cats) {
		return diags, domain.Unavailable("all %d attraction categories failed for %s", len(cats), tc.Request.Destination)
	}
	return diags, nil
}

func (s *AttractionsStage) lookup(ctx context.Context, destination string, cat domain.Category, currency string) categoryResult {
	var pois []domain.POI
	err := s.policy.Do(ctx, "attractions."+string(cat), func(ctx context.Context) error {
		var err error
		pois, err = s.provider.Search(ctx, destination, cat)
		return err
	})
	if err != nil {
		return categoryResult{
			err:   err,
			diags: []domain.Diagnostic{{Stage: domain.StageAttractions, Kind: domain.DiagDataUnavailable, Detail: fmt.Sprintf("%s lookup failed: %v", cat, err)}},
		}
	}

	var res categoryResult
	mismatched := 0
	for _, p := range pois {
		p.Category = cat
		if p.Cost.Currency == "" && p.Cost.IsZero() {
			p.Cost = domain.Zero(currency)
		}
		if p.Cost.Currency != currency {
			mismatched++
			continue
		}
		res.items = append(res.items, p)
	}
	if mismatched > 0 {
		res.diags = append(res.diags, domain.Diagnostic{
			Stage:  domain.StageAttractions,
			Kind:   domain.DiagCurrencyMismatch,
			Detail: fmt.Sprintf("dropped %d %s result(s) not priced in %s", mismatched, cat, currency),
		})
	}
	if len(res.items) == 0 {
		res.err = domain.Unavailable("no usable %s results for %s", cat, destination)
		res.diags = append(res.diags, domain.Diagnostic{
			Stage:  domain.StageAttractions,
			Kind:   domain.DiagDataUnavailable,
			Detail: fmt.Sprintf("%s lookup returned nothing usable", cat),
		})
	}
	return res
}
