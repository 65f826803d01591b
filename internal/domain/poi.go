package domain

import "time"

type Category string

const (
	CategoryAttraction     Category = "attraction"
	CategoryRestaurant     Category = "restaurant"
	CategoryActivity       Category = "activity"
	CategoryTransportation Category = "transportation"
)

// Categories is the lookup order used by the attractions stage.
var Categories = []Category{CategoryAttraction, CategoryRestaurant, CategoryActivity, CategoryTransportation}

// POI is a point of interest with an estimated cost in the working currency.
type POI struct {
	Name     string         `json:"name"`
	Category Category       `json:"category"`
	Cost     Money          `json:"estimated_cost"`
	Duration *time.Duration `json:"duration,omitempty"`
	Address  string         `json:"address,omitempty"`
}

type AttractionSet struct {
	Items  []POI      `json:"items"`
	Failed []Category `json:"failed_categories,omitempty"`
}

func (s AttractionSet) ByCategory(c Category) []POI {
	var out []POI
	for _, p := range s.Items {
		if p.Category == c {
			out = append(out, p)
		}
	}
	return out
}
