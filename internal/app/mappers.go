package app

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"trip_planner/internal/domain"
)

/********** alias registries **********/

var rateAliases = map[string][]string{
	"id":        {"hotel_id", "property_id", "cupid_id", "id"},
	"name":      {"name", "hotel_name", "property.name", "hotel.name"},
	"amount":    {"price.amount", "rate.amount", "nightly_rate", "price", "rate", "retail_rate.total.amount"},
	"currency":  {"price.currency", "rate.currency", "currency", "retail_rate.total.currency"},
	"rating":    {"rating", "review_score", "rating.score", "scores.overall"},
	"reviews":   {"review_count", "reviews_count", "rating.count"},
	"occupancy": {"max_occupancy", "occupancy", "room.max_occupancy"},
	"url":       {"url", "deeplink", "booking_url", "link"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// firstString: first non-empty string among paths.
func firstString(m map[string]any, paths ...string) string {
	for _, p := range paths {
		if s, ok := lookupAny(m, p).(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// getFloatFlexible: number from several paths (float64/int/string like "8,0").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

// firstInt64Flexible: int64 from several paths (float64/int/string).
func firstInt64Flexible(m map[string]any, paths ...string) *int64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			x := int64(v)
			return &x
		case int:
			x := int64(v)
			return &x
		case int64:
			x := v
			return &x
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				continue
			}
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return &n
			}
		}
	}
	return nil
}

// decimalFlexible keeps string amounts exact; floats go through NewFromFloat.
func decimalFlexible(m map[string]any, paths ...string) (decimal.Decimal, bool) {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case string:
			if d, err := decimal.NewFromString(strings.TrimSpace(strings.ReplaceAll(v, ",", "."))); err == nil {
				return d, true
			}
		case float64:
			return decimal.NewFromFloat(v), true
		case int:
			return decimal.NewFromInt(int64(v)), true
		case json.Number:
			if d, err := decimal.NewFromString(v.String()); err == nil {
				return d, true
			}
		}
	}
	return decimal.Decimal{}, false
}

func ptrStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

/********** rate mapper **********/

// mapRate turns one provider payload into a catalog row. ok=false means the
// payload had no id, no positive price or no currency.
func mapRate(destination string, partySize int, p map[string]any, fetchedAt time.Time) (domain.RateListing, bool) {
	id := firstInt64Flexible(p, rateAliases["id"]...)
	amount, hasAmount := decimalFlexible(p, rateAliases["amount"]...)
	currency := strings.ToUpper(firstString(p, rateAliases["currency"]...))
	if id == nil || !hasAmount || !amount.IsPositive() || len(currency) != 3 {
		return domain.RateListing{}, false
	}

	raw, err := json.Marshal(p)
	if err != nil {
		log.Error().Err(err).
			Str("context", "mapRate").
			Msg("failed to marshal rate to JSON")
	}

	occupancy := partySize
	if v := firstInt64Flexible(p, rateAliases["occupancy"]...); v != nil && int(*v) > 0 {
		occupancy = int(*v)
	}

	var reviews *int
	if v := firstInt64Flexible(p, rateAliases["reviews"]...); v != nil {
		n := int(*v)
		reviews = &n
	}

	return domain.RateListing{
		PropertyID:   *id,
		Destination:  domain.NormalizeDestination(destination),
		Name:         firstString(p, rateAliases["name"]...),
		Currency:     currency,
		NightlyRate:  amount,
		MaxOccupancy: occupancy,
		Rating:       getFloatFlexible(p, rateAliases["rating"]...),
		ReviewCount:  reviews,
		URL:          ptrStr(firstString(p, rateAliases["url"]...)),
		RawJSON:      raw,
		FetchedAt:    fetchedAt.UTC(),
	}, true
}
