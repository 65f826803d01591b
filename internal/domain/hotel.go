package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RateCandidate is one lodging listing quoted per night for the whole party.
type RateCandidate struct {
	PropertyID  int64    `json:"property_id,omitempty"`
	Name        string   `json:"name"`
	NightlyRate Money    `json:"nightly_rate"`
	Rating      *float64 `json:"rating,omitempty"`
	ReviewCount *int     `json:"review_count,omitempty"`
	URL         string   `json:"url,omitempty"`
}

type HotelEstimate struct {
	NightlyRate    Money       `json:"nightly_rate"`
	Nights         int         `json:"nights"`
	Total          Money       `json:"total"`
	BudgetRange    BudgetRange `json:"budget_range"`
	Candidates     int         `json:"candidates"`
	Representative string      `json:"representative,omitempty"`
	Skipped        bool        `json:"skipped,omitempty"`
}

// RateListing is a catalog row written by the ingestor and read back as a RateCandidate.
type RateListing struct {
	PropertyID   int64
	Destination  string
	Name         string
	Currency     string
	NightlyRate  decimal.Decimal
	MaxOccupancy int
	Rating       *float64
	ReviewCount  *int
	URL          *string
	RawJSON      []byte
	FetchedAt    time.Time
}

// NormalizeDestination is the catalog and cache key form of a destination.
func NormalizeDestination(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func HotelsCacheKey(destination string, partySize int) string {
	return fmt.Sprintf("hotels:%s:%d", NormalizeDestination(destination), partySize)
}
