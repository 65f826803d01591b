package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Stage string

const (
	StageRequest     Stage = "request"
	StageAttractions Stage = "attractions"
	StageWeather     Stage = "weather"
	StageHotel       Stage = "hotel"
	StageCost        Stage = "cost"
	StageCurrency    Stage = "currency"
	StageItinerary   Stage = "itinerary"
	StageSummary     Stage = "summary"
)

type PlanState string

const (
	StateInit                          PlanState = "Init"
	StateFetchingAttractionsAndWeather PlanState = "FetchingAttractionsAndWeather"
	StateFetchingHotel                 PlanState = "FetchingHotel"
	StateCalculating                   PlanState = "Calculating"
	StateConverting                    PlanState = "Converting"
	StateBuildingItinerary             PlanState = "BuildingItinerary"
	StateSummarizing                   PlanState = "Summarizing"
	StateDone                          PlanState = "Done"
	StateFailed                        PlanState = "Failed"
)

type DiagnosticKind string

const (
	DiagDataUnavailable       DiagnosticKind = "data_unavailable"
	DiagUnknown               DiagnosticKind = "unknown"
	DiagAssumption            DiagnosticKind = "assumption"
	DiagCurrencyMismatch      DiagnosticKind = "currency_mismatch"
	DiagConversionUnavailable DiagnosticKind = "conversion_unavailable"
	DiagUnscheduled           DiagnosticKind = "unscheduled"
)

// Diagnostic records a degraded field that did not abort the plan.
type Diagnostic struct {
	Stage  Stage          `json:"stage"`
	Kind   DiagnosticKind `json:"kind"`
	Detail string         `json:"detail"`
}

type CostBreakdown struct {
	Currency       string      `json:"currency"`
	NightlyRate    Money       `json:"nightly_rate"`
	Hotel          Money       `json:"hotel"`
	HotelRange     BudgetRange `json:"hotel_range"`
	Attractions    Money       `json:"attractions"`
	Transportation Money       `json:"transportation"`
	Total          Money       `json:"total"`
	DailyBudget    Money       `json:"daily_budget"`
	Days           int         `json:"days"`
}

// ConvertedCosts is a CostBreakdown re-expressed with one rate snapshot.
type ConvertedCosts struct {
	From                  string          `json:"from"`
	To                    string          `json:"to"`
	Rate                  decimal.Decimal `json:"rate"`
	ConversionUnavailable bool            `json:"conversion_unavailable,omitempty"`
	NightlyRate           Money           `json:"nightly_rate"`
	Hotel                 Money           `json:"hotel"`
	HotelRange            BudgetRange     `json:"hotel_range"`
	Attractions           Money           `json:"attractions"`
	Transportation        Money           `json:"transportation"`
	Total                 Money           `json:"total"`
	DailyBudget           Money           `json:"daily_budget"`
}

type ItineraryDay struct {
	Day          int         `json:"day"`
	Date         time.Time   `json:"date"`
	Weather      DayForecast `json:"weather"`
	Items        []POI       `json:"items"`
	Transport    []POI       `json:"transport_options,omitempty"`
	Subtotal     Money       `json:"subtotal"`
	RunningTotal Money       `json:"running_total"`
}

type Itinerary struct {
	Days        []ItineraryDay `json:"days"`
	Unscheduled []POI          `json:"unscheduled,omitempty"`
}

type BudgetCheck struct {
	Budget     Money `json:"budget"`
	Planned    Money `json:"planned"`
	Remaining  Money `json:"remaining"`
	OverBudget bool  `json:"over_budget"`
}

// TripSummary is the terminal artifact of a plan; it is built once and not mutated.
type TripSummary struct {
	ID                string                `json:"id"`
	Destination       string                `json:"destination"`
	Start             time.Time             `json:"start_date"`
	End               time.Time             `json:"end_date"`
	Nights            int                   `json:"nights"`
	Days              int                   `json:"days"`
	PartySize         int                   `json:"party_size"`
	WeatherHeadline   string                `json:"weather_headline"`
	WeatherHighlights []string              `json:"weather_highlights,omitempty"`
	TopPicks          map[Category][]string `json:"top_picks"`
	Hotel             HotelEstimate         `json:"hotel"`
	Itinerary         Itinerary             `json:"itinerary"`
	Breakdown         CostBreakdown         `json:"working_costs"`
	Costs             ConvertedCosts        `json:"costs"`
	Budget            *BudgetCheck          `json:"budget,omitempty"`
	Assumptions       []string              `json:"assumptions,omitempty"`
	Diagnostics       []Diagnostic          `json:"diagnostics,omitempty"`
	Narrative         string                `json:"narrative"`
	GeneratedAt       time.Time             `json:"generated_at"`
}
