package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const DateLayout = "2006-01-02"

const DefaultMaxItemsPerDay = 4

// DefaultMaxTripDays bounds [Start, End]; every day costs a forecast lookup.
const DefaultMaxTripDays = 366

var validate = validator.New(validator.WithRequiredStructEnabled())

// TripRequest is the immutable planning input. Dates are calendar days at UTC midnight.
type TripRequest struct {
	Destination    string    `json:"destination" validate:"required,max=120"`
	Start          time.Time `json:"start_date" validate:"required"`
	End            time.Time `json:"end_date" validate:"required,gtefield=Start"`
	PartySize      int       `json:"party_size" validate:"gte=1,lte=50"`
	NativeCurrency string    `json:"native_currency" validate:"required,iso4217"`
	Budget         *Money    `json:"budget,omitempty"`
}

func NewTripRequest(destination string, start, end time.Time, partySize int, nativeCurrency string) TripRequest {
	return TripRequest{
		Destination:    strings.TrimSpace(destination),
		Start:          DateOnly(start),
		End:            DateOnly(end),
		PartySize:      partySize,
		NativeCurrency: strings.ToUpper(strings.TrimSpace(nativeCurrency)),
	}
}

// DateOnly drops time-of-day and zone, keeping the calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidRequest, s)
	}
	return t, nil
}

func (r TripRequest) Nights() int {
	n := dayNumber(r.End) - dayNumber(r.Start)
	if n < 0 {
		return 0
	}
	return int(n)
}

// dayNumber is the Julian day number of t's calendar date. Unlike
// time.Duration it does not saturate across the full year range.
func dayNumber(t time.Time) int64 {
	y, m, d := t.Date()
	a := (14 - int64(m)) / 12
	yy := int64(y) + 4800 - a
	mm := int64(m) + 12*a - 3
	return int64(d) + (153*mm+2)/5 + 365*yy + yy/4 - yy/100 + yy/400 - 32045
}

func (r TripRequest) Days() int { return r.Nights() + 1 }

// Dates lists every date in [Start, End] in order.
func (r TripRequest) Dates() []time.Time {
	start := DateOnly(r.Start)
	out := make([]time.Time, 0, r.Days())
	for i := 0; i < r.Days(); i++ {
		out = append(out, start.AddDate(0, 0, i))
	}
	return out
}

func (r TripRequest) Validate() error { return r.ValidateMaxDays(DefaultMaxTripDays) }

// ValidateMaxDays is Validate with a custom trip length cap; maxDays <= 0 lifts it.
func (r TripRequest) ValidateMaxDays(maxDays int) error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, describe(err))
	}
	if maxDays > 0 && dayNumber(r.End)-dayNumber(r.Start)+1 > int64(maxDays) {
		return fmt.Errorf("%w: trip spans more than %d days", ErrInvalidRequest, maxDays)
	}
	if r.Budget != nil {
		if r.Budget.Amount.IsNegative() {
			return fmt.Errorf("%w: budget must not be negative", ErrInvalidRequest)
		}
		if err := validate.Var(r.Budget.Currency, "required,iso4217"); err != nil {
			return fmt.Errorf("%w: budget currency %q is not an ISO 4217 code", ErrInvalidRequest, r.Budget.Currency)
		}
	}
	return nil
}

// Options tune a single PlanTrip call. Start from DefaultOptions.
type Options struct {
	SkipLodging        bool   `json:"skip_lodging"`
	MaxItemsPerDay     int    `json:"max_items_per_day" validate:"gte=1,lte=24"`
	ConcurrencyEnabled bool   `json:"concurrency_enabled"`
	WorkingCurrency    string `json:"working_currency" validate:"omitempty,iso4217"`
	RequireConversion  bool   `json:"require_conversion"`
}

func DefaultOptions() Options {
	return Options{MaxItemsPerDay: DefaultMaxItemsPerDay, ConcurrencyEnabled: true}
}

func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, describe(err))
	}
	return nil
}

func describe(err error) string {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err.Error()
	}
	msgs := make([]string, 0, len(ves))
	for _, fe := range ves {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "gtefield":
			msgs = append(msgs, fmt.Sprintf("%s must not be before %s", fe.Field(), fe.Param()))
		case "iso4217":
			msgs = append(msgs, fmt.Sprintf("%s %q is not an ISO 4217 code", fe.Field(), fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		}
	}
	return strings.Join(msgs, "; ")
}
