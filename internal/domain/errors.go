package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDataUnavailable marks a provider that failed or returned nothing usable.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrInvariantViolation marks a stage-ordering or programming error. Never retried.
	ErrInvariantViolation = errors.New("invariant violation")
	// ErrInvalidRequest marks a TripRequest or Options rejected before any stage runs.
	ErrInvalidRequest = errors.New("invalid request")

	ErrBadInput         = errors.New("provider rejected input")
	ErrForecastUnknown  = errors.New("forecast unknown")
	ErrCurrencyMismatch = errors.New("mismatched currencies")
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
)

type ErrorKind string

const (
	KindDataUnavailable    ErrorKind = "data_unavailable"
	KindInvariantViolation ErrorKind = "invariant_violation"
	KindInvalidRequest     ErrorKind = "invalid_request"
	KindInternal           ErrorKind = "internal"
)

// KindOf classifies err into the planning error taxonomy.
func KindOf(err error) ErrorKind {
	var pf *PlanningFailure
	switch {
	case errors.As(err, &pf):
		return pf.Kind
	case errors.Is(err, ErrInvalidRequest):
		return KindInvalidRequest
	case errors.Is(err, ErrInvariantViolation):
		return KindInvariantViolation
	case errors.Is(err, ErrDataUnavailable):
		return KindDataUnavailable
	default:
		return KindInternal
	}
}

// Unavailable wraps a provider failure as ErrDataUnavailable.
func Unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDataUnavailable, fmt.Sprintf(format, args...))
}

// Invariant reports a required field read before it was written, or written twice.
func Invariant(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariantViolation, fmt.Sprintf(format, args...))
}

// PlanningFailure is the only error PlanTrip returns. It names exactly one
// failing stage and never carries a usable summary.
type PlanningFailure struct {
	PlanID      string
	Stage       Stage
	Kind        ErrorKind
	Err         error
	Diagnostics []Diagnostic
	States      []PlanState
}

func (f *PlanningFailure) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "planning failed at %s (%s)", f.Stage, f.Kind)
	if f.Err != nil {
		b.WriteString(": ")
		b.WriteString(f.Err.Error())
	}
	return b.String()
}

func (f *PlanningFailure) Unwrap() error { return f.Err }
