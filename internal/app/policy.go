package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/semaphore"

	"trip_planner/internal/domain"
)

// CallPolicy wraps every provider call (timeout + retry). Injected so callers
// decide how hard to try; stages never hard-code it.
type CallPolicy interface {
	Do(ctx context.Context, op string, fn func(ctx context.Context) error) error
}

// RetryPolicy retries transient DataUnavailable errors with exponential backoff.
type RetryPolicy struct {
	Retries   int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Timeout   time.Duration // per attempt; 0 disables
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Retries: 2, BaseDelay: 200 * time.Millisecond, MaxDelay: 2 * time.Second, Timeout: 10 * time.Second}
}

func (p RetryPolicy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.BaseDelay
	if p.MaxDelay > 0 {
		bo.MaxInterval = p.MaxDelay
	}
	bo.MaxElapsedTime = 0
	bo.Reset()

	retries := p.Retries
	if retries < 0 {
		retries = 0
	}
	hinted := &hintedBackOff{BackOff: backoff.WithMaxRetries(bo, uint64(retries)), max: p.MaxDelay}
	b := backoff.WithContext(hinted, ctx)

	err := backoff.Retry(func() error {
		callCtx, cancel := ctx, context.CancelFunc(func() {})
		if p.Timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, p.Timeout)
		}
		defer cancel()

		err := fn(callCtx)
		if err != nil && !Retryable(err) {
			return backoff.Permanent(err)
		}
		hinted.observe(err)
		return err
	}, b)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// retryAfterHint is implemented by provider errors that carry a server-sent
// Retry-After.
type retryAfterHint interface {
	RetryAfter() time.Duration
}

// hintedBackOff waits at least the last error's Retry-After, capped at max.
type hintedBackOff struct {
	backoff.BackOff
	max  time.Duration
	hint time.Duration
}

func (h *hintedBackOff) observe(err error) {
	h.hint = 0
	var ra retryAfterHint
	if errors.As(err, &ra) {
		h.hint = ra.RetryAfter()
		if h.max > 0 && h.hint > h.max {
			h.hint = h.max
		}
	}
}

func (h *hintedBackOff) NextBackOff() time.Duration {
	d := h.BackOff.NextBackOff()
	if d != backoff.Stop && h.hint > d {
		d = h.hint
	}
	return d
}

// Retryable reports whether err is a transient provider failure. Rejected
// input or credentials, missing resources, unknown forecasts and
// cancellation are final.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, domain.ErrBadInput), errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUnauthorized):
		return false
	case errors.Is(err, domain.ErrForecastUnknown), errors.Is(err, domain.ErrInvariantViolation):
		return false
	}
	return errors.Is(err, domain.ErrDataUnavailable) || errors.Is(err, context.DeadlineExceeded)
}

// NoRetry calls fn exactly once.
type NoRetry struct{}

func (NoRetry) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// asUnavailable keeps provider errors inside the DataUnavailable kind.
func asUnavailable(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if errors.Is(err, domain.ErrDataUnavailable) {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrDataUnavailable, msg, err)
}

// fanOut runs fn(0..n-1) with at most limit in flight; limit <= 1 runs inline, in order.
func fanOut(ctx context.Context, n, limit int, fn func(i int)) {
	if limit <= 1 || n <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}
	sem := semaphore.NewWeighted(int64(limit))
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		// acquire before launching; on cancellation fall back to inline so every slot is filled
		if err := sem.Acquire(ctx, 1); err != nil {
			fn(i)
			continue
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer sem.Release(1)
			fn(i)
		}(i)
	}
	wg.Wait()
}
