package restclient

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"trip_planner/internal/adapters/observability"
	"trip_planner/internal/domain"
)

// Client is a small JSON-over-HTTP client shared by the provider adapters:
// client-side rate limiting, optional retries on 429/5xx honouring
// Retry-After, and status codes mapped onto the domain error sentinels.
type Client struct {
	service  string
	base     string
	hc       *http.Client
	headers  http.Header
	rl       *rate.Limiter
	attempts int
}

type Config struct {
	Service string // metrics label
	BaseURL string
	RPS     int
	Timeout time.Duration
	Headers map[string]string
	// Attempts per request; 0 or 1 means a single try. Leave it there when a
	// caller-side retry policy wraps the client.
	Attempts int
}

// ThrottledError is a 429/5xx response. Wait is the server's Retry-After, if any.
type ThrottledError struct {
	Err  error
	Wait time.Duration
}

func (e *ThrottledError) Error() string { return e.Err.Error() }
func (e *ThrottledError) Unwrap() error { return e.Err }
func (e *ThrottledError) RetryAfter() time.Duration { return e.Wait }

func New(cfg Config) *Client {
	rps := cfg.RPS
	if rps <= 0 {
		rps = 5
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	h := http.Header{}
	h.Set("Accept", "application/json")
	h.Set("User-Agent", "trip-planner/1.0")
	for k, v := range cfg.Headers {
		h.Set(k, v)
	}
	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = 1
	}
	return &Client{
		service:  cfg.Service,
		base:     strings.TrimRight(cfg.BaseURL, "/"),
		hc:       &http.Client{Timeout: timeout},
		headers:  h,
		rl:       rate.NewLimiter(rate.Limit(rps), rps),
		attempts: attempts,
	}
}

// Get fetches base+path with query and decodes the JSON body into out.
// endpoint is the low-cardinality metrics label for path.
func (c *Client) Get(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return c.get(ctx, endpoint, u, out)
}

// GetFirst tries each path in order, moving on only when one is not found.
func (c *Client) GetFirst(ctx context.Context, endpoint string, paths []string, query url.Values, out any) error {
	var last error
	for _, p := range paths {
		err := c.Get(ctx, endpoint, p, query, out)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		last = err
	}
	if last != nil {
		return last
	}
	return fmt.Errorf("%w: %s: no candidate path", domain.ErrDataUnavailable, c.service)
}

// get performs a GET with client-side rate limiting, up to c.attempts tries, and JSON decode into out.
func (c *Client) get(ctx context.Context, endpoint, url string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return c.unavailable("rate limiter: %v", err)
	}

	var lastErr error
	for i := 0; i < c.attempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrBadInput, c.service, err)
		}
		req.Header = c.headers.Clone()

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal(c.service, endpoint, 0, time.Since(start))
			if ctx.Err() != nil {
				return c.unavailable("%v", ctx.Err())
			}
			lastErr = c.unavailable("%v", err)
			if i < c.attempts-1 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			return lastErr
		}
		observability.ObserveExternal(c.service, endpoint, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated, http.StatusAccepted:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			if err != nil {
				return c.unavailable("decode %s: %v", endpoint, err)
			}
			return nil

		case http.StatusNoContent:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil

		case http.StatusNotFound:
			resp.Body.Close()
			return fmt.Errorf("%w: %w: %s %s", domain.ErrDataUnavailable, domain.ErrNotFound, c.service, endpoint)

		case http.StatusUnauthorized, http.StatusForbidden:
			resp.Body.Close()
			return fmt.Errorf("%w: %w: %s returned %d", domain.ErrDataUnavailable, domain.ErrUnauthorized, c.service, resp.StatusCode)

		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("%w: %w: %s: %s", domain.ErrDataUnavailable, domain.ErrBadInput, c.service, strings.TrimSpace(string(b)))

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			hint := retryAfter(resp)
			resp.Body.Close()
			lastErr = &ThrottledError{Err: c.unavailable("remote %d", resp.StatusCode), Wait: hint}
			wait := hint
			if wait == 0 {
				wait = backoff(i)
			}
			if i < c.attempts-1 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return c.unavailable("%v", ctx.Err())
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return c.unavailable("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}
	return lastErr
}

func (c *Client) unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", domain.ErrDataUnavailable, c.service, fmt.Sprintf(format, args...))
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 200ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
