package cupid_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"trip_planner/internal/adapters/cupid"
	"trip_planner/internal/domain"
)

func TestClient_GetRates_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("occupancy") != "2" {
			t.Errorf("occupancy not forwarded: %s", r.URL.RawQuery)
		}
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			// two transient failures
			w.WriteHeader(500)
		default:
			w.WriteHeader(200)
			_ = json.NewEncoder(w).Encode(map[string]any{"data": []any{map[string]any{"hotel_id": 123.0}}})
		}
	}))
	defer ts.Close()

	cl, err := cupid.New(ts.URL, "test-key", 100) // high RPS for tests
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	got, err := cl.GetRates(ctx, "Paris", 2)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if id, ok := got[0]["hotel_id"].(float64); !ok || int(id) != 123 {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if atomic.LoadInt32(&hits) < 3 {
		t.Fatalf("expected at least 3 calls due to retries, got %d", hits)
	}
}

func TestClient_GetRates_LegacyPath(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/hotels/rates" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode([]any{map[string]any{"id": 1.0}, map[string]any{"id": 2.0}})
	}))
	defer ts.Close()

	cl, _ := cupid.New(ts.URL, "test-key", 100)
	got, err := cl.GetRates(context.Background(), "Rome", 1)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rates, got %d", len(got))
	}
}

func TestClient_GetRates_404(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	cl, err := cupid.New(ts.URL, "test-key", 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err = cl.GetRates(ctx, "Nowhere", 1)
	if err == nil {
		t.Fatalf("expected error for 404")
	}
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNew_RequiresKey(t *testing.T) {
	if _, err := cupid.New("http://x", "", 1); err == nil {
		t.Fatalf("expected error without key")
	}
}
