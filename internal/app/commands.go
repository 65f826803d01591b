package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"trip_planner/internal/domain"
)

// IngestionService refreshes the hotel rate catalog the planner reads from.
type IngestionService struct {
	rates   domain.HotelRatesClient
	catalog domain.RateCatalog
	cache   domain.Cache
	now     func() time.Time
}

func NewIngestionService(c domain.HotelRatesClient, r domain.RateCatalog, cache domain.Cache) *IngestionService {
	return &IngestionService{rates: c, catalog: r, cache: cache, now: time.Now}
}

// IngestRates fetches and stores the rates for one destination and party size.
// Known misses (404/401/403, nothing usable) are logged to the catalog and are
// not errors; anything else bubbles up. Returns the number of stored rows.
func (s *IngestionService) IngestRates(ctx context.Context, destination string, partySize int) (int, error) {
	payloads, err := s.rates.GetRates(ctx, destination, partySize)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			_ = s.catalog.LogMiss(ctx, destination, 404, "not found")
			s.invalidate(ctx, destination, partySize)
			return 0, nil
		case errors.Is(err, domain.ErrUnauthorized):
			_ = s.catalog.LogMiss(ctx, destination, 403, "unauthorized")
			s.invalidate(ctx, destination, partySize)
			return 0, nil
		}
		return 0, err
	}

	fetchedAt := s.now()
	listings := make([]domain.RateListing, 0, len(payloads))
	for _, p := range payloads {
		if l, ok := mapRate(destination, partySize, p, fetchedAt); ok {
			listings = append(listings, l)
		}
	}
	if dropped := len(payloads) - len(listings); dropped > 0 {
		log.Debug().Str("destination", destination).Int("dropped", dropped).Msg("rates without id, price or currency")
	}

	if len(listings) == 0 {
		_ = s.catalog.LogMiss(ctx, destination, 204, "no usable rates")
		s.invalidate(ctx, destination, partySize)
		return 0, nil
	}

	if err := s.catalog.UpsertRates(ctx, listings); err != nil {
		return 0, fmt.Errorf("upsert rates for %s: %w", destination, err)
	}
	// new rows change the cached search for every party size they fit
	maxOcc := partySize
	for _, l := range listings {
		if l.MaxOccupancy > maxOcc {
			maxOcc = l.MaxOccupancy
		}
	}
	s.invalidate(ctx, destination, maxOcc)
	return len(listings), nil
}

func (s *IngestionService) invalidate(ctx context.Context, destination string, upTo int) {
	if s.cache == nil {
		return
	}
	for n := 1; n <= upTo; n++ {
		_ = s.cache.Del(ctx, domain.HotelsCacheKey(destination, n))
	}
}
