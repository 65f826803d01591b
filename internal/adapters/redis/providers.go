package redisad

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"trip_planner/internal/domain"
)

// Read-through decorators for the provider ports. Concurrent misses for the
// same key are collapsed into one upstream call. Cache errors never fail a
// lookup; only successful, non-empty results are stored.

type CachedRates struct {
	next  domain.ExchangeRateProvider
	cache domain.Cache
	ttl   int
	sf    singleflight.Group
}

func NewCachedRates(next domain.ExchangeRateProvider, cache domain.Cache, ttlSec int) *CachedRates {
	return &CachedRates{next: next, cache: cache, ttl: ttlSec}
}

func (c *CachedRates) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	key := fmt.Sprintf("fx:%s:%s", strings.ToUpper(from), strings.ToUpper(to))
	var cached decimal.Decimal
	if ok, err := c.cache.Get(ctx, key, &cached); err == nil && ok {
		return cached, nil
	} else if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache get failed")
	}

	v, err, _ := c.sf.Do(key, func() (any, error) {
		rate, err := c.next.Rate(ctx, from, to)
		if err != nil {
			return nil, err
		}
		if err := c.cache.Set(ctx, key, rate, c.ttl); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache set failed")
		}
		return rate, nil
	})
	if err != nil {
		return decimal.Decimal{}, err
	}
	return v.(decimal.Decimal), nil
}

type CachedAttractions struct {
	next  domain.AttractionProvider
	cache domain.Cache
	ttl   int
	sf    singleflight.Group
}

func NewCachedAttractions(next domain.AttractionProvider, cache domain.Cache, ttlSec int) *CachedAttractions {
	return &CachedAttractions{next: next, cache: cache, ttl: ttlSec}
}

func (c *CachedAttractions) Search(ctx context.Context, destination string, category domain.Category) ([]domain.POI, error) {
	key := fmt.Sprintf("places:%s:%s", domain.NormalizeDestination(destination), category)
	var cached []domain.POI
	if ok, err := c.cache.Get(ctx, key, &cached); err == nil && ok {
		return cached, nil
	} else if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache get failed")
	}

	v, err, _ := c.sf.Do(key, func() (any, error) {
		pois, err := c.next.Search(ctx, destination, category)
		if err != nil {
			return nil, err
		}
		if len(pois) > 0 {
			if err := c.cache.Set(ctx, key, pois, c.ttl); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("cache set failed")
			}
		}
		return pois, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.POI), nil
}

type CachedHotels struct {
	next  domain.HotelProvider
	cache domain.Cache
	ttl   int
	sf    singleflight.Group
}

func NewCachedHotels(next domain.HotelProvider, cache domain.Cache, ttlSec int) *CachedHotels {
	return &CachedHotels{next: next, cache: cache, ttl: ttlSec}
}

func (c *CachedHotels) Search(ctx context.Context, destination string, partySize int) ([]domain.RateCandidate, error) {
	key := domain.HotelsCacheKey(destination, partySize)
	var cached []domain.RateCandidate
	if ok, err := c.cache.Get(ctx, key, &cached); err == nil && ok {
		return cached, nil
	} else if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache get failed")
	}

	v, err, _ := c.sf.Do(key, func() (any, error) {
		cands, err := c.next.Search(ctx, destination, partySize)
		if err != nil {
			return nil, err
		}
		if len(cands) > 0 {
			if err := c.cache.Set(ctx, key, cands, c.ttl); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("cache set failed")
			}
		}
		return cands, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.RateCandidate), nil
}

// SearchIn serves from the same cached entry as Search and drops the other
// currencies in memory, so ingestion invalidates a single key per party size.
func (c *CachedHotels) SearchIn(ctx context.Context, destination string, partySize int, currency string) ([]domain.RateCandidate, error) {
	cands, err := c.Search(ctx, destination, partySize)
	if err != nil || currency == "" {
		return cands, err
	}
	out := make([]domain.RateCandidate, 0, len(cands))
	for _, cand := range cands {
		if cand.NightlyRate.Currency == currency {
			out = append(out, cand)
		}
	}
	return out, nil
}
