package bootstrap

import (
	"context"

	redisad "trip_planner/internal/adapters/redis"
	"trip_planner/internal/app"
	"trip_planner/internal/domain"
	"trip_planner/internal/shared"
)

// ConnectCache dials Redis. The client comes back either way so the caller
// can Close it, but the cache is nil when Redis does not answer the ping.
func ConnectCache(ctx context.Context, cfg shared.Config) (domain.Cache, *redisad.Cache, error) {
	rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := rc.Ping(ctx); err != nil {
		return nil, rc, err
	}
	return rc, rc, nil
}

// Cached wraps the cacheable providers. Weather is never cached.
func Cached(p app.Providers, cache domain.Cache, cfg shared.Config) app.Providers {
	p.Attractions = redisad.NewCachedAttractions(p.Attractions, cache, int(cfg.PlacesCacheTTL.Seconds()))
	p.Rates = redisad.NewCachedRates(p.Rates, cache, int(cfg.FXCacheTTL.Seconds()))
	p.Hotels = redisad.NewCachedHotels(p.Hotels, cache, int(cfg.HotelCacheTTL.Seconds()))
	return p
}
