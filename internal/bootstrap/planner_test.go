package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisad "trip_planner/internal/adapters/redis"
	"trip_planner/internal/app"
	"trip_planner/internal/domain"
	"trip_planner/internal/shared"
	mysqlrepo "trip_planner/internal/storage/mysql"
)

func testConfig() shared.Config {
	return shared.Config{
		WorkingCurrency: "EUR",
		MaxItemsPerDay:  6,
		FXKey:           "fx",
		PlacesKey:       "places",
		ProviderRPS:     5,
		ProviderRetries: 1,
	}
}

func TestProviders_RequiresKeysAndDB(t *testing.T) {
	cfg := testConfig()
	cfg.FXKey = ""
	_, err := Providers(cfg, nil, nil)
	assert.ErrorContains(t, err, "exchangerate")

	_, err = Providers(testConfig(), nil, nil)
	assert.ErrorContains(t, err, "database")
}

func TestProviders_CacheDecorators(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	p, err := Providers(testConfig(), db, nil)
	require.NoError(t, err)
	assert.IsType(t, &mysqlrepo.Repo{}, p.Hotels)

	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)
	p, err = Providers(testConfig(), db, cache)
	require.NoError(t, err)
	assert.IsType(t, &redisad.CachedHotels{}, p.Hotels)
	assert.IsType(t, &redisad.CachedRates{}, p.Rates)
	assert.IsType(t, &redisad.CachedAttractions{}, p.Attractions)

	assert.NotNil(t, Planner(testConfig(), p, zerolog.Nop()))
}

func TestOptions(t *testing.T) {
	o := Options(testConfig())
	assert.Equal(t, 6, o.MaxItemsPerDay)
	assert.True(t, o.ConcurrencyEnabled)
	assert.NoError(t, o.Validate())
}

func TestPlanner_TripLengthFromConfig(t *testing.T) {
	cfg := testConfig()
	cfg.MaxTripDays = 3
	pl := Planner(cfg, app.Providers{}, zerolog.Nop())

	req := domain.NewTripRequest("Paris", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC), 2, "EUR")
	_, err := pl.PlanTrip(context.Background(), req, Options(cfg))

	var pf *domain.PlanningFailure
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, domain.StageRequest, pf.Stage)
	assert.Equal(t, domain.KindInvalidRequest, pf.Kind)
}

func TestConnectCache_NilWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.RedisAddr = mr.Addr()

	cache, rc, err := ConnectCache(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, cache)
	require.NoError(t, rc.Close())

	mr.Close()
	cache, rc, err = ConnectCache(context.Background(), cfg)
	require.Error(t, err)
	assert.Nil(t, cache)
	require.NotNil(t, rc)
	defer rc.Close()

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	p, err := Providers(cfg, db, cache)
	require.NoError(t, err)
	assert.IsType(t, &mysqlrepo.Repo{}, p.Hotels)
}
