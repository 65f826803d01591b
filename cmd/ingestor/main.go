package main

import (
	"context"
	"database/sql"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"trip_planner/internal/adapters/cupid"
	"trip_planner/internal/adapters/observability"
	redisad "trip_planner/internal/adapters/redis"
	"trip_planner/internal/app"
	"trip_planner/internal/shared"
	mysqlrepo "trip_planner/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	log.Info().
		Str("base", cfg.CupidBase).
		Int("workers", cfg.Workers).
		Strs("destinations", cfg.IngestDestinations).
		Ints("party_sizes", cfg.IngestPartySizes).
		Msg("ingestor starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)

	client, err := cupid.New(cfg.CupidBase, cfg.CupidKey, cfg.ProviderRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Cupid client")
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()

	ing := app.NewIngestionService(client, repo, cache)
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup

	for _, dest := range cfg.IngestDestinations {
		for _, party := range cfg.IngestPartySizes {
			// acquire before launching the goroutine; release inside it
			if err := sem.Acquire(ctx, 1); err != nil {
				log.Fatal().Err(err).Msg("semaphore acquire failed")
			}

			wg.Add(1)
			go func(dest string, party int) {
				defer wg.Done()
				defer sem.Release(1)

				n, err := ing.IngestRates(ctx, dest, party)
				observability.ObserveIngest(dest, n)
				if err != nil {
					log.Warn().Str("destination", dest).Int("party", party).Err(err).Msg("ingest failed")
					return
				}
				log.Info().Str("destination", dest).Int("party", party).Int("rows", n).Msg("ingest ok")
			}(dest, party)
		}
	}

	wg.Wait()
	log.Info().Msg("ingestion completed")
}
