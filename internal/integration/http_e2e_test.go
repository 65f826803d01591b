//go:build integration || !unit

package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"trip_planner/internal/adapters/cupid"
	server "trip_planner/internal/adapters/http_server"
	redisad "trip_planner/internal/adapters/redis"
	"trip_planner/internal/app"
	"trip_planner/internal/domain"
	mysqlrepo "trip_planner/internal/storage/mysql"
)

// ---------- helpers ----------
func migrationsDir() string {
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	return filepath.Join("..", "..", "migrations")
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := migrationsDir()

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)
	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

// ---------- static providers for the non-catalog ports ----------
type staticAttractions struct{}

func (staticAttractions) Search(_ context.Context, _ string, cat domain.Category) ([]domain.POI, error) {
	cost := map[domain.Category]float64{
		domain.CategoryAttraction:     15,
		domain.CategoryRestaurant:     25,
		domain.CategoryActivity:       30,
		domain.CategoryTransportation: 10,
	}[cat]
	return []domain.POI{{Name: "E2E " + string(cat), Category: cat, Cost: domain.MoneyFromFloat(cost, "EUR")}}, nil
}

type staticWeather struct{}

func (staticWeather) Current(context.Context, string) (domain.CurrentWeather, error) {
	return domain.CurrentWeather{TemperatureC: 21, Description: "clear sky"}, nil
}

func (staticWeather) Forecast(_ context.Context, _ string, date time.Time) (domain.DayForecast, error) {
	return domain.DayForecast{Date: date, Known: true, MinTempC: 15, MaxTempC: 25, Description: "clear sky"}, nil
}

type staticRates struct{}

func (staticRates) Rate(_ context.Context, from, to string) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	return decimal.RequireFromString("1.10"), nil
}

// ---------- the test ----------
func TestHTTP_EndToEnd_IngestThenPlan(t *testing.T) {
	// Start isolated MySQL container
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("dockertest: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker not reachable: %v", err)
	}
	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=trips",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "trips")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)

	mr := miniredis.RunT(t)
	cache := redisad.NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	// 1) ingest through the real Cupid client against a stub upstream
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rates" || r.Header.Get("X-API-Key") != "e2e" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": [
			{"hotel_id": 1, "name": "Le Petit", "price": {"amount": 100, "currency": "EUR"}, "max_occupancy": 2},
			{"hotel_id": 2, "name": "Le Moyen", "price": {"amount": "120.00", "currency": "EUR"}, "max_occupancy": 4},
			{"hotel_id": 3, "name": "Le Grand", "price": {"amount": 150, "currency": "EUR"}, "max_occupancy": 2}
		]}`))
	}))
	defer upstream.Close()

	client, err := cupid.New(upstream.URL, "e2e", 50)
	if err != nil {
		t.Fatalf("cupid.New: %v", err)
	}
	n, err := app.NewIngestionService(client, repo, cache).IngestRates(ctx, "Paris", 2)
	if err != nil {
		t.Fatalf("IngestRates: %v", err)
	}
	if n != 3 {
		t.Fatalf("ingested %d rows, want 3", n)
	}

	// 2) plan through the HTTP surface, reading hotels back from MySQL
	planner := app.NewPlanner(app.Providers{
		Attractions: staticAttractions{},
		Weather:     staticWeather{},
		Hotels:      redisad.NewCachedHotels(repo, cache, 60),
		Rates:       staticRates{},
	},
		app.WithCallPolicy(app.NoRetry{}),
		app.WithLogger(zerolog.Nop()),
		app.WithWorkingCurrency("EUR"),
	)
	srv := server.New(30 * time.Second)
	srv.MountHandlers(&server.Handlers{Planner: planner, Defaults: domain.DefaultOptions()})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	body := `{"destination": "Paris", "start_date": "2030-06-01", "end_date": "2030-06-04", "party_size": 2, "native_currency": "USD"}`
	res, err := http.Post(ts.URL+"/v1/plans", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status %d", res.StatusCode)
	}

	var summary domain.TripSummary
	if err := json.NewDecoder(res.Body).Decode(&summary); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if summary.Hotel.Candidates != 3 || summary.Hotel.Representative != "Le Moyen" {
		t.Fatalf("unexpected hotel estimate: %+v", summary.Hotel)
	}
	if got := summary.Hotel.Total.String(); got != "360.00 EUR" {
		t.Fatalf("hotel total %s, want 360.00 EUR", got)
	}
	// 360 + (15+25+30) + 10 = 440 EUR at 1.10
	if got := summary.Costs.Total.String(); got != "484.00 USD" {
		t.Fatalf("converted total %s, want 484.00 USD", got)
	}
	if len(summary.Itinerary.Days) != 4 {
		t.Fatalf("itinerary has %d days, want 4", len(summary.Itinerary.Days))
	}

	// the catalog read was cached under the normalized destination
	if !mr.Exists(domain.HotelsCacheKey("Paris", 2)) {
		t.Fatalf("hotel candidates were not cached")
	}
}
