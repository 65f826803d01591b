package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string

	WorkingCurrency string
	MaxItemsPerDay  int
	MaxTripDays     int

	GeocodingBase string
	WeatherBase   string
	FXBase        string
	FXKey         string
	PlacesBase    string
	PlacesKey     string

	ProviderRPS     int
	ProviderTimeout time.Duration
	ProviderRetries int
	FXCacheTTL      time.Duration
	PlacesCacheTTL  time.Duration
	HotelCacheTTL   time.Duration
	RateMaxAge      time.Duration

	CupidBase          string
	CupidKey           string
	Workers            int
	IngestDestinations []string
	IngestPartySizes   []int
}

// Load reads the environment, after merging an optional .env file (existing
// variables win).
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg(".env could not be read")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
		}
		return def
	}
	secs := func(k string, def int) time.Duration { return time.Duration(atoi(k, def)) * time.Second }

	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		LogLevel:    env("LOG_LEVEL", "info"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/trips?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),

		WorkingCurrency: strings.ToUpper(env("WORKING_CURRENCY", "EUR")),
		MaxItemsPerDay:  atoi("MAX_ITEMS_PER_DAY", 4),
		MaxTripDays:     atoi("MAX_TRIP_DAYS", 366),

		GeocodingBase: env("GEOCODING_BASE_URL", "https://geocoding-api.open-meteo.com"),
		WeatherBase:   env("WEATHER_BASE_URL", "https://api.open-meteo.com"),
		FXBase:        env("FX_BASE_URL", "https://v6.exchangerate-api.com"),
		FXKey:         env("FX_API_KEY", ""),
		PlacesBase:    env("PLACES_BASE_URL", "https://api.geoapify.com"),
		PlacesKey:     env("PLACES_API_KEY", ""),

		ProviderRPS:     atoi("PROVIDER_RPS", 5),
		ProviderTimeout: secs("PROVIDER_TIMEOUT_SECONDS", 10),
		ProviderRetries: atoi("PROVIDER_RETRIES", 2),
		FXCacheTTL:      secs("FX_CACHE_TTL_SECONDS", 3600),
		PlacesCacheTTL:  secs("PLACES_CACHE_TTL_SECONDS", 86400),
		HotelCacheTTL:   secs("HOTEL_CACHE_TTL_SECONDS", 900),
		RateMaxAge:      time.Duration(atoi("RATE_MAX_AGE_HOURS", 168)) * time.Hour,

		CupidBase:          env("CUPID_BASE_URL", "https://content-api.cupid.travel/v3.0"),
		CupidKey:           env("CUPID_API_KEY", ""),
		Workers:            atoi("INGEST_WORKERS", 8),
		IngestDestinations: list(env("INGEST_DESTINATIONS", "Paris,Rome,Barcelona,Lisbon,Amsterdam")),
		IngestPartySizes:   ints(env("INGEST_PARTY_SIZES", "1,2,4")),
	}
	if c.FXKey == "" {
		log.Warn().Msg("FX_API_KEY is empty")
	}
	if c.PlacesKey == "" {
		log.Warn().Msg("PLACES_API_KEY is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func list(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func ints(s string) []int {
	var out []int
	for _, p := range list(s) {
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			out = append(out, n)
		}
	}
	return out
}
