package observability

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "trip", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "trip", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	ExternalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "trip", Name: "external_requests_total", Help: "Outbound requests."},
		[]string{"service", "endpoint", "status"},
	)
	ExternalLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "trip", Name: "external_request_duration_seconds",
			Help:    "Outbound request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "trip", Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del|error
	)
	StageRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "trip", Name: "stage_runs_total", Help: "Planning stage runs."},
		[]string{"stage", "result"}, // result: ok|degraded|failed
	)
	StageLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "trip", Name: "stage_duration_seconds",
			Help:    "Planning stage duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)
	Plans = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "trip", Name: "plans_total", Help: "Completed PlanTrip calls."},
		[]string{"result"},
	)
	PlanLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "trip", Name: "plan_duration_seconds",
			Help:    "End-to-end planning duration seconds.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)
	IngestedRates = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "trip", Name: "ingested_rates_total", Help: "Hotel rate rows written by the ingestor."},
		[]string{"destination"},
	)
)

// Serve exposes reg on METRICS_ADDR in the background. Unset disables it.
func Serve(reg *prometheus.Registry) {
	addr := os.Getenv("METRICS_ADDR")
	if addr == "" {
		return // disabled
	}
	srv := MetricsServer(addr, reg)
	go func() {
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func MetricsServer(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(reg))
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		HTTPRequests, HTTPLatency,
		ExternalRequests, ExternalLatency,
		CacheEvents,
		StageRuns, StageLatency, Plans, PlanLatency,
		IngestedRates,
	)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveExternal(service, endpoint string, status int, dur time.Duration) {
	ExternalRequests.WithLabelValues(service, endpoint, strconv.Itoa(status)).Inc()
	ExternalLatency.WithLabelValues(service, endpoint).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) {
	CacheEvents.WithLabelValues(cache, event).Inc()
}

func ObserveIngest(destination string, rows int) {
	IngestedRates.WithLabelValues(destination).Add(float64(rows))
}

// PlannerMetrics feeds stage and plan outcomes into the registry above.
type PlannerMetrics struct{}

func (PlannerMetrics) ObserveStage(stage, result string, d time.Duration) {
	StageRuns.WithLabelValues(stage, result).Inc()
	StageLatency.WithLabelValues(stage).Observe(d.Seconds())
}

func (PlannerMetrics) ObservePlan(result string, d time.Duration) {
	Plans.WithLabelValues(result).Inc()
	PlanLatency.Observe(d.Seconds())
}
