// Package metrics provides the centralized Prometheus metrics registry for the picks engine.
package metrics

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fixit"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	RefreshCyclesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refresh_cycles_total",
		Help:      "Total number of refresh cycles by result",
	}, []string{"result"})
	APIRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_requests_total",
		Help:      "Total number of remote API requests by endpoint and status code",
	}, []string{"endpoint", "status"})
	PredictionCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "prediction_cache_hits_total",
		Help:      "Total number of predictions served from cache",
	})
	PredictionCacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "prediction_cache_misses_total",
		Help:      "Total number of predictions fetched remotely",
	})
	FixturesScoredTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fixtures_scored_total",
		Help:      "Total number of finished fixtures scored by outcome",
	}, []string{"outcome"})
	CircuitBreakerTripsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_trips_total",
		Help:      "Total number of remote API circuit breaker trips",
	})
)

// Gauge metrics
var (
	PicksCurrent = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "picks_current",
		Help:      "Number of picks in the current shortlist",
	})
	FixturesCurrent = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "fixtures_current",
		Help:      "Number of fixtures in the current snapshot",
	})
	StatsWins = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "stats_wins",
		Help:      "Cumulative wins in the stats document",
	})
	StatsLosses = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "stats_losses",
		Help:      "Cumulative losses in the stats document",
	})
	WebSocketClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ws_clients",
		Help:      "Number of connected status stream clients",
	})
	LastSuccessTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last successful refresh",
	})
)

// Histogram metrics
var (
	RefreshPhaseDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "refresh_phase_duration_seconds",
		Help:      "Duration of refresh phases in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 600},
	}, []string{"phase"})
	RefreshCycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "refresh_cycle_duration_seconds",
		Help:      "Duration of whole refresh cycles in seconds",
		Buckets:   []float64{1, 5, 10, 30, 60, 300, 600, 1800},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(RefreshCyclesTotal)
		registry.MustRegister(APIRequestsTotal)
		registry.MustRegister(PredictionCacheHitsTotal)
		registry.MustRegister(PredictionCacheMissesTotal)
		registry.MustRegister(FixturesScoredTotal)
		registry.MustRegister(CircuitBreakerTripsTotal)

		registry.MustRegister(PicksCurrent)
		registry.MustRegister(FixturesCurrent)
		registry.MustRegister(StatsWins)
		registry.MustRegister(StatsLosses)
		registry.MustRegister(WebSocketClients)
		registry.MustRegister(LastSuccessTimestamp)

		registry.MustRegister(RefreshPhaseDuration)
		registry.MustRegister(RefreshCycleDuration)

		registry.MustRegister(prometheus.NewGoCollector())
		registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordRefreshCycle records a finished refresh cycle.
func RecordRefreshCycle(result string, durationSeconds float64) {
	RefreshCyclesTotal.WithLabelValues(result).Inc()
	RefreshCycleDuration.Observe(durationSeconds)
}

// RecordPhaseDuration records the duration of one refresh phase.
func RecordPhaseDuration(phase string, durationSeconds float64) {
	RefreshPhaseDuration.WithLabelValues(phase).Observe(durationSeconds)
}

// RecordAPIRequest records a remote API request. statusCode 0 means a transport error.
func RecordAPIRequest(endpoint string, statusCode int) {
	status := "error"
	if statusCode > 0 {
		status = strconv.Itoa(statusCode)
	}
	APIRequestsTotal.WithLabelValues(endpoint, status).Inc()
}

// RecordPredictionCache records a prediction cache lookup.
func RecordPredictionCache(hit bool) {
	if hit {
		PredictionCacheHitsTotal.Inc()
		return
	}
	PredictionCacheMissesTotal.Inc()
}

// RecordFixtureScored records one scored fixture.
func RecordFixtureScored(won bool) {
	outcome := "loss"
	if won {
		outcome = "win"
	}
	FixturesScoredTotal.WithLabelValues(outcome).Inc()
}

// RecordCircuitBreakerTrip records a circuit breaker trip event.
func RecordCircuitBreakerTrip() {
	CircuitBreakerTripsTotal.Inc()
}

// UpdateSnapshotSizes updates the fixture and pick gauges.
func UpdateSnapshotSizes(fixtures, picks int) {
	FixturesCurrent.Set(float64(fixtures))
	PicksCurrent.Set(float64(picks))
}

// UpdateStats updates the win/loss gauges.
func UpdateStats(wins, losses int) {
	StatsWins.Set(float64(wins))
	StatsLosses.Set(float64(losses))
}

// UpdateLastSuccess records the time of the last successful refresh.
func UpdateLastSuccess(unixSeconds float64) {
	LastSuccessTimestamp.Set(unixSeconds)
}

// UpdateWebSocketClients sets the connected status stream client count.
func UpdateWebSocketClients(count int) {
	WebSocketClients.Set(float64(count))
}
