package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	RoutesGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routes_generated_total",
			Help: "Total number of generated routes by cache outcome",
		},
		[]string{"cache"}, // hit, miss, disabled
	)

	RouteStops = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "route_stops",
			Help:    "Number of stops per generated route",
			Buckets: prometheus.LinearBuckets(2, 4, 10),
		},
	)

	RouteWarningsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "route_warnings_total",
			Help: "Total number of route warnings by kind",
		},
		[]string{"kind"}, // time_window, cold_chain
	)

	MatchesClaimedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matches_claimed_total",
			Help: "Total number of matches claimed",
		},
	)

	OffersExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "offers_expired_total",
			Help: "Total number of offers moved to EXPIRED by the expiry sweep",
		},
	)
)
