package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Business metrics scraped from /metrics
var (
	SearchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medfinder_search_requests_total",
			Help: "Medication searches by outcome",
		},
		[]string{"outcome"},
	)

	SearchResultsReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "medfinder_search_results_returned",
			Help:    "Number of ranked offers returned per successful search",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 200},
		},
	)

	PharmacyResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medfinder_pharmacy_resolutions_total",
			Help: "Pharmacy reconciliations by the step that produced the outcome",
		},
		[]string{"outcome"},
	)

	AssistantRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medfinder_assistant_requests_total",
			Help: "Assistant requests by outcome",
		},
		[]string{"outcome"},
	)

	PanicsRecoveredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "medfinder_panics_recovered_total",
			Help: "Total number of recovered handler panics",
		},
	)

	StoreBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "medfinder_store_breaker_state",
			Help: "Circuit breaker state per store (0 closed, 1 half-open, 2 open)",
		},
		[]string{"breaker"},
	)
)

// Outcome labels shared by the counters above
const (
	OutcomeSuccess     = "success"
	OutcomeInvalid     = "invalid_argument"
	OutcomeNotFound    = "not_found"
	OutcomeUnavailable = "unavailable"
	OutcomeRateLimited = "rate_limited"
)
