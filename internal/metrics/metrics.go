package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Issue outcomes.
const (
	OutcomeCreated          = "created"
	OutcomeExisting         = "existing"
	OutcomeInvalidRequest   = "invalid_request"
	OutcomePaymentNotFound  = "payment_not_found"
	OutcomePersistenceError = "persistence_error"
)

var (
	ReceiptsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "receipts_issue_total",
			Help: "Receipt issue requests by outcome",
		},
		[]string{"outcome"},
	)

	IssueDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "receipts_issue_duration_seconds",
			Help:    "Duration of receipt issue requests",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2, 5},
		},
	)

	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "receipts_cache_requests_total",
			Help: "Receipt cache lookups by result",
		},
		[]string{"result"},
	)
)
