// Package metrics exposes the Prometheus collectors recorded while evaluating
// borrower batches.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BorrowersEvaluated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loanrisk_borrowers_evaluated_total",
			Help: "Total number of borrowers evaluated, by risk tier",
		},
		[]string{"risk"},
	)

	RiskChecksTriggered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loanrisk_risk_checks_triggered_total",
			Help: "Total number of triggered risk checks, by check",
		},
		[]string{"check"},
	)

	BatchesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loanrisk_batches_rejected_total",
			Help: "Total number of batches rejected before evaluation, by reason",
		},
		[]string{"reason"},
	)

	BatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "loanrisk_batch_duration_seconds",
			Help:    "Duration of batch evaluation requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)
)

// Rejection reasons recorded on BatchesRejected.
const (
	ReasonMissingColumns = "missing_columns"
	ReasonEmptyBatch     = "empty_batch"
	ReasonInvalidInput   = "invalid_input"
	ReasonExtraction     = "extraction_failed"
)
