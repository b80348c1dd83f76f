// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MutationsTotal counts participant basket mutations by result
	// (accepted, not_modifiable, out_of_stock, empty, error).
	MutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grouporder_participant_mutations_total",
		Help: "Participant order mutations by result.",
	}, []string{"result"})

	// SubmissionsTotal counts backend submission attempts by outcome
	// (completed, rejected, unknown, out_of_stock, nothing_to_submit).
	SubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grouporder_backend_submissions_total",
		Help: "External backend submission attempts by outcome.",
	}, []string{"outcome"})

	// BackendDuration observes the latency of external submission calls.
	BackendDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "grouporder_backend_submit_duration_seconds",
		Help:    "Latency of external backend submission calls.",
		Buckets: prometheus.DefBuckets,
	})

	// HTTPDuration observes request latency by route pattern and status code.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "grouporder_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "status"})
)
