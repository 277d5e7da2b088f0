// Package metrics exposes Prometheus collectors for the query
// pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels completed queries.
	OutcomeSuccess = "success"
	// OutcomeBlocked labels out-of-scope queries.
	OutcomeBlocked = "blocked"
	// OutcomeError labels routing failures.
	OutcomeError = "error"
)

var (
	queriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "civicpulse",
			Name:      "queries_total",
			Help:      "Total number of queries handled, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	queryDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "civicpulse",
			Name:      "query_seconds",
			Help:      "Query processing latency in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 12},
		},
	)

	enhancementFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "civicpulse",
			Name:      "enhancement_failures_total",
			Help:      "LLM enhancement failures, partitioned by category.",
		},
		[]string{"category"},
	)
)

// Register attaches the civicpulse collectors to the supplied
// Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		queriesTotal,
		queryDurationSeconds,
		enhancementFailuresTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveQuery records a query duration and outcome label.
func ObserveQuery(duration time.Duration, outcome string) {
	queriesTotal.WithLabelValues(outcome).Inc()
	queryDurationSeconds.Observe(duration.Seconds())
}

// ObserveEnhancementFailure counts a categorized enhancement failure.
func ObserveEnhancementFailure(category string) {
	enhancementFailuresTotal.WithLabelValues(category).Inc()
}
