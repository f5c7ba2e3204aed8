// Package metrics exposes Prometheus counters for the import pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Item outcomes.
const (
	OutcomeNew     = "new"
	OutcomeUpdated = "updated"
	OutcomeFailed  = "failed"
	OutcomeRetry   = "retry"
)

var (
	// ImportsStarted counts import runs by trigger.
	ImportsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "job_import",
		Name:      "runs_started_total",
		Help:      "Import runs started, by trigger.",
	}, []string{"trigger"})

	// FetchFailures counts feeds that could not be fetched or parsed.
	FetchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "job_import",
		Name:      "fetch_failures_total",
		Help:      "Feed fetches that failed.",
	})

	// ItemsEnqueued counts process-job tasks handed to the queue.
	ItemsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "job_import",
		Name:      "items_enqueued_total",
		Help:      "Items enqueued for processing.",
	})

	// ItemsProcessed counts item attempts by outcome.
	ItemsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "job_import",
		Name:      "items_processed_total",
		Help:      "Item processing attempts, by outcome.",
	}, []string{"outcome"})

	// ItemsRequeued counts failed items sent back to the queue.
	ItemsRequeued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "job_import",
		Name:      "items_requeued_total",
		Help:      "Failed items requeued for another attempt.",
	})
)
