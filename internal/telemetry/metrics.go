package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation shared by all jobs. Registered on the default
// registry and exposed by the trigger surface at /metrics.
var (
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newscourier_runs_total",
		Help: "Pipeline runs by job and outcome.",
	}, []string{"job", "outcome"})

	ItemsFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newscourier_items_fetched_total",
		Help: "Feed items fetched per language.",
	}, []string{"lang"})

	JunkTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newscourier_junk_total",
		Help: "Candidates rejected by the dedup filter, by reason.",
	}, []string{"reason"})

	DeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newscourier_deliveries_total",
		Help: "Channel deliveries per language and outcome.",
	}, []string{"lang", "outcome"})

	LLMCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "newscourier_llm_call_duration_seconds",
		Help:    "Latency of LLM completion calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)
