// Package metrics holds the Prometheus instruments of the service. All
// collectors are registered with the global registry and served on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Upstream calls by collaborator and outcome (ok, error, timeout).",
		}, []string{"upstream", "outcome"})

	UpstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Latency of upstream calls.",
			Buckets: prometheus.DefBuckets,
		}, []string{"upstream"})

	StatsCacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stats_cache_hits_total",
			Help: "Statistics requests served from the in-memory cache.",
		})

	DetailCacheFallbackTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "detail_cache_fallback_total",
			Help: "Tender details served from cached list rows after an upstream failure.",
		})

	PipelineRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Tender list pipeline runs by mode (local, passthrough).",
		}, []string{"mode"})

	PipelineRecords = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pipeline_input_records",
			Help:    "Records fed to the tender list pipeline.",
			Buckets: []float64{10, 20, 50, 100, 200, 400, 800},
		})

	MirrorQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "preference_mirror_queue_depth",
			Help: "Preference snapshots waiting to be mirrored upstream.",
		})

	MirrorResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preference_mirror_results_total",
			Help: "Preference mirror outcomes (ok, error, dropped).",
		}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(
		UpstreamRequestsTotal,
		UpstreamDuration,
		StatsCacheHitsTotal,
		DetailCacheFallbackTotal,
		PipelineRunsTotal,
		PipelineRecords,
		MirrorQueueDepth,
		MirrorResultsTotal,
	)
}
