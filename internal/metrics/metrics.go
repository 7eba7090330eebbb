// Package metrics exposes the gateway's Prometheus instrumentation, mounted
// at /metrics by main.go via promhttp.Handler().
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal is the counter for inbound /v1/messages requests by
	// outcome status. It is registered and exported, but no handler
	// increments it, so it reports no samples.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_requests_total",
		Help: "Total number of /v1/messages requests by HTTP status code.",
	}, []string{"status"})

	// StreamEventsTotal counts emitted Claude SSE events by type.
	StreamEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_stream_events_total",
		Help: "Total number of Claude SSE events written to clients, by event type.",
	}, []string{"event"})

	// UpstreamLatency records round-trip time to the OpenAI-compatible
	// upstream, from request dispatch to first response byte.
	UpstreamLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gateway_upstream_latency_seconds",
		Help:    "Latency from dispatching an upstream request to receiving its first byte.",
		Buckets: prometheus.DefBuckets,
	})

	// UpstreamRetries counts pre-first-byte connection retries.
	UpstreamRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_upstream_retries_total",
		Help: "Total number of idempotent pre-first-byte retries to the upstream.",
	})
)

// ObserveUpstreamLatency records the duration since start against the
// UpstreamLatency histogram.
func ObserveUpstreamLatency(start time.Time) {
	UpstreamLatency.Observe(time.Since(start).Seconds())
}
