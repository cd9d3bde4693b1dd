// Package metrics exposes Prometheus collectors for discovery, provider
// calls, enrichment and HTTP traffic at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "baing_http_requests_total",
			Help: "Total HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "baing_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.005, .01, .05, .1, .5, 1, 5, 15, 60},
		},
		[]string{"method", "route"},
	)

	DiscoveryRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "baing_discovery_requests_total",
			Help: "Discovery requests by kind and outcome (success, partial, provider_error, format_error, error)",
		},
		[]string{"kind", "outcome"},
	)

	DiscoveryItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "baing_discovery_items_total",
			Help: "Recommended items returned, by kind",
		},
		[]string{"kind"},
	)

	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "baing_llm_request_duration_seconds",
			Help:    "LLM provider call latency",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		},
		[]string{"provider", "outcome"},
	)

	ProviderTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "baing_llm_tokens_total",
			Help: "Tokens consumed by direction (input, output)",
		},
		[]string{"provider", "direction"},
	)

	ProviderUp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "baing_llm_provider_up",
			Help: "1 when the last provider health check succeeded",
		},
		[]string{"provider"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "baing_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "baing_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	EnrichmentLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "baing_enrichment_lookups_total",
			Help: "Enrichment lookups by kind and outcome (hit, miss, error)",
		},
		[]string{"kind", "outcome"},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "baing_rate_limited_total",
			Help: "Requests rejected by the per-user limiter",
		},
	)

	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "baing_websocket_clients",
			Help: "Connected WebSocket clients",
		},
	)
)
