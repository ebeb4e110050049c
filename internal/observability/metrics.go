package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the MCP server.
// Metrics are organized by subsystem: tool invocations, upstream API requests,
// and search-result enrichment. All counters and histograms are registered via
// promauto for automatic registration with the default Prometheus registry.
type Metrics struct {
	// ToolCalls counts tool invocations, labeled by tool and outcome (ok, error).
	ToolCalls *prometheus.CounterVec

	// ToolDuration observes tool invocation duration in seconds, labeled by tool.
	ToolDuration *prometheus.HistogramVec

	// APIRequestsTotal counts HTTP requests to the Semantic Scholar API, labeled by endpoint.
	APIRequestsTotal *prometheus.CounterVec

	// APIRequestsFailed counts failed API requests, labeled by endpoint and error kind
	// (status, request, decode).
	APIRequestsFailed *prometheus.CounterVec

	// APIRequestDuration observes API request duration in seconds, labeled by endpoint.
	APIRequestDuration *prometheus.HistogramVec

	// APIRateLimited counts rate-limited (429) responses from the API.
	APIRateLimited prometheus.Counter

	// PapersReturned observes the number of papers returned per search.
	PapersReturned prometheus.Histogram

	// EnrichmentsTotal counts per-paper detail enrichment attempts.
	EnrichmentsTotal prometheus.Counter

	// EnrichmentsFailed counts enrichment fetches that failed and were skipped.
	EnrichmentsFailed prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ToolCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Total number of MCP tool invocations by tool and outcome",
		}, []string{"tool", "outcome"}),
		ToolDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_duration_seconds",
			Help:      "Duration of MCP tool invocations in seconds by tool",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"tool"}),

		APIRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total number of Semantic Scholar API requests by endpoint",
		}, []string{"endpoint"}),
		APIRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_failed_total",
			Help:      "Total number of failed Semantic Scholar API requests by endpoint and error kind",
		}, []string{"endpoint", "kind"}),
		APIRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Duration of Semantic Scholar API requests in seconds by endpoint",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"endpoint"}),
		APIRateLimited: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_rate_limited_total",
			Help:      "Total number of rate-limited responses from the Semantic Scholar API",
		}),

		PapersReturned: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "papers_returned",
			Help:      "Number of papers returned per search",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),

		EnrichmentsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichments_total",
			Help:      "Total number of per-paper detail enrichment attempts",
		}),
		EnrichmentsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichments_failed_total",
			Help:      "Total number of enrichment fetches that failed and were skipped",
		}),
	}
}
