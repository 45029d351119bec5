package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamRequestsTotal tracks outbound calls to the upstream product API.
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "product_proxy_upstream_requests_total",
			Help: "Total number of upstream product API requests (by operation, method, and status).",
		},
		[]string{"operation", "method", "status"},
	)

	// UpstreamRequestDuration measures the duration of outbound calls.
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "product_proxy_upstream_request_duration_seconds",
			Help:    "Duration of upstream product API requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms → ~16s
		},
		[]string{"operation", "method"},
	)

	// UpdateFallbacks counts PUT attempts that were retried as PATCH.
	UpdateFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "product_proxy_update_patch_fallbacks_total",
			Help: "Number of product updates that fell back from PUT to PATCH.",
		},
	)

	// ValidationFailures counts requests rejected before reaching upstream.
	ValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "product_proxy_validation_failures_total",
			Help: "Number of product requests rejected by input validation.",
		},
		[]string{"operation"},
	)

	// EventPublishErrors tracks NATS publish failures by subject.
	EventPublishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "product_proxy_event_publish_errors_total",
			Help: "Number of product event publish failures by subject.",
		},
		[]string{"subject"},
	)
)

// IncUpstreamRequest increments the upstream request counter.
func IncUpstreamRequest(operation, method, status string) {
	UpstreamRequestsTotal.WithLabelValues(operation, method, status).Inc()
}

// ObserveDuration records elapsed time since start into a HistogramVec or SummaryVec.
func ObserveDuration(v any, start time.Time, labels ...string) {
	duration := time.Since(start).Seconds()
	switch metric := v.(type) {
	case *prometheus.HistogramVec:
		metric.WithLabelValues(labels...).Observe(duration)
	case *prometheus.SummaryVec:
		metric.WithLabelValues(labels...).Observe(duration)
	}
}

// IncUpdateFallback increments the PUT→PATCH fallback counter.
func IncUpdateFallback() {
	UpdateFallbacks.Inc()
}

// IncValidationFailure increments the validation failure counter for an operation.
func IncValidationFailure(operation string) {
	ValidationFailures.WithLabelValues(operation).Inc()
}

// IncEventPublishError increments the publish error counter for the given subject.
func IncEventPublishError(subject string) {
	EventPublishErrors.WithLabelValues(subject).Inc()
}
