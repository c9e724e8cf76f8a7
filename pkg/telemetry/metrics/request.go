package metrics

import (
	"time"

	"scribe-hq/vellum/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics tracks completion request volume, latency and token usage.
//
// Metrics:
//   - vellum_client_requests_total: request count by provider, model, status
//   - vellum_client_request_duration_seconds: request duration histogram
//   - vellum_client_tokens_total: tokens reported by provider usage fields
type RequestMetrics struct {
	// Completed requests by outcome
	requestsTotal *prometheus.CounterVec

	// Wall-clock duration, including retries and backoff waits
	requestDuration *prometheus.HistogramVec

	// Token counts as reported by the provider
	tokensTotal *prometheus.CounterVec
}

// NewRequestMetrics creates and registers request metrics with the registry.
func NewRequestMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RequestMetrics {
	rm := &RequestMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_total",
				Help:      "Total completion requests by outcome",
			},
			[]string{"provider", "model", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_duration_seconds",
				Help:      "Completion request duration in seconds, retries included",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"provider", "model"},
		),

		tokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "tokens_total",
				Help:      "Total tokens reported by provider usage fields",
			},
			[]string{"provider", "model", "type"},
		),
	}

	registry.MustRegister(
		rm.requestsTotal,
		rm.requestDuration,
		rm.tokensTotal,
	)

	return rm
}

// RecordRequest records a completed request.
//
// status is "success" or "error". Token counts of zero are skipped, since
// streams aborted mid-flight never see a usage frame.
func (rm *RequestMetrics) RecordRequest(provider, model, status string, duration time.Duration, tokens int) {
	rm.requestsTotal.WithLabelValues(provider, model, status).Inc()
	rm.requestDuration.WithLabelValues(provider, model).Observe(duration.Seconds())

	if tokens > 0 {
		rm.tokensTotal.WithLabelValues(provider, model, "total").Add(float64(tokens))
	}
}

// RecordTokens records prompt and completion token counts separately, for
// backends that report the split.
func (rm *RequestMetrics) RecordTokens(provider, model string, promptTokens, completionTokens int) {
	if promptTokens > 0 {
		rm.tokensTotal.WithLabelValues(provider, model, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		rm.tokensTotal.WithLabelValues(provider, model, "completion").Add(float64(completionTokens))
	}
}
