package metrics

import (
	"scribe-hq/vellum/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// ProviderMetrics tracks backend health and failure behavior.
//
// Metrics:
//   - vellum_client_provider_health: reachability (1=healthy, 0=unhealthy)
//   - vellum_client_provider_errors_total: errors by classification
//   - vellum_client_provider_retries_total: retried attempts per backend
type ProviderMetrics struct {
	// Reachability gauge, driven by health checks (1=healthy, 0=unhealthy)
	health *prometheus.GaugeVec

	// Errors by classification kind
	errors *prometheus.CounterVec

	// Retried attempts, counted once per re-send
	retries *prometheus.CounterVec
}

// NewProviderMetrics creates and registers provider metrics with the registry.
func NewProviderMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ProviderMetrics {
	pm := &ProviderMetrics{
		health: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_health",
				Help:      "Provider reachability (1=healthy, 0=unhealthy)",
			},
			[]string{"provider"},
		),

		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_errors_total",
				Help:      "Total provider errors by classification",
			},
			[]string{"provider", "kind"},
		),

		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_retries_total",
				Help:      "Total retried request attempts per provider",
			},
			[]string{"provider"},
		),
	}

	registry.MustRegister(
		pm.health,
		pm.errors,
		pm.retries,
	)

	return pm
}

// UpdateHealth sets the reachability gauge for a provider.
func (pm *ProviderMetrics) UpdateHealth(provider string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	pm.health.WithLabelValues(provider).Set(value)
}

// RecordError counts an error under its classification kind.
//
// The kind label carries the taxonomy used by the retry policy: "auth",
// "rate_limit", "server", "timeout", "network", "content_policy" or
// "unknown".
func (pm *ProviderMetrics) RecordError(provider, kind string) {
	pm.errors.WithLabelValues(provider, kind).Inc()
}

// RecordRetry counts one re-sent attempt against a provider.
func (pm *ProviderMetrics) RecordRetry(provider string) {
	pm.retries.WithLabelValues(provider).Inc()
}
