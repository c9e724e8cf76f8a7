package metrics

import (
	"fmt"
	"sync"
	"time"

	"scribe-hq/vellum/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns all Prometheus metrics for the client and provides a
// unified recording surface for the router and health checks.
//
// Every recording method is a no-op when metrics are disabled, so callers
// never branch on configuration. Model labels pass through a cardinality
// limiter: once the limit is reached, new model names aggregate under
// "other" instead of growing the label space unbounded.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	requestMetrics  *RequestMetrics
	providerMetrics *ProviderMetrics
	streamMetrics   *StreamMetrics

	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a metrics collector backed by the given registry.
// A nil registry gets a fresh private one, keeping tests isolated from
// the global default.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = "vellum"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "client"
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		// Completion latencies run from sub-second to slow streamed minutes
		cfg.RequestDurationBuckets = []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0}
	}

	c := &Collector{
		config:             cfg,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(10000),
	}

	c.requestMetrics = NewRequestMetrics(cfg, registry)
	c.providerMetrics = NewProviderMetrics(cfg, registry)
	c.streamMetrics = NewStreamMetrics(cfg, registry)

	return c
}

// RecordRequest records a completed request.
//
//	collector.RecordRequest("openai", "gpt-4o", "success", 1200*time.Millisecond, 1500)
func (c *Collector) RecordRequest(provider, model, status string, duration time.Duration, tokens int) {
	if !c.config.Enabled {
		return
	}

	model = c.boundModel(provider, model, status)
	c.requestMetrics.RecordRequest(provider, model, status, duration, tokens)
}

// RecordTokens records the prompt/completion token split when known.
func (c *Collector) RecordTokens(provider, model string, promptTokens, completionTokens int) {
	if !c.config.Enabled {
		return
	}

	model = c.boundModel(provider, model, "tokens")
	c.requestMetrics.RecordTokens(provider, model, promptTokens, completionTokens)
}

// RecordError counts an error under its classification kind.
func (c *Collector) RecordError(provider, kind string) {
	if !c.config.Enabled {
		return
	}

	c.providerMetrics.RecordError(provider, kind)
}

// RecordRetry counts one re-sent attempt against a provider.
func (c *Collector) RecordRetry(provider string) {
	if !c.config.Enabled {
		return
	}

	c.providerMetrics.RecordRetry(provider)
}

// UpdateProviderHealth sets the reachability gauge for a provider.
func (c *Collector) UpdateProviderHealth(provider string, healthy bool) {
	if !c.config.Enabled {
		return
	}

	c.providerMetrics.UpdateHealth(provider, healthy)
}

// StreamOpened marks a stream as active.
func (c *Collector) StreamOpened(provider string) {
	if !c.config.Enabled {
		return
	}

	c.streamMetrics.StreamOpened(provider)
}

// StreamClosed marks a stream as finished with the given outcome.
func (c *Collector) StreamClosed(provider, model, status string) {
	if !c.config.Enabled {
		return
	}

	model = c.boundModel(provider, model, status)
	c.streamMetrics.StreamClosed(provider, model, status)
}

// RecordStreamFrame counts one delta frame delivered to a callback.
func (c *Collector) RecordStreamFrame(provider, model string) {
	if !c.config.Enabled {
		return
	}

	model = c.boundModel(provider, model, "frame")
	c.streamMetrics.RecordFrame(provider, model)
}

// Registry returns the Prometheus registry behind this collector, for
// mounting a scrape endpoint:
//
//	http.Handle("/metrics", promhttp.HandlerFor(
//		collector.Registry(),
//		promhttp.HandlerOpts{},
//	))
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// boundModel runs the model label through the cardinality limiter. Model
// identifiers are caller-supplied strings, so an unbounded label space is
// one typo loop away.
func (c *Collector) boundModel(provider, model, status string) string {
	labelSet := fmt.Sprintf("%s:%s:%s", provider, model, status)
	if !c.cardinalityLimiter.Allow(labelSet) {
		return "other"
	}
	return model
}

// CardinalityLimiter caps the number of unique label combinations
// recorded, protecting the registry from label explosion.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a limiter allowing at most maxCardinality
// unique label sets.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether labelSet may be recorded as-is. Known label sets
// are always allowed; new ones are admitted until the limit is reached.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current number of admitted label sets.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
