package metrics

import (
	"scribe-hq/vellum/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// StreamMetrics tracks streaming completion behavior.
//
// Metrics:
//   - vellum_client_streams_total: finished streams by outcome
//   - vellum_client_streams_active: streams currently open
//   - vellum_client_stream_frames_total: delta frames delivered to callbacks
type StreamMetrics struct {
	// Finished streams by outcome: "completed", "aborted"
	streamsTotal *prometheus.CounterVec

	// Streams currently open
	streamsActive *prometheus.GaugeVec

	// Frames delivered to the caller's callback
	framesTotal *prometheus.CounterVec
}

// NewStreamMetrics creates and registers stream metrics with the registry.
func NewStreamMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *StreamMetrics {
	sm := &StreamMetrics{
		streamsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "streams_total",
				Help:      "Total finished streams by outcome",
			},
			[]string{"provider", "model", "status"},
		),

		streamsActive: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "streams_active",
				Help:      "Streams currently open",
			},
			[]string{"provider"},
		),

		framesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "stream_frames_total",
				Help:      "Total delta frames delivered to stream callbacks",
			},
			[]string{"provider", "model"},
		),
	}

	registry.MustRegister(
		sm.streamsTotal,
		sm.streamsActive,
		sm.framesTotal,
	)

	return sm
}

// StreamOpened marks a stream as active.
func (sm *StreamMetrics) StreamOpened(provider string) {
	sm.streamsActive.WithLabelValues(provider).Inc()
}

// StreamClosed marks a stream as finished.
//
// status is "completed" when the stream reached its terminal frame and
// "aborted" when it ended early, whether by cancellation or failure.
func (sm *StreamMetrics) StreamClosed(provider, model, status string) {
	sm.streamsActive.WithLabelValues(provider).Dec()
	sm.streamsTotal.WithLabelValues(provider, model, status).Inc()
}

// RecordFrame counts one delta frame delivered to a callback.
func (sm *StreamMetrics) RecordFrame(provider, model string) {
	sm.framesTotal.WithLabelValues(provider, model).Inc()
}
