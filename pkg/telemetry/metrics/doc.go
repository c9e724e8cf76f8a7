// Package metrics provides Prometheus metrics for the completion client.
//
// # Overview
//
// The package tracks request volume, latency, token usage, error
// taxonomy, retry pressure and streaming behavior across all configured
// backends. Recording is cheap and safe to leave wired in hot paths:
// every method is a no-op when metrics are disabled.
//
// # Metrics Categories
//
//   - Request metrics: request count, duration, tokens by provider/model
//   - Provider metrics: reachability, errors by kind, retried attempts
//   - Stream metrics: active streams, finished streams, frames delivered
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	collector.RecordRequest(
//		"openai",          // provider
//		"gpt-4o",          // model
//		"success",         // status
//		time.Second,       // duration
//		1500,              // tokens
//	)
//
//	collector.RecordError("gemini", "rate_limit")
//	collector.RecordRetry("gemini")
//
// Embedding applications can expose the registry for scraping:
//
//	http.Handle("/metrics", collector.Handler())
//
// # Cardinality
//
// Model identifiers are caller-supplied, so model labels pass through a
// cardinality limiter. After 10,000 unique label sets, new model names
// aggregate under "other". Provider and kind labels come from fixed sets
// and are not limited.
package metrics
