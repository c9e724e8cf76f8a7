// Package telemetry groups the observability subpackages of the client.
//
// # Components
//
//   - logging: structured slog loggers with secret redaction
//   - metrics: Prometheus collectors for requests, errors, retries and streams
//   - tracing: OpenTelemetry spans exported over OTLP gRPC
//
// # Usage
//
// Each subpackage builds from its section of config.TelemetryConfig:
//
//	logger, err := logging.New(logging.Config{
//	    Level:         cfg.Telemetry.Logging.Level,
//	    Format:        cfg.Telemetry.Logging.Format,
//	    RedactSecrets: cfg.Telemetry.Logging.RedactSecrets,
//	})
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
//	defer tracer.Shutdown(context.Background())
//
// Metrics and tracing default to disabled; when off, their recording
// surfaces are no-ops so call sites never branch on configuration.
package telemetry
