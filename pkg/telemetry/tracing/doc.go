// Package tracing provides OpenTelemetry tracing for the completion client.
//
// # Overview
//
// The package wraps span creation, sampling and OTLP gRPC export behind a
// single Tracer type. The router opens one span per completion call and
// annotates it with the routed provider, model, retry count, token usage
// and error classification, so a trace shows exactly which backend served
// a request and how hard the client had to work for it.
//
// # Sampling Strategies
//
// Three strategies are supported:
//   - always: sample all traces (development)
//   - never: sample no traces
//   - ratio: sample a fraction of traces by trace ID hash (production)
//
// All samplers respect a parent span's decision, so embedding this client
// in an already-traced service keeps traces whole.
//
// # Usage
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "complete")
//	defer span.End()
//
//	tracing.SetRequestAttributes(span, "openai", "gpt-4o", requestID, false)
//
// When tracing is disabled in configuration, New returns a noop tracer,
// so instrumentation stays unconditional at call sites.
package tracing
