package tracing

import (
	"context"
	"testing"

	"scribe-hq/vellum/pkg/config"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// BenchmarkTracer_Start_Disabled measures the noop path. Instrumentation
// stays unconditional at call sites, so this cost is paid on every call
// when tracing is off.
func BenchmarkTracer_Start_Disabled(b *testing.B) {
	tracer, err := New(&config.TracingConfig{Enabled: false, ServiceName: "bench"})
	if err != nil {
		b.Fatalf("New() error = %v", err)
	}

	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_, span := tracer.Start(ctx, "complete")
		span.End()
	}
}

// BenchmarkTracer_Start_Recording measures span creation against an
// SDK provider without export.
func BenchmarkTracer_Start_Recording(b *testing.B) {
	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())
	tracer := tp.Tracer("bench")

	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_, span := tracer.Start(ctx, "complete")
		span.End()
	}
}

// BenchmarkSetRequestAttributes measures the attribute helper cost per call.
func BenchmarkSetRequestAttributes(b *testing.B) {
	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())
	_, span := tp.Tracer("bench").Start(context.Background(), "complete")
	defer span.End()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		SetRequestAttributes(span, "openai", "gpt-4o", "req-123", true)
	}
}

// BenchmarkCreateSampler measures sampler construction, paid once at startup.
func BenchmarkCreateSampler(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := createSampler("ratio", 0.25); err != nil {
			b.Fatal(err)
		}
	}
}
