package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys. Custom keys use the "vellum.*" namespace so spans
// from this client are filterable next to semantic-convention attributes.
const (
	// Routing attributes
	AttrProvider  = "vellum.provider"
	AttrModel     = "vellum.model"
	AttrRequestID = "vellum.request_id"
	AttrStreaming = "vellum.streaming"

	// Result attributes
	AttrFinishReason = "vellum.finish_reason"
	AttrStreamFrames = "vellum.stream.frames"

	// Token attributes
	AttrTokensPrompt     = "vellum.tokens.prompt"
	AttrTokensCompletion = "vellum.tokens.completion"
	AttrTokensTotal      = "vellum.tokens.total"

	// Error attributes
	AttrErrorKind    = "vellum.error.kind"
	AttrErrorMessage = "error.message"

	// Retry attributes
	AttrRetryAttempts = "vellum.retry.attempts"
)

// SetRequestAttributes annotates a span with the routed call.
//
// Example:
//
//	SetRequestAttributes(span, "openai", "gpt-4o", "req-123", false)
func SetRequestAttributes(span trace.Span, provider, model, requestID string, streaming bool) {
	attrs := []attribute.KeyValue{
		attribute.String(AttrProvider, provider),
		attribute.String(AttrModel, model),
		attribute.Bool(AttrStreaming, streaming),
	}
	if requestID != "" {
		attrs = append(attrs, attribute.String(AttrRequestID, requestID))
	}
	span.SetAttributes(attrs...)
}

// SetResultAttributes annotates a span with the completion outcome.
func SetResultAttributes(span trace.Span, finishReason string, totalTokens int) {
	if finishReason != "" {
		span.SetAttributes(attribute.String(AttrFinishReason, finishReason))
	}
	if totalTokens > 0 {
		span.SetAttributes(attribute.Int(AttrTokensTotal, totalTokens))
	}
}

// SetTokenAttributes records the prompt/completion split when a backend
// reports it.
func SetTokenAttributes(span trace.Span, promptTokens, completionTokens int) {
	span.SetAttributes(
		attribute.Int(AttrTokensPrompt, promptTokens),
		attribute.Int(AttrTokensCompletion, completionTokens),
		attribute.Int(AttrTokensTotal, promptTokens+completionTokens),
	)
}

// SetRetryAttributes records how many attempts the call consumed.
func SetRetryAttributes(span trace.Span, attempts int) {
	span.SetAttributes(attribute.Int(AttrRetryAttempts, attempts))
}

// SetStreamFrames records how many delta frames a stream delivered.
func SetStreamFrames(span trace.Span, frames int) {
	span.SetAttributes(attribute.Int(AttrStreamFrames, frames))
}

// SetErrorAttributes records a classified failure on the span and sets
// its status to error.
//
// Example:
//
//	SetErrorAttributes(span, err, "rate_limit")
func SetErrorAttributes(span trace.Span, err error, kind string) {
	if err == nil {
		return
	}

	span.SetAttributes(
		attribute.Bool("error", true),
		attribute.String(AttrErrorKind, kind),
		attribute.String(AttrErrorMessage, err.Error()),
	)

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
