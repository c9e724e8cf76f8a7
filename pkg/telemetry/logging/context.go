package logging

import (
	"context"
	"log/slog"
)

// Context keys for request-scoped log fields.
type contextKey string

const (
	// RequestIDKey is the context key for request identifiers.
	RequestIDKey contextKey = "request_id"

	// ProviderKey is the context key for the backend serving a call.
	ProviderKey contextKey = "provider"

	// ModelKey is the context key for the model identifier of a call.
	ModelKey contextKey = "model"
)

// WithRequestID stores a request identifier for downstream log records.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request identifier from the context.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(RequestIDKey).(string); ok {
		return v
	}
	return ""
}

// WithProvider stores the backend name for downstream log records.
func WithProvider(ctx context.Context, provider string) context.Context {
	return context.WithValue(ctx, ProviderKey, provider)
}

// GetProvider retrieves the backend name from the context.
func GetProvider(ctx context.Context) string {
	if v, ok := ctx.Value(ProviderKey).(string); ok {
		return v
	}
	return ""
}

// WithModel stores the model identifier for downstream log records.
func WithModel(ctx context.Context, model string) context.Context {
	return context.WithValue(ctx, ModelKey, model)
}

// GetModel retrieves the model identifier from the context.
func GetModel(ctx context.Context) string {
	if v, ok := ctx.Value(ModelKey).(string); ok {
		return v
	}
	return ""
}

// contextAttrs collects the fields stored by the With helpers.
func contextAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr

	if v := GetRequestID(ctx); v != "" {
		attrs = append(attrs, slog.String(string(RequestIDKey), v))
	}
	if v := GetProvider(ctx); v != "" {
		attrs = append(attrs, slog.String(string(ProviderKey), v))
	}
	if v := GetModel(ctx); v != "" {
		attrs = append(attrs, slog.String(string(ModelKey), v))
	}

	return attrs
}
