package logging

import (
	"context"
	"log/slog"
)

// Handler decorates another slog.Handler with request-scoped context
// fields and optional secret redaction.
//
// Fields stored by WithRequestID, WithProvider and WithModel are appended
// to every record logged through a context carrying them, so deep call
// sites inherit identifiers without threading them into each statement.
type Handler struct {
	inner    slog.Handler
	redactor *Redactor
}

// NewHandler wraps inner. A nil redactor disables scrubbing.
func NewHandler(inner slog.Handler, redactor *Redactor) *Handler {
	return &Handler{inner: inner, redactor: redactor}
}

// Enabled reports whether the wrapped handler emits records at level.
func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle scrubs the record and appends context fields before delegating.
func (h *Handler) Handle(ctx context.Context, rec slog.Record) error {
	msg := rec.Message
	if h.redactor != nil {
		msg = h.redactor.RedactString(msg)
	}

	out := slog.NewRecord(rec.Time, rec.Level, msg, rec.PC)
	rec.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.redactAttr(a))
		return true
	})
	out.AddAttrs(contextAttrs(ctx)...)

	return h.inner.Handle(ctx, out)
}

// WithAttrs scrubs attrs eagerly so secrets never reach the inner handler.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if h.redactor != nil {
		scrubbed := make([]slog.Attr, len(attrs))
		for i, a := range attrs {
			scrubbed[i] = h.redactAttr(a)
		}
		attrs = scrubbed
	}
	return &Handler{inner: h.inner.WithAttrs(attrs), redactor: h.redactor}
}

// WithGroup opens a group on the wrapped handler.
func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{inner: h.inner.WithGroup(name), redactor: h.redactor}
}

func (h *Handler) redactAttr(a slog.Attr) slog.Attr {
	if h.redactor == nil {
		return a
	}
	return h.redactor.RedactAttr(a)
}
