// Package groq implements the Groq provider adapter.
//
// Groq serves its hosted models through OpenAI's chat completions wire
// format, so this package wraps the openai adapter under the groq backend
// name. All request transformation, streaming, and error classification
// is inherited.
package groq

import (
	"log/slog"
	"time"

	"scribe-hq/vellum/pkg/providers"
	"scribe-hq/vellum/pkg/providers/openai"
)

// DefaultBaseURL is Groq's OpenAI-compatible API endpoint.
const DefaultBaseURL = "https://api.groq.com/openai/v1"

// Adapter is the Groq backend adapter.
type Adapter struct {
	*openai.Adapter
}

// Options configures the adapter.
type Options struct {
	UserAgent string
	Timeout   time.Duration
	Retry     providers.RetryPolicy
	Logger    *slog.Logger
}

// New creates a Groq adapter.
func New(opts Options) *Adapter {
	inner := openai.New(openai.Options{
		Name:      "groq",
		UserAgent: opts.UserAgent,
		Timeout:   opts.Timeout,
		Retry:     opts.Retry,
		Logger:    opts.Logger,
	})

	return &Adapter{Adapter: inner}
}
