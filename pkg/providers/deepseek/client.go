// Package deepseek implements the DeepSeek provider adapter.
//
// DeepSeek speaks OpenAI's chat completions wire format, so this package
// wraps the openai adapter under the deepseek backend name. Its one
// addition is keyless access: requests without an API key declare
// non-commercial usage and identify the calling application through
// DeepSeek's registration headers. Commercial callers must supply an
// API key and are rejected before any request goes out.
package deepseek

import (
	"context"
	"log/slog"
	"time"

	"scribe-hq/vellum/pkg/providers"
	"scribe-hq/vellum/pkg/providers/openai"
)

// DefaultBaseURL is DeepSeek's public API endpoint.
const DefaultBaseURL = "https://api.deepseek.com"

// Header names for DeepSeek's keyless access scheme.
const (
	usageHeader  = "X-DeepSeek-Usage"
	clientHeader = "X-DeepSeek-Client"
)

// Adapter is the DeepSeek backend adapter. It embeds the OpenAI-compatible
// adapter since DeepSeek implements the same API format.
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

// New creates a DeepSeek adapter.
func New(opts Options) *Adapter {
	inner := openai.New(openai.Options{
		Name:      "deepseek",
		UserAgent: opts.UserAgent,
		Timeout:   opts.Timeout,
		Retry:     opts.Retry,
		Logger:    opts.Logger,
		Headers:   keylessHeaders,
	})

	return &Adapter{Adapter: inner}
}

// Complete sends a completion request. The credential is checked against
// DeepSeek's keyless access rules before anything goes on the wire.
func (a *Adapter) Complete(ctx context.Context, cred providers.Credential, req providers.CompletionRequest) (providers.CompletionResult, error) {
	if err := validateCredential(cred); err != nil {
		return providers.CompletionResult{}, err
	}
	return a.Adapter.Complete(ctx, cred, req)
}

// StreamComplete sends a streaming completion request under the same
// credential rules as Complete.
func (a *Adapter) StreamComplete(ctx context.Context, cred providers.Credential, req providers.CompletionRequest, onFrame providers.StreamHandler) (providers.CompletionResult, error) {
	if err := validateCredential(cred); err != nil {
		return providers.CompletionResult{}, err
	}
	return a.Adapter.StreamComplete(ctx, cred, req, onFrame)
}

// AnalyzeImage sends a vision request under the same credential rules as
// Complete.
func (a *Adapter) AnalyzeImage(ctx context.Context, cred providers.Credential, req providers.VisionRequest) (providers.CompletionResult, error) {
	if err := validateCredential(cred); err != nil {
		return providers.CompletionResult{}, err
	}
	return a.Adapter.AnalyzeImage(ctx, cred, req)
}

// keylessHeaders declares non-commercial usage and identifies the calling
// application when the credential carries no API key. Keyed requests use
// the standard bearer token and need no extra headers.
func keylessHeaders(cred providers.Credential) map[string]string {
	if !cred.Keyless {
		return nil
	}

	headers := map[string]string{
		usageHeader: "non-commercial",
	}
	if cred.AppID != "" {
		headers[clientHeader] = cred.AppID
	}
	return headers
}

// validateCredential rejects credential states DeepSeek does not allow.
// Keyless access is restricted to non-commercial use.
func validateCredential(cred providers.Credential) error {
	if cred.CommercialUse && cred.APIKey == "" {
		return providers.NewAuthError("deepseek", "commercial use requires an API key")
	}
	return nil
}
