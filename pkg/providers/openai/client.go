package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"scribe-hq/vellum/pkg/providers"
)

// DefaultName is the backend identifier used when Options.Name is empty.
const DefaultName = "openai"

// HeaderFunc derives extra request headers from the call credential.
// Wrapping packages use it to inject backend-specific headers (usage
// declarations, client identifiers) without reimplementing the adapter.
type HeaderFunc func(cred providers.Credential) map[string]string

// Options configures the adapter.
type Options struct {
	// Name overrides the backend identifier. Wrapping packages set this
	// so errors and results carry their own provider name.
	Name string

	// UserAgent is sent on every request
	UserAgent string

	// Timeout bounds each attempt when the credential carries no timeout
	Timeout time.Duration

	// Retry governs transient-failure re-attempts
	Retry providers.RetryPolicy

	// Logger receives adapter debug logging. Nil uses the default.
	Logger *slog.Logger

	// Headers supplies extra per-call headers derived from the credential
	Headers HeaderFunc

	// Client overrides the pooled HTTP client, mainly for tests
	Client *http.Client
}

// Adapter implements providers.Adapter for OpenAI's chat completions API
// and for every backend that speaks the same wire format.
type Adapter struct {
	name    string
	exec    *providers.Executor
	logger  *slog.Logger
	headers HeaderFunc
}

// New creates an OpenAI-compatible adapter.
func New(opts Options) *Adapter {
	name := opts.Name
	if name == "" {
		name = DefaultName
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	exec := providers.NewExecutor(providers.ExecutorConfig{
		Provider:  name,
		UserAgent: opts.UserAgent,
		Timeout:   opts.Timeout,
		Retry:     opts.Retry,
		Logger:    logger,
		Client:    opts.Client,
	})

	logger.Debug("provider adapter initialized", "provider", name, "family", "openai")

	return &Adapter{
		name:    name,
		exec:    exec,
		logger:  logger,
		headers: opts.Headers,
	}
}

// Name returns the backend identifier.
func (a *Adapter) Name() string {
	return a.name
}

// Complete sends a non-streaming chat completion request.
func (a *Adapter) Complete(ctx context.Context, cred providers.Credential, req providers.CompletionRequest) (providers.CompletionResult, error) {
	if err := validateRequest(req); err != nil {
		return providers.CompletionResult{}, err
	}

	req.Stream = false
	spec, err := a.completionSpec(cred, req)
	if err != nil {
		return providers.CompletionResult{}, err
	}

	var openaiResp OpenAIResponse
	if err := a.exec.DoJSON(ctx, spec, &openaiResp); err != nil {
		return providers.CompletionResult{}, err
	}

	result, err := transformResponse(&openaiResp)
	if err != nil {
		return providers.CompletionResult{}, providers.TagProvider(a.name, err)
	}
	result.Provider = a.name

	a.logger.Debug("completion request succeeded",
		"provider", a.name,
		"model", result.Model,
		"tokens", result.TotalTokens,
	)

	return result, nil
}

// StreamComplete sends a streaming chat completion request, forwarding
// every decoded frame to onFrame. When the stream is aborted the returned
// result carries the text accumulated so far alongside the error.
func (a *Adapter) StreamComplete(ctx context.Context, cred providers.Credential, req providers.CompletionRequest, onFrame providers.StreamHandler) (providers.CompletionResult, error) {
	if err := validateRequest(req); err != nil {
		return providers.CompletionResult{}, err
	}

	req.Stream = true
	spec, err := a.completionSpec(cred, req)
	if err != nil {
		return providers.CompletionResult{}, err
	}

	var finishReason string
	var totalTokens int
	extract := func(payload []byte) (string, bool, error) {
		var chunk OpenAIStreamResponse
		if err := json.Unmarshal(payload, &chunk); err != nil {
			return "", false, err
		}
		if chunk.Usage != nil {
			totalTokens = chunk.Usage.TotalTokens
		}
		if len(chunk.Choices) == 0 {
			return "", false, nil
		}
		choice := chunk.Choices[0]
		if choice.FinishReason != "" {
			finishReason = normalizeFinishReason(choice.FinishReason)
		}
		return choice.Delta.Content, false, nil
	}

	accumulated, err := a.exec.DoStream(ctx, spec, providers.FramingSSE, extract, onFrame)

	result := providers.CompletionResult{
		Content:      accumulated,
		Model:        req.Model,
		Provider:     a.name,
		TotalTokens:  totalTokens,
		FinishReason: finishReason,
		Streaming:    true,
	}
	if err != nil {
		result.Err = err
		return result, err
	}

	a.logger.Debug("streaming request completed",
		"provider", a.name,
		"model", req.Model,
		"chars", len(accumulated),
	)

	return result, nil
}

// AnalyzeImage sends a vision request with the image embedded as a base64
// data URL inside a multi-part user message.
func (a *Adapter) AnalyzeImage(ctx context.Context, cred providers.Credential, req providers.VisionRequest) (providers.CompletionResult, error) {
	if err := validateVisionRequest(req); err != nil {
		return providers.CompletionResult{}, err
	}
	return a.Complete(ctx, cred, visionToCompletion(req))
}

// Ping lists the backend's models as a lightweight reachability probe.
func (a *Adapter) Ping(ctx context.Context, cred providers.Credential) error {
	resp, err := a.exec.Do(ctx, a.spec(cred, http.MethodGet, "/models", nil))
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// Close releases pooled connections.
func (a *Adapter) Close() error {
	return a.exec.Close()
}

// completionSpec marshals the request into a wire spec.
func (a *Adapter) completionSpec(cred providers.Credential, req providers.CompletionRequest) (providers.RequestSpec, error) {
	body, err := json.Marshal(transformRequest(req))
	if err != nil {
		return providers.RequestSpec{}, providers.TagProvider(a.name, fmt.Errorf("failed to marshal request: %w", err))
	}
	return a.spec(cred, http.MethodPost, "/chat/completions", body), nil
}

// spec builds the wire spec for one call. Keyless credentials produce no
// Authorization header; any backend-specific headers come from the
// adapter's HeaderFunc.
func (a *Adapter) spec(cred providers.Credential, method, path string, body []byte) providers.RequestSpec {
	s := providers.RequestSpec{
		Method:  method,
		Path:    path,
		BaseURL: cred.BaseURL,
		Body:    body,
		Timeout: cred.Timeout,
	}
	if !cred.Keyless {
		s.APIKey = cred.APIKey
	}
	if a.headers != nil {
		s.Headers = a.headers(cred)
	}
	return s
}

// validateRequest validates the completion request.
func validateRequest(req providers.CompletionRequest) error {
	if req.Model == "" {
		return &providers.ValidationError{
			Field:   "model",
			Message: "model is required",
		}
	}

	if len(req.Messages) == 0 {
		return &providers.ValidationError{
			Field:   "messages",
			Message: "at least one message is required",
		}
	}

	return nil
}

// validateVisionRequest validates the vision request.
func validateVisionRequest(req providers.VisionRequest) error {
	if req.Model == "" {
		return &providers.ValidationError{
			Field:   "model",
			Message: "model is required",
		}
	}

	if len(req.Image) == 0 {
		return &providers.ValidationError{
			Field:   "image",
			Message: "image data is required",
		}
	}

	return nil
}
