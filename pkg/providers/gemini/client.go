// Package gemini implements the Google Gemini provider adapter.
//
// Gemini does not speak the OpenAI wire format: requests go to
// model-scoped generateContent endpoints with the API key in the query
// string, conversation turns use user/model roles, and images travel as
// inline base64 blobs rather than data URLs. Streaming uses SSE through
// the streamGenerateContent endpoint with no explicit terminator; the
// stream simply ends.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"scribe-hq/vellum/pkg/providers"
)

// Name is the backend identifier.
const Name = "gemini"

// DefaultBaseURL is the Generative Language API endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Options configures the adapter.
type Options struct {
	UserAgent string
	Timeout   time.Duration
	Retry     providers.RetryPolicy
	Logger    *slog.Logger
	Client    *http.Client
}

// Adapter implements providers.Adapter for the Gemini API.
type Adapter struct {
	exec   *providers.Executor
	logger *slog.Logger
}

// New creates a Gemini adapter.
func New(opts Options) *Adapter {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	exec := providers.NewExecutor(providers.ExecutorConfig{
		Provider:  Name,
		UserAgent: opts.UserAgent,
		Timeout:   opts.Timeout,
		Retry:     opts.Retry,
		Logger:    logger,
		Client:    opts.Client,
	})

	logger.Debug("provider adapter initialized", "provider", Name, "family", "gemini")

	return &Adapter{
		exec:   exec,
		logger: logger,
	}
}

// Name returns the backend identifier.
func (a *Adapter) Name() string {
	return Name
}

// Complete sends a non-streaming generateContent request.
func (a *Adapter) Complete(ctx context.Context, cred providers.Credential, req providers.CompletionRequest) (providers.CompletionResult, error) {
	if err := validateRequest(req); err != nil {
		return providers.CompletionResult{}, err
	}
	if err := requireKey(cred); err != nil {
		return providers.CompletionResult{}, err
	}

	spec, err := a.generateSpec(cred, req.Model, transformRequest(req), false)
	if err != nil {
		return providers.CompletionResult{}, err
	}

	var geminiResp GeminiResponse
	if err := a.exec.DoJSON(ctx, spec, &geminiResp); err != nil {
		return providers.CompletionResult{}, err
	}

	result, err := transformResponse(&geminiResp, req.Model)
	if err != nil {
		return providers.CompletionResult{}, providers.TagProvider(Name, err)
	}
	result.Provider = Name

	a.logger.Debug("completion request succeeded",
		"provider", Name,
		"model", result.Model,
		"tokens", result.TotalTokens,
	)

	return result, nil
}

// StreamComplete sends a streaming generateContent request, forwarding
// every decoded frame to onFrame. When the stream is aborted the returned
// result carries the text accumulated so far alongside the error.
func (a *Adapter) StreamComplete(ctx context.Context, cred providers.Credential, req providers.CompletionRequest, onFrame providers.StreamHandler) (providers.CompletionResult, error) {
	if err := validateRequest(req); err != nil {
		return providers.CompletionResult{}, err
	}
	if err := requireKey(cred); err != nil {
		return providers.CompletionResult{}, err
	}

	spec, err := a.generateSpec(cred, req.Model, transformRequest(req), true)
	if err != nil {
		return providers.CompletionResult{}, err
	}

	var finishReason string
	var totalTokens int
	extract := func(payload []byte) (string, bool, error) {
		var chunk GeminiResponse
		if err := json.Unmarshal(payload, &chunk); err != nil {
			return "", false, err
		}
		if chunk.UsageMetadata != nil {
			totalTokens = chunk.UsageMetadata.TotalTokenCount
		}
		if len(chunk.Candidates) == 0 {
			return "", false, nil
		}
		candidate := chunk.Candidates[0]
		if candidate.FinishReason != "" {
			finishReason = normalizeFinishReason(candidate.FinishReason)
		}
		var delta strings.Builder
		for _, part := range candidate.Content.Parts {
			delta.WriteString(part.Text)
		}
		return delta.String(), false, nil
	}

	accumulated, err := a.exec.DoStream(ctx, spec, providers.FramingSSE, extract, onFrame)

	result := providers.CompletionResult{
		Content:      accumulated,
		Model:        req.Model,
		Provider:     Name,
		TotalTokens:  totalTokens,
		FinishReason: finishReason,
		Streaming:    true,
	}
	if err != nil {
		result.Err = err
		return result, err
	}

	return result, nil
}

// AnalyzeImage sends a vision request with the image as an inline blob.
func (a *Adapter) AnalyzeImage(ctx context.Context, cred providers.Credential, req providers.VisionRequest) (providers.CompletionResult, error) {
	if err := validateVisionRequest(req); err != nil {
		return providers.CompletionResult{}, err
	}
	if err := requireKey(cred); err != nil {
		return providers.CompletionResult{}, err
	}

	geminiReq := &GeminiRequest{Contents: visionContents(req)}
	if req.Temperature != 0 || req.MaxTokens != 0 {
		geminiReq.GenerationConfig = &GeminiGenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		}
	}

	spec, err := a.generateSpec(cred, req.Model, geminiReq, false)
	if err != nil {
		return providers.CompletionResult{}, err
	}

	var geminiResp GeminiResponse
	if err := a.exec.DoJSON(ctx, spec, &geminiResp); err != nil {
		return providers.CompletionResult{}, err
	}

	result, err := transformResponse(&geminiResp, req.Model)
	if err != nil {
		return providers.CompletionResult{}, providers.TagProvider(Name, err)
	}
	result.Provider = Name

	return result, nil
}

// Ping lists the backend's models as a lightweight reachability probe.
func (a *Adapter) Ping(ctx context.Context, cred providers.Credential) error {
	if err := requireKey(cred); err != nil {
		return err
	}

	spec := providers.RequestSpec{
		Method:  http.MethodGet,
		Path:    "/models?key=" + url.QueryEscape(cred.APIKey),
		BaseURL: cred.BaseURL,
		Timeout: cred.Timeout,
	}

	resp, err := a.exec.Do(ctx, spec)
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

// generateSpec builds the model-scoped wire spec. The API key rides the
// query string, never an Authorization header; the executor redacts query
// strings from its logs.
func (a *Adapter) generateSpec(cred providers.Credential, model string, geminiReq *GeminiRequest, stream bool) (providers.RequestSpec, error) {
	body, err := json.Marshal(geminiReq)
	if err != nil {
		return providers.RequestSpec{}, providers.TagProvider(Name, fmt.Errorf("failed to marshal request: %w", err))
	}

	verb := "generateContent"
	query := "key=" + url.QueryEscape(cred.APIKey)
	if stream {
		verb = "streamGenerateContent"
		query = "alt=sse&" + query
	}

	return providers.RequestSpec{
		Method:  http.MethodPost,
		Path:    fmt.Sprintf("/models/%s:%s?%s", url.PathEscape(model), verb, query),
		BaseURL: cred.BaseURL,
		Body:    body,
		Timeout: cred.Timeout,
	}, nil
}

func requireKey(cred providers.Credential) error {
	if cred.APIKey == "" {
		return providers.NewAuthError(Name, "API key is required")
	}
	return nil
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
