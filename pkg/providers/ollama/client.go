// Package ollama implements the local Ollama provider adapter.
//
// Ollama runs as a local daemon and speaks its own generate protocol:
// a flat prompt instead of structured messages, no authentication, and
// newline-delimited JSON streaming with a done flag on the final line
// rather than SSE framing. Images for multimodal models travel as bare
// base64 strings.
package ollama

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"scribe-hq/vellum/pkg/providers"
)

// Name is the backend identifier.
const Name = "ollama"

// DefaultBaseURL is the local daemon's API root.
const DefaultBaseURL = "http://localhost:11434/api"

// Options configures the adapter.
type Options struct {
	UserAgent string
	Timeout   time.Duration
	Retry     providers.RetryPolicy
	Logger    *slog.Logger
	Client    *http.Client
}

// Adapter implements providers.Adapter for a local Ollama daemon.
type Adapter struct {
	exec   *providers.Executor
	logger *slog.Logger
}

// New creates an Ollama adapter.
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

	logger.Debug("provider adapter initialized", "provider", Name, "family", "ollama")

	return &Adapter{
		exec:   exec,
		logger: logger,
	}
}

// Name returns the backend identifier.
func (a *Adapter) Name() string {
	return Name
}

// Complete sends a non-streaming generate request.
func (a *Adapter) Complete(ctx context.Context, cred providers.Credential, req providers.CompletionRequest) (providers.CompletionResult, error) {
	if err := validateRequest(req); err != nil {
		return providers.CompletionResult{}, err
	}

	req.Stream = false
	spec, err := a.generateSpec(cred, transformRequest(req))
	if err != nil {
		return providers.CompletionResult{}, err
	}

	var ollamaResp OllamaResponse
	if err := a.exec.DoJSON(ctx, spec, &ollamaResp); err != nil {
		return providers.CompletionResult{}, err
	}

	result := transformResponse(&ollamaResp)
	result.Provider = Name
	if result.Model == "" {
		result.Model = req.Model
	}

	a.logger.Debug("completion request succeeded",
		"provider", Name,
		"model", result.Model,
		"tokens", result.TotalTokens,
	)

	return result, nil
}

// StreamComplete sends a streaming generate request, forwarding every
// decoded frame to onFrame. When the stream is aborted the returned
// result carries the text accumulated so far alongside the error.
func (a *Adapter) StreamComplete(ctx context.Context, cred providers.Credential, req providers.CompletionRequest, onFrame providers.StreamHandler) (providers.CompletionResult, error) {
	if err := validateRequest(req); err != nil {
		return providers.CompletionResult{}, err
	}

	req.Stream = true
	spec, err := a.generateSpec(cred, transformRequest(req))
	if err != nil {
		return providers.CompletionResult{}, err
	}

	var finishReason string
	var totalTokens int
	extract := func(payload []byte) (string, bool, error) {
		var chunk OllamaResponse
		if err := json.Unmarshal(payload, &chunk); err != nil {
			return "", false, err
		}
		if chunk.Done {
			totalTokens = chunk.PromptEvalCount + chunk.EvalCount
			finishReason = normalizeDoneReason(chunk.DoneReason)
			return chunk.Response, true, nil
		}
		return chunk.Response, false, nil
	}

	accumulated, err := a.exec.DoStream(ctx, spec, providers.FramingNDJSON, extract, onFrame)

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

// AnalyzeImage sends a vision request with the image as a bare base64
// string for multimodal models.
func (a *Adapter) AnalyzeImage(ctx context.Context, cred providers.Credential, req providers.VisionRequest) (providers.CompletionResult, error) {
	if err := validateVisionRequest(req); err != nil {
		return providers.CompletionResult{}, err
	}

	ollamaReq := &OllamaRequest{
		Model:  req.Model,
		Prompt: req.Prompt,
		Images: []string{base64.StdEncoding.EncodeToString(req.Image)},
	}
	if req.Temperature != 0 || req.MaxTokens != 0 {
		ollamaReq.Options = &OllamaOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		}
	}

	spec, err := a.generateSpec(cred, ollamaReq)
	if err != nil {
		return providers.CompletionResult{}, err
	}

	var ollamaResp OllamaResponse
	if err := a.exec.DoJSON(ctx, spec, &ollamaResp); err != nil {
		return providers.CompletionResult{}, err
	}

	result := transformResponse(&ollamaResp)
	result.Provider = Name
	if result.Model == "" {
		result.Model = req.Model
	}

	return result, nil
}

// Ping probes the daemon's version endpoint.
func (a *Adapter) Ping(ctx context.Context, cred providers.Credential) error {
	spec := providers.RequestSpec{
		Method:  http.MethodGet,
		Path:    "/version",
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

// generateSpec builds the wire spec. The local daemon needs no key, but
// one is passed through as a bearer token when present so proxied
// daemons keep working.
func (a *Adapter) generateSpec(cred providers.Credential, ollamaReq *OllamaRequest) (providers.RequestSpec, error) {
	body, err := json.Marshal(ollamaReq)
	if err != nil {
		return providers.RequestSpec{}, providers.TagProvider(Name, fmt.Errorf("failed to marshal request: %w", err))
	}

	return providers.RequestSpec{
		Method:  http.MethodPost,
		Path:    "/generate",
		BaseURL: cred.BaseURL,
		Body:    body,
		APIKey:  cred.APIKey,
		Timeout: cred.Timeout,
	}, nil
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
