package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// ExecutorConfig configures an Executor.
type ExecutorConfig struct {
	// Provider is the backend name stamped into every error the
	// executor raises
	Provider string

	// UserAgent is sent as the User-Agent header on every request
	UserAgent string

	// Timeout bounds each attempt (request plus response or stream
	// read) when the RequestSpec carries no timeout of its own
	Timeout time.Duration

	// Retry governs re-attempts for transient failures
	Retry RetryPolicy

	// Logger receives request-level debug logging. Nil uses the default.
	Logger *slog.Logger

	// Client overrides the pooled HTTP client, mainly for tests
	Client *http.Client
}

// Executor issues HTTP requests for one backend: connection pooling,
// default headers, per-attempt timeouts, retries, error normalization,
// and stream decoding. Adapters describe requests as RequestSpecs and
// never touch net/http directly.
type Executor struct {
	provider  string
	client    *http.Client
	logger    *slog.Logger
	retry     RetryPolicy
	userAgent string
	timeout   time.Duration
}

// NewExecutor creates an executor with a pooled HTTP client.
func NewExecutor(cfg ExecutorConfig) *Executor {
	client := cfg.Client
	if client == nil {
		client = newPooledClient()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		provider:  cfg.Provider,
		client:    client,
		logger:    logger,
		retry:     cfg.Retry,
		userAgent: cfg.UserAgent,
		timeout:   cfg.Timeout,
	}
}

// newPooledClient builds the shared transport for one backend. The client
// carries no overall timeout: streaming reads are bounded per attempt by
// context instead.
func newPooledClient() *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}
	return &http.Client{Transport: transport}
}

// Do performs a single attempt with no retries. On non-2xx status the
// response body is consumed into an *APIError; on success the caller owns
// resp.Body and must close it. The attempt timeout stays armed until the
// body is closed, so it bounds the read as well as the request.
func (e *Executor) Do(ctx context.Context, spec RequestSpec) (*http.Response, error) {
	ctx, cancel := e.attemptContext(ctx, spec.Timeout)
	resp, err := e.send(ctx, spec, 1)
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = &cancelOnCloseBody{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// cancelOnCloseBody ties the attempt context to the response body's
// lifetime: cancelling before the caller has read would abort the read
// mid-stream.
type cancelOnCloseBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnCloseBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

// DoJSON executes the request under the retry policy and unmarshals the
// successful response body into out.
func (e *Executor) DoJSON(ctx context.Context, spec RequestSpec, out any) error {
	err := e.retry.Execute(ctx, func(ctx context.Context, attempt int) error {
		attemptCtx, cancel := e.attemptContext(ctx, spec.Timeout)
		defer cancel()

		resp, err := e.send(attemptCtx, spec, attempt)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return WrapTransportError(e.provider, err)
		}
		if out != nil && len(data) > 0 {
			if err := json.Unmarshal(data, out); err != nil {
				return NewAPIError(e.provider, 0, fmt.Sprintf("invalid response payload: %v", err))
			}
		}
		return nil
	})
	if err != nil {
		return e.ensureAPIError(err)
	}
	return nil
}

// DoStream executes the request under the retry policy and, once a
// successful response arrives, decodes its body as a stream, forwarding
// each frame to onFrame. Retries only ever re-send the request; a stream
// that fails after its first byte is never replayed.
//
// The accumulated text is returned even when the stream was aborted
// mid-flight; in that case the error describes the abort.
func (e *Executor) DoStream(ctx context.Context, spec RequestSpec, framing StreamFraming, extract DeltaExtractor, onFrame StreamHandler) (string, error) {
	decoder := NewStreamDecoder(framing, extract, e.logger)

	var accumulated string
	var streamErr error
	err := e.retry.Execute(ctx, func(ctx context.Context, attempt int) error {
		attemptCtx, cancel := e.attemptContext(ctx, spec.Timeout)
		defer cancel()

		streamSpec := spec
		if streamSpec.Headers["Accept"] == "" {
			streamSpec = withAcceptHeader(streamSpec, framing)
		}

		resp, err := e.send(attemptCtx, streamSpec, attempt)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		accumulated, streamErr = decoder.Decode(attemptCtx, resp.Body, onFrame)
		return nil
	})
	if err != nil {
		return "", e.ensureAPIError(err)
	}
	if streamErr != nil {
		return accumulated, WrapTransportError(e.provider, streamErr)
	}
	return accumulated, nil
}

// Close releases pooled connections.
func (e *Executor) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

// send issues one attempt. Non-2xx responses are drained into an
// *APIError; transport failures are wrapped with a kind distinguishing
// aborts from network errors.
func (e *Executor) send(ctx context.Context, spec RequestSpec, attempt int) (*http.Response, error) {
	url := joinURL(spec.BaseURL, spec.Path)

	var bodyReader io.Reader
	if spec.Body != nil {
		bodyReader = bytes.NewReader(spec.Body)
	}

	req, err := http.NewRequestWithContext(ctx, spec.Method, url, bodyReader)
	if err != nil {
		return nil, NewAPIError(e.provider, 0, fmt.Sprintf("invalid request: %v", err))
	}

	if e.userAgent != "" {
		req.Header.Set("User-Agent", e.userAgent)
	}
	if spec.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range spec.Headers {
		req.Header.Set(key, value)
	}
	if spec.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+spec.APIKey)
	}

	if attempt > 1 {
		e.logger.Debug("retrying request",
			"provider", e.provider,
			"attempt", attempt,
			"path", redactQuery(spec.Path),
		)
	}
	e.logger.Debug("sending request",
		"provider", e.provider,
		"method", spec.Method,
		"path", redactQuery(spec.Path),
	)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, WrapTransportError(e.provider, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	errorBody, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	apiErr := NewAPIError(e.provider, resp.StatusCode, parseErrorMessage(errorBody))
	if wait := parseRetryAfter(resp.Header.Get("Retry-After")); wait > 0 {
		apiErr.WithContext("retry_after", wait.String())
	}
	return nil, apiErr
}

// attemptContext derives the per-attempt timeout under the caller's
// context, so caller cancellation always wins.
func (e *Executor) attemptContext(ctx context.Context, specTimeout time.Duration) (context.Context, context.CancelFunc) {
	timeout := specTimeout
	if timeout <= 0 {
		timeout = e.timeout
	}
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// ensureAPIError normalizes stray errors (context cancellation during a
// backoff sleep, for example) into the taxonomy.
func (e *Executor) ensureAPIError(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return err
	}
	return WrapTransportError(e.provider, err)
}

func withAcceptHeader(spec RequestSpec, framing StreamFraming) RequestSpec {
	headers := make(map[string]string, len(spec.Headers)+1)
	for k, v := range spec.Headers {
		headers[k] = v
	}
	switch framing {
	case FramingSSE:
		headers["Accept"] = "text/event-stream"
	case FramingNDJSON:
		headers["Accept"] = "application/x-ndjson"
	}
	spec.Headers = headers
	return spec
}

func joinURL(base, path string) string {
	base = strings.TrimSuffix(base, "/")
	if path == "" {
		return base
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

// parseErrorMessage extracts a human message from a provider error body.
// OpenAI-compatible APIs and Gemini nest it under {"error":{"message"}};
// Ollama returns {"error":"..."}; anything else is passed through raw.
func parseErrorMessage(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}

	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}

	var flat struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(trimmed, &flat); err == nil {
		if flat.Error != "" {
			return flat.Error
		}
		if flat.Message != "" {
			return flat.Message
		}
	}

	return string(trimmed)
}

// parseRetryAfter parses a Retry-After header in either delay-seconds or
// HTTP-date form.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}

	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(header); err == nil {
		if until := time.Until(t); until > 0 {
			return until
		}
	}

	return 0
}

// redactQuery strips the query string from a request path before logging;
// some backends carry credentials there.
func redactQuery(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i]
	}
	return path
}
