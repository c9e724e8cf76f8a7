package routing

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"scribe-hq/vellum/pkg/config"
	"scribe-hq/vellum/pkg/providers"
	"scribe-hq/vellum/pkg/providers/deepseek"
	"scribe-hq/vellum/pkg/providers/gemini"
	"scribe-hq/vellum/pkg/providers/groq"
	"scribe-hq/vellum/pkg/providers/ollama"
	"scribe-hq/vellum/pkg/providers/openai"
	"scribe-hq/vellum/pkg/telemetry/metrics"
	"scribe-hq/vellum/pkg/telemetry/tracing"
	"scribe-hq/vellum/pkg/transcript/recorder"
)

// ConfigSource supplies the configuration snapshot a call runs against.
// Each call reads the source exactly once at its start, so a settings edit
// mid-session takes effect on the next call and is never observed torn.
//
// *config.Watcher satisfies this interface; use Static for a fixed
// configuration.
type ConfigSource interface {
	Current() *config.Config
}

// staticSource wraps a fixed configuration.
type staticSource struct {
	cfg *config.Config
}

func (s staticSource) Current() *config.Config { return s.cfg }

// Static returns a ConfigSource that always serves cfg.
func Static(cfg *config.Config) ConfigSource {
	return staticSource{cfg: cfg}
}

// VisionInput describes an image-analysis call.
type VisionInput struct {
	// Image is the raw image bytes, embedded as base64 in the request
	Image []byte

	// MimeType is the image MIME type ("image/png", "image/jpeg")
	MimeType string

	// Prompt is the analysis instruction. Empty uses a generic one.
	Prompt string

	// Detail is the provider's analysis detail hint ("low", "high", "auto")
	Detail string
}

// defaultVisionPrompt is used when a vision call carries no instruction.
const defaultVisionPrompt = "Describe the contents of this image."

// Router resolves each call to a backend adapter and a credential, then
// delegates and normalizes the outcome. Model routing and credential
// resolution are evaluated fresh per call against the current
// configuration snapshot.
//
// Router is safe for concurrent use.
type Router struct {
	source   ConfigSource
	adapters map[string]providers.Adapter
	logger   *slog.Logger
	metrics  *metrics.Collector
	recorder *recorder.Recorder
	tracer   *tracing.Tracer
}

// Option adjusts router construction.
type Option func(*Router)

// WithLogger sets the router's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// WithMetrics attaches a metrics collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(r *Router) {
		r.metrics = collector
	}
}

// WithRecorder attaches a transcript recorder that journals every call
// outcome. The recorder is caller-owned; Close does not close it.
func WithRecorder(rec *recorder.Recorder) Option {
	return func(r *Router) {
		r.recorder = rec
	}
}

// WithTracer attaches an OpenTelemetry tracer for per-call spans.
func WithTracer(tracer *tracing.Tracer) Option {
	return func(r *Router) {
		r.tracer = tracer
	}
}

// WithAdapter registers an adapter under its own name, replacing the
// built-in one. Mainly for tests and custom OpenAI-compatible backends.
func WithAdapter(adapter providers.Adapter) Option {
	return func(r *Router) {
		r.adapters[adapter.Name()] = adapter
	}
}

// New creates a router with the built-in adapters for every known backend.
// The retry policy and client identity are read from the source's current
// snapshot at construction; credentials and routing are re-read per call.
func New(source ConfigSource, opts ...Option) (*Router, error) {
	if source == nil {
		return nil, errors.New("routing: config source is required")
	}
	cfg := source.Current()
	if cfg == nil {
		return nil, errors.New("routing: config source returned no configuration")
	}

	r := &Router{
		source:   source,
		adapters: make(map[string]providers.Adapter),
		logger:   slog.Default(),
	}

	retry := retryPolicy(&cfg.Retry)
	ua := cfg.Client.UserAgent

	r.adapters["openai"] = openai.New(openai.Options{UserAgent: ua, Retry: retry, Logger: r.logger})
	r.adapters["deepseek"] = deepseek.New(deepseek.Options{UserAgent: ua, Retry: retry, Logger: r.logger})
	r.adapters["groq"] = groq.New(groq.Options{UserAgent: ua, Retry: retry, Logger: r.logger})
	r.adapters["gemini"] = gemini.New(gemini.Options{UserAgent: ua, Retry: retry, Logger: r.logger})
	r.adapters["ollama"] = ollama.New(ollama.Options{UserAgent: ua, Retry: retry, Logger: r.logger})

	for _, opt := range opts {
		opt(r)
	}

	r.logger.Debug("completion router initialized",
		"adapters", len(r.adapters),
		"default_provider", cfg.Routing.DefaultProvider,
	)

	return r, nil
}

// retryPolicy maps the retry configuration onto the providers policy.
func retryPolicy(cfg *config.RetryConfig) providers.RetryPolicy {
	policy := providers.DefaultRetryPolicy()
	if cfg.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.BaseDelay > 0 {
		policy.BaseDelay = cfg.BaseDelay
	}
	if cfg.MaxDelay > 0 {
		policy.MaxDelay = cfg.MaxDelay
	}
	if cfg.Jitter > 0 {
		policy.Jitter = cfg.Jitter
	}
	return policy
}

// Complete generates a completion for the prompt (or the conversation
// supplied via WithMessages). The model chosen through options or
// configuration determines the backend.
//
// With WithStream set, frames are delivered synchronously and in order to
// the callback; if the stream is aborted mid-flight the returned result
// still carries the accumulated partial text next to a non-nil error.
func (r *Router) Complete(ctx context.Context, prompt string, opts ...CallOption) (providers.CompletionResult, error) {
	params := &callParams{}
	for _, opt := range opts {
		opt(params)
	}

	snapshot := r.source.Current()
	params.resolve(&snapshot.Generation)

	providerName, wireModel := ResolveModel(&snapshot.Routing, params.model)
	call := &callState{
		router:    r,
		provider:  providerName,
		model:     params.model,
		requestID: uuid.New().String(),
		streaming: params.onFrame != nil,
		start:     time.Now(),
	}

	adapter, cred, err := r.bind(snapshot, providerName, params.model)
	if err != nil {
		return providers.CompletionResult{}, call.fail(ctx, err)
	}

	ctx, span := call.startSpan(ctx, "completion.route")

	req := params.request(prompt, wireModel)
	var result providers.CompletionResult
	if params.onFrame != nil {
		if r.metrics != nil {
			r.metrics.StreamOpened(providerName)
		}
		result, err = adapter.StreamComplete(ctx, cred, req, call.wrapFrames(params.onFrame))
	} else {
		result, err = adapter.Complete(ctx, cred, req)
	}

	result.RequestID = call.requestID
	if result.Model == "" {
		result.Model = wireModel
	}
	call.finish(ctx, span, &result, err)
	return result, call.decorate(err)
}

// AnalyzeImage sends the image to a vision-capable model and returns the
// model's analysis. Routing and credential resolution follow the same
// rules as Complete.
func (r *Router) AnalyzeImage(ctx context.Context, in VisionInput, opts ...CallOption) (providers.CompletionResult, error) {
	params := &callParams{}
	for _, opt := range opts {
		opt(params)
	}

	snapshot := r.source.Current()
	params.resolve(&snapshot.Generation)

	providerName, wireModel := ResolveModel(&snapshot.Routing, params.model)
	call := &callState{
		router:    r,
		provider:  providerName,
		model:     params.model,
		requestID: uuid.New().String(),
		start:     time.Now(),
	}

	adapter, cred, err := r.bind(snapshot, providerName, params.model)
	if err != nil {
		return providers.CompletionResult{}, call.fail(ctx, err)
	}

	ctx, span := call.startSpan(ctx, "completion.vision")

	prompt := in.Prompt
	if prompt == "" {
		prompt = defaultVisionPrompt
	}
	req := providers.VisionRequest{
		Model:       wireModel,
		Prompt:      prompt,
		Image:       in.Image,
		MimeType:    in.MimeType,
		Detail:      in.Detail,
		Temperature: *params.temperature,
		MaxTokens:   *params.maxTokens,
	}

	result, err := adapter.AnalyzeImage(ctx, cred, req)
	result.RequestID = call.requestID
	if result.Model == "" {
		result.Model = wireModel
	}
	call.finish(ctx, span, &result, err)
	return result, call.decorate(err)
}

// CheckProviders probes every registered backend concurrently and returns
// the results sorted by provider name. Backends whose credentials cannot
// be resolved are reported unhealthy without any network I/O.
func (r *Router) CheckProviders(ctx context.Context) []providers.ProbeResult {
	snapshot := r.source.Current()

	var targets []providers.ProbeTarget
	var failed []providers.ProbeResult
	for name, adapter := range r.adapters {
		cred, err := ResolveCredential(snapshot, name)
		if err != nil {
			failed = append(failed, providers.ProbeResult{Provider: name, Err: err})
			continue
		}
		targets = append(targets, providers.ProbeTarget{Adapter: adapter, Credential: cred})
	}

	results := providers.ProbeAll(ctx, targets, providers.DefaultProbeTimeout)
	results = append(results, failed...)
	sort.Slice(results, func(i, j int) bool {
		return results[i].Provider < results[j].Provider
	})

	if r.metrics != nil {
		for _, result := range results {
			r.metrics.UpdateProviderHealth(result.Provider, result.Healthy)
		}
	}
	return results
}

// Providers returns the names of the registered backend adapters, sorted.
func (r *Router) Providers() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close releases every adapter's pooled connections. Attached collectors,
// recorders, and tracers are caller-owned and stay open.
func (r *Router) Close() error {
	var firstErr error
	for _, adapter := range r.adapters {
		if err := adapter.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// bind resolves the adapter and credential for a call. Failures here are
// configuration errors: synchronous, never retried, no network I/O.
func (r *Router) bind(snapshot *config.Config, providerName, model string) (providers.Adapter, providers.Credential, error) {
	adapter, ok := r.adapters[providerName]
	if !ok {
		return nil, providers.Credential{}, &ProviderNotFoundError{
			ProviderName:       providerName,
			Model:              model,
			AvailableProviders: r.Providers(),
		}
	}

	cred, err := ResolveCredential(snapshot, providerName)
	if err != nil {
		return nil, providers.Credential{}, err
	}
	return adapter, cred, nil
}

// callState carries the identity of one in-flight call through dispatch,
// observation, and error decoration.
type callState struct {
	router    *Router
	provider  string
	model     string
	requestID string
	streaming bool
	start     time.Time
	frames    int
}

// startSpan opens the call span when tracing is attached. The returned
// span is nil otherwise.
func (c *callState) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if c.router.tracer == nil {
		return ctx, nil
	}
	ctx, span := c.router.tracer.Start(ctx, name)
	tracing.SetRequestAttributes(span, c.provider, c.model, c.requestID, c.streaming)
	return ctx, span
}

// wrapFrames counts delivered frames before forwarding them. Frames are
// delivered synchronously, so the counter needs no locking.
func (c *callState) wrapFrames(onFrame providers.StreamHandler) providers.StreamHandler {
	m := c.router.metrics
	return func(frame providers.StreamFrame) {
		if frame.Delta != "" {
			c.frames++
			if m != nil {
				m.RecordStreamFrame(c.provider, c.model)
			}
		}
		onFrame(frame)
	}
}

// fail observes a call that never reached an adapter (routing or
// credential failure) and returns the decorated error.
func (c *callState) fail(ctx context.Context, err error) error {
	c.router.logger.Warn("call rejected before dispatch",
		"provider", c.provider,
		"model", c.model,
		"request_id", c.requestID,
		"error", err,
	)
	c.observe(ctx, nil, err)
	return c.decorate(err)
}

// finish observes a dispatched call's outcome and closes its span.
func (c *callState) finish(ctx context.Context, span trace.Span, result *providers.CompletionResult, err error) {
	duration := time.Since(c.start)

	if err != nil {
		c.router.logger.Warn("completion call failed",
			"provider", c.provider,
			"model", c.model,
			"request_id", c.requestID,
			"streaming", c.streaming,
			"duration_ms", duration.Milliseconds(),
			"error", err,
		)
	} else {
		c.router.logger.Info("completion call succeeded",
			"provider", c.provider,
			"model", c.model,
			"request_id", c.requestID,
			"streaming", c.streaming,
			"duration_ms", duration.Milliseconds(),
			"tokens", result.TotalTokens,
		)
	}

	if span != nil {
		if result != nil {
			tracing.SetResultAttributes(span, result.FinishReason, result.TotalTokens)
			if result.PromptTokens > 0 || result.CompletionTokens > 0 {
				tracing.SetTokenAttributes(span, result.PromptTokens, result.CompletionTokens)
			}
		}
		if attempts := callAttempts(err); attempts > 1 {
			tracing.SetRetryAttributes(span, attempts)
		}
		if c.streaming {
			tracing.SetStreamFrames(span, c.frames)
		}
		tracing.SetStatus(span, err)
		span.End()
	}

	c.observe(ctx, result, err)
}

// observe feeds metrics and the transcript recorder.
func (c *callState) observe(ctx context.Context, result *providers.CompletionResult, err error) {
	duration := time.Since(c.start)
	status := callStatus(c.streaming, result, err)
	attempts := callAttempts(err)

	if m := c.router.metrics; m != nil {
		tokens := 0
		if result != nil {
			tokens = result.TotalTokens
		}
		m.RecordRequest(c.provider, c.model, status, duration, tokens)
		if result != nil && (result.PromptTokens > 0 || result.CompletionTokens > 0) {
			m.RecordTokens(c.provider, c.model, result.PromptTokens, result.CompletionTokens)
		}
		if err != nil {
			m.RecordError(c.provider, string(errKind(err)))
		}
		for i := 1; i < attempts; i++ {
			m.RecordRetry(c.provider)
		}
		if c.streaming {
			m.StreamClosed(c.provider, c.model, status)
		}
	}

	if rec := c.router.recorder; rec != nil {
		call := recorder.Call{
			RequestID: c.requestID,
			Provider:  c.provider,
			Model:     c.model,
			Streaming: c.streaming,
			Start:     c.start,
			Duration:  duration,
			Attempts:  attempts,
			Result:    result,
			Err:       err,
		}
		if recErr := rec.Record(ctx, call); recErr != nil {
			c.router.logger.Warn("transcript record failed",
				"request_id", c.requestID,
				"error", recErr,
			)
		}
	}
}

// decorate stamps the call identity into an APIError's request context.
func (c *callState) decorate(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *providers.APIError
	if errors.As(err, &apiErr) {
		apiErr.WithContext("request_id", c.requestID)
		apiErr.WithContext("model", c.model)
	}
	return err
}

// callStatus derives the metrics/transcript status label for a call.
func callStatus(streaming bool, result *providers.CompletionResult, err error) string {
	switch {
	case err == nil:
		return "success"
	case streaming && result != nil && result.Content != "":
		return "aborted"
	default:
		return "error"
	}
}

// callAttempts reads the attempt count stamped by the retry policy; calls
// that never failed report one attempt.
func callAttempts(err error) int {
	var apiErr *providers.APIError
	if errors.As(err, &apiErr) {
		if v, ok := apiErr.RequestContext["attempt"]; ok {
			if n, convErr := strconv.Atoi(v); convErr == nil && n > 0 {
				return n
			}
		}
	}
	return 1
}

// errKind extracts the taxonomy kind from an error, unknown otherwise.
func errKind(err error) providers.ErrorKind {
	var apiErr *providers.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return providers.KindUnknown
}
