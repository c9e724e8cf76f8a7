package routing

import (
	"scribe-hq/vellum/pkg/config"
	"scribe-hq/vellum/pkg/providers"
)

// CallOption adjusts a single Complete or AnalyzeImage call. Options
// override the configured generation defaults; an unset option falls back
// to configuration.
type CallOption func(*callParams)

// callParams collects per-call overrides. Pointer fields distinguish
// "not set" from an explicit zero, so WithTemperature(0) wins over a
// configured default.
type callParams struct {
	model       string
	temperature *float64
	maxTokens   *int
	topP        *float64
	system      string
	messages    []providers.Message
	onFrame     providers.StreamHandler
}

// WithModel selects the model for this call. The model identifier also
// determines the provider (see ResolveModel).
func WithModel(model string) CallOption {
	return func(p *callParams) {
		p.model = model
	}
}

// WithTemperature sets the sampling temperature for this call. An explicit
// zero is honored.
func WithTemperature(temperature float64) CallOption {
	return func(p *callParams) {
		p.temperature = &temperature
	}
}

// WithMaxTokens caps the completion length for this call.
func WithMaxTokens(maxTokens int) CallOption {
	return func(p *callParams) {
		p.maxTokens = &maxTokens
	}
}

// WithTopP sets the nucleus-sampling parameter for this call.
func WithTopP(topP float64) CallOption {
	return func(p *callParams) {
		p.topP = &topP
	}
}

// WithSystem prepends a system message to the conversation.
func WithSystem(system string) CallOption {
	return func(p *callParams) {
		p.system = system
	}
}

// WithMessages supplies a full conversation instead of the single user
// prompt. The prompt argument to Complete is ignored when set.
func WithMessages(messages []providers.Message) CallOption {
	return func(p *callParams) {
		p.messages = messages
	}
}

// WithStream switches the call to streaming delivery. onFrame receives
// every decoded frame in order, synchronously; the returned result
// carries the full accumulated text.
func WithStream(onFrame providers.StreamHandler) CallOption {
	return func(p *callParams) {
		p.onFrame = onFrame
	}
}

// resolve merges the configured generation defaults under the per-call
// overrides. Per-call values win.
func (p *callParams) resolve(gen *config.GenerationConfig) {
	if p.model == "" {
		p.model = gen.Model
	}
	if p.temperature == nil {
		p.temperature = &gen.Temperature
	}
	if p.maxTokens == nil {
		p.maxTokens = &gen.MaxTokens
	}
	if p.topP == nil {
		p.topP = &gen.TopP
	}
}

// conversation builds the message list for the call.
func (p *callParams) conversation(prompt string) []providers.Message {
	if len(p.messages) > 0 {
		return p.messages
	}

	var messages []providers.Message
	if p.system != "" {
		messages = append(messages, providers.Message{Role: providers.RoleSystem, Content: p.system})
	}
	return append(messages, providers.Message{Role: providers.RoleUser, Content: prompt})
}

// request assembles the provider-agnostic completion request.
func (p *callParams) request(prompt, wireModel string) providers.CompletionRequest {
	return providers.CompletionRequest{
		Model:       wireModel,
		Messages:    p.conversation(prompt),
		Temperature: *p.temperature,
		MaxTokens:   *p.maxTokens,
		TopP:        *p.topP,
		Stream:      p.onFrame != nil,
	}
}
