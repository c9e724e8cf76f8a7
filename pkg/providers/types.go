package providers

import "time"

// Message represents a single message in a conversation.
// It is provider-agnostic and transformed to provider-specific formats.
type Message struct {
	// Role identifies the message sender (system, user, assistant)
	Role string `json:"role"`

	// Content is the message text content. Ignored when Parts is set.
	Content string `json:"content,omitempty"`

	// Parts holds multi-part content for vision calls: text parts mixed
	// with base64 data-URL image parts. When non-empty, adapters send the
	// array form instead of the plain string.
	Parts []ContentPart `json:"parts,omitempty"`
}

// ContentPart is one element of a multi-part message content array.
type ContentPart struct {
	// Type is "text" or "image_url"
	Type string `json:"type"`

	// Text is the text content when Type is "text"
	Text string `json:"text,omitempty"`

	// ImageURL holds the image reference when Type is "image_url"
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL references an image by URL. Vision calls use data URLs
// ("data:image/png;base64,...") so no external fetch is involved.
type ImageURL struct {
	// URL is the image location or data URL
	URL string `json:"url"`

	// Detail is the provider's analysis detail hint ("low", "high", "auto")
	Detail string `json:"detail,omitempty"`
}

// CompletionRequest represents a provider-agnostic completion request.
// The router merges configured generation defaults into it before the
// adapter sees it; adapters receive final values.
type CompletionRequest struct {
	// Model is the model identifier (e.g., "gpt-4o-mini", "deepseek-chat")
	Model string `json:"model"`

	// Messages is the conversation history
	Messages []Message `json:"messages"`

	// Temperature controls randomness (0.0 to 2.0)
	Temperature float64 `json:"temperature,omitempty"`

	// MaxTokens is the maximum number of tokens to generate
	MaxTokens int `json:"max_tokens,omitempty"`

	// TopP controls nucleus sampling (0.0 to 1.0, 0 = unset)
	TopP float64 `json:"top_p,omitempty"`

	// Stream indicates whether to stream the response
	Stream bool `json:"stream,omitempty"`
}

// VisionRequest represents an image-analysis request. The image is embedded
// into the outgoing request as base64 data; no URL fetching is involved.
type VisionRequest struct {
	// Model is the model identifier; must be vision-capable
	Model string `json:"model"`

	// Prompt is the analysis instruction accompanying the image
	Prompt string `json:"prompt"`

	// Image is the raw image bytes
	Image []byte `json:"-"`

	// MimeType is the image MIME type (e.g., "image/png")
	MimeType string `json:"mime_type"`

	// Detail is the provider's analysis detail hint ("low", "high", "auto")
	Detail string `json:"detail,omitempty"`

	// Temperature controls randomness (0.0 to 2.0)
	Temperature float64 `json:"temperature,omitempty"`

	// MaxTokens is the maximum number of tokens to generate
	MaxTokens int `json:"max_tokens,omitempty"`
}

// CompletionResult is the normalized outcome of a completion call.
//
// For streaming calls that were aborted mid-stream, Content holds the
// partial text accumulated before the abort and Err carries the cause;
// the router returns the result alongside a non-nil error so progress is
// never discarded.
type CompletionResult struct {
	// Content is the generated (or partially accumulated) text
	Content string `json:"content"`

	// Model is the model that generated the response
	Model string `json:"model"`

	// Provider is the backend that served the request
	Provider string `json:"provider"`

	// TotalTokens is the provider-reported token count (0 when unknown)
	TotalTokens int `json:"total_tokens,omitempty"`

	// PromptTokens and CompletionTokens split TotalTokens between input
	// and output when the provider reports the breakdown (0 when unknown)
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`

	// FinishReason indicates why generation stopped (stop, length,
	// content_filter; empty when streaming was aborted)
	FinishReason string `json:"finish_reason,omitempty"`

	// Streaming records whether the result was produced by a streaming call
	Streaming bool `json:"streaming"`

	// RequestID is the client-assigned identifier for this call
	RequestID string `json:"request_id"`

	// Err is set when a streaming call stopped early; Content then holds
	// the partial accumulation
	Err error `json:"-"`
}

// StreamFrame is one incremental unit of streamed output.
type StreamFrame struct {
	// Delta is the new text in this frame
	Delta string

	// Accumulated is the full text received so far, including Delta
	Accumulated string

	// Finished is true on the final frame (terminator seen or stream done)
	Finished bool
}

// StreamHandler receives stream frames strictly in order. It is invoked
// synchronously from the decoding loop; frame n returns before frame n+1
// is produced.
type StreamHandler func(frame StreamFrame)

// Credential is a fully-resolved provider credential, derived fresh from
// the configuration snapshot on every call and passed into the adapter.
// Adapters never read ambient configuration.
type Credential struct {
	// Provider is the backend name the credential belongs to
	Provider string

	// APIKey is the resolved key; empty in keyless mode and for providers
	// without authentication
	APIKey string

	// BaseURL is the resolved endpoint for this call
	BaseURL string

	// AppID identifies the application in keyless usage-declaration headers
	AppID string

	// CommercialUse declares commercial usage. Invariant: CommercialUse
	// with an empty APIKey fails credential resolution before any
	// network call.
	CommercialUse bool

	// Keyless is true when the call uses the provider's keyless
	// non-commercial mode: no Authorization header, usage-declaration
	// headers instead
	Keyless bool

	// Timeout is the per-request timeout for this provider
	Timeout time.Duration
}

// RequestSpec describes one outbound HTTP request. Immutable once built;
// cancellation travels as a context parameter, never inside the spec.
type RequestSpec struct {
	// Method is the HTTP method
	Method string

	// Path is appended to BaseURL to form the request URL. It may carry a
	// query string (Gemini authenticates via a key query parameter).
	Path string

	// BaseURL is the endpoint base for this request
	BaseURL string

	// Headers are additional headers merged over the executor defaults
	Headers map[string]string

	// Body is the serialized request body (nil for GET)
	Body []byte

	// APIKey, when non-empty, produces an Authorization: Bearer header
	APIKey string

	// Timeout bounds this request; 0 falls back to the executor default
	Timeout time.Duration
}

// Message role constants
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Finish reason constants
const (
	FinishReasonStop          = "stop"
	FinishReasonLength        = "length"
	FinishReasonContentFilter = "content_filter"
)

// Content part type constants
const (
	PartTypeText     = "text"
	PartTypeImageURL = "image_url"
)
