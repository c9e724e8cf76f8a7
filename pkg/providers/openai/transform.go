package openai

import (
	"encoding/base64"
	"fmt"

	"scribe-hq/vellum/pkg/providers"
)

// OpenAI API request/response types. These shapes are shared by every
// OpenAI-compatible backend (DeepSeek, Groq, Azure, local gateways).

// OpenAIRequest represents an OpenAI chat completion request.
type OpenAIRequest struct {
	Model       string          `json:"model"`
	Messages    []OpenAIMessage `json:"messages"`
	Temperature float64         `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	TopP        float64         `json:"top_p,omitempty"`
	Stream      bool            `json:"stream,omitempty"`
	N           int             `json:"n,omitempty"`
}

// OpenAIMessage represents a message in OpenAI format. Content is a plain
// string for text messages or a content-part array for vision messages.
type OpenAIMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// OpenAIContentPart is one element of a multi-part message content array.
type OpenAIContentPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *OpenAIImageURL `json:"image_url,omitempty"`
}

// OpenAIImageURL references an image, typically as a base64 data URL.
type OpenAIImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

// OpenAIResponse represents an OpenAI chat completion response.
type OpenAIResponse struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []OpenAIChoice `json:"choices"`
	Usage   OpenAIUsage    `json:"usage"`
}

// OpenAIChoice represents a completion choice in OpenAI format.
type OpenAIChoice struct {
	Index        int                 `json:"index"`
	Message      OpenAIChoiceMessage `json:"message"`
	FinishReason string              `json:"finish_reason"`
}

// OpenAIChoiceMessage is the assistant message inside a response choice.
// Response content is always a plain string.
type OpenAIChoiceMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OpenAIUsage represents token usage in OpenAI format.
type OpenAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// OpenAIStreamResponse represents a chunk in OpenAI's SSE stream.
type OpenAIStreamResponse struct {
	ID      string               `json:"id"`
	Object  string               `json:"object"`
	Created int64                `json:"created"`
	Model   string               `json:"model"`
	Choices []OpenAIStreamChoice `json:"choices"`
	Usage   *OpenAIUsage         `json:"usage,omitempty"`
}

// OpenAIStreamChoice represents a choice in a stream chunk.
type OpenAIStreamChoice struct {
	Index        int               `json:"index"`
	Delta        OpenAIStreamDelta `json:"delta"`
	FinishReason string            `json:"finish_reason,omitempty"`
}

// OpenAIStreamDelta represents the incremental content in a stream chunk.
type OpenAIStreamDelta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

// transformRequest transforms a provider-agnostic request to OpenAI format.
func transformRequest(req providers.CompletionRequest) *OpenAIRequest {
	openaiReq := &OpenAIRequest{
		Model:       req.Model,
		Messages:    make([]OpenAIMessage, len(req.Messages)),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		TopP:        req.TopP,
		Stream:      req.Stream,
		N:           1, // Always generate 1 completion
	}

	for i, msg := range req.Messages {
		openaiReq.Messages[i] = transformMessage(msg)
	}

	return openaiReq
}

// transformMessage picks the string or content-part form of one message.
func transformMessage(msg providers.Message) OpenAIMessage {
	if len(msg.Parts) == 0 {
		return OpenAIMessage{Role: msg.Role, Content: msg.Content}
	}

	parts := make([]OpenAIContentPart, len(msg.Parts))
	for i, part := range msg.Parts {
		parts[i] = OpenAIContentPart{
			Type: part.Type,
			Text: part.Text,
		}
		if part.ImageURL != nil {
			parts[i].ImageURL = &OpenAIImageURL{
				URL:    part.ImageURL.URL,
				Detail: part.ImageURL.Detail,
			}
		}
	}
	return OpenAIMessage{Role: msg.Role, Content: parts}
}

// transformResponse extracts the normalized result from an OpenAI response.
// Provider, Streaming and RequestID are filled in by the caller.
func transformResponse(resp *OpenAIResponse) (providers.CompletionResult, error) {
	if len(resp.Choices) == 0 {
		return providers.CompletionResult{}, fmt.Errorf("no choices in response")
	}

	// Use the first choice (we always request N=1)
	choice := resp.Choices[0]

	return providers.CompletionResult{
		Content:          choice.Message.Content,
		Model:            resp.Model,
		TotalTokens:      resp.Usage.TotalTokens,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		FinishReason:     normalizeFinishReason(choice.FinishReason),
	}, nil
}

// visionToCompletion rewrites a vision request as a multi-part completion
// request with the image embedded as a base64 data URL.
func visionToCompletion(req providers.VisionRequest) providers.CompletionRequest {
	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = "image/png"
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(req.Image))

	return providers.CompletionRequest{
		Model: req.Model,
		Messages: []providers.Message{
			{
				Role: providers.RoleUser,
				Parts: []providers.ContentPart{
					{Type: providers.PartTypeText, Text: req.Prompt},
					{
						Type: providers.PartTypeImageURL,
						ImageURL: &providers.ImageURL{
							URL:    dataURL,
							Detail: req.Detail,
						},
					},
				},
			},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
}

// normalizeFinishReason normalizes OpenAI finish reasons to provider-agnostic values.
func normalizeFinishReason(reason string) string {
	switch reason {
	case "stop":
		return providers.FinishReasonStop
	case "length":
		return providers.FinishReasonLength
	case "content_filter":
		return providers.FinishReasonContentFilter
	default:
		return reason
	}
}
