package gemini

import (
	"encoding/base64"
	"errors"
	"strings"

	"scribe-hq/vellum/pkg/providers"
)

// Gemini generateContent request/response types.

// GeminiRequest represents a Gemini generateContent request.
type GeminiRequest struct {
	Contents         []GeminiContent         `json:"contents"`
	GenerationConfig *GeminiGenerationConfig `json:"generationConfig,omitempty"`
}

// GeminiContent is one conversation turn.
type GeminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GeminiPart `json:"parts"`
}

// GeminiPart is one piece of turn content, either text or an inline blob.
type GeminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *GeminiInlineData `json:"inline_data,omitempty"`
}

// GeminiInlineData carries base64-encoded binary content.
type GeminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// GeminiGenerationConfig holds sampling parameters.
type GeminiGenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

// GeminiResponse represents a generateContent response. Streaming chunks
// use the same shape, one object per SSE event.
type GeminiResponse struct {
	Candidates    []GeminiCandidate    `json:"candidates"`
	UsageMetadata *GeminiUsageMetadata `json:"usageMetadata,omitempty"`
	ModelVersion  string               `json:"modelVersion,omitempty"`
}

// GeminiCandidate is one generated answer.
type GeminiCandidate struct {
	Content      GeminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

// GeminiUsageMetadata holds token accounting.
type GeminiUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// transformRequest converts a provider-agnostic request to Gemini format.
func transformRequest(req providers.CompletionRequest) *GeminiRequest {
	out := &GeminiRequest{
		Contents: make([]GeminiContent, 0, len(req.Messages)),
	}

	for _, msg := range req.Messages {
		out.Contents = append(out.Contents, transformMessage(msg))
	}

	if req.Temperature != 0 || req.TopP != 0 || req.MaxTokens != 0 {
		out.GenerationConfig = &GeminiGenerationConfig{
			Temperature:     req.Temperature,
			TopP:            req.TopP,
			MaxOutputTokens: req.MaxTokens,
		}
	}

	return out
}

// transformMessage maps one message onto Gemini's content shape. Gemini
// knows only user and model roles, so system prompts travel as user turns.
func transformMessage(msg providers.Message) GeminiContent {
	content := GeminiContent{Role: transformRole(msg.Role)}

	if len(msg.Parts) == 0 {
		content.Parts = []GeminiPart{{Text: msg.Content}}
		return content
	}

	for _, part := range msg.Parts {
		switch part.Type {
		case providers.PartTypeText:
			content.Parts = append(content.Parts, GeminiPart{Text: part.Text})
		case providers.PartTypeImageURL:
			if part.ImageURL == nil {
				continue
			}
			if inline, ok := dataURLToInlineData(part.ImageURL.URL); ok {
				content.Parts = append(content.Parts, GeminiPart{InlineData: inline})
			}
		}
	}

	return content
}

func transformRole(role string) string {
	if role == providers.RoleAssistant {
		return "model"
	}
	return "user"
}

// transformResponse converts a Gemini response to provider-agnostic format.
// The response itself does not echo the model, so the caller supplies it.
func transformResponse(resp *GeminiResponse, model string) (providers.CompletionResult, error) {
	if len(resp.Candidates) == 0 {
		return providers.CompletionResult{}, errors.New("no candidates in response")
	}

	candidate := resp.Candidates[0]
	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		text.WriteString(part.Text)
	}

	result := providers.CompletionResult{
		Content:      text.String(),
		Model:        model,
		FinishReason: normalizeFinishReason(candidate.FinishReason),
	}
	if resp.UsageMetadata != nil {
		result.TotalTokens = resp.UsageMetadata.TotalTokenCount
		result.PromptTokens = resp.UsageMetadata.PromptTokenCount
		result.CompletionTokens = resp.UsageMetadata.CandidatesTokenCount
	}

	return result, nil
}

// visionContents builds a single user turn carrying the prompt and the
// image as an inline base64 blob.
func visionContents(req providers.VisionRequest) []GeminiContent {
	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = "image/png"
	}

	return []GeminiContent{
		{
			Role: "user",
			Parts: []GeminiPart{
				{Text: req.Prompt},
				{InlineData: &GeminiInlineData{
					MimeType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(req.Image),
				}},
			},
		},
	}
}

// dataURLToInlineData unpacks a base64 data URL into Gemini's inline blob
// shape. The payload stays base64-encoded on the wire.
func dataURLToInlineData(url string) (*GeminiInlineData, bool) {
	rest, ok := strings.CutPrefix(url, "data:")
	if !ok {
		return nil, false
	}
	mimeType, data, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return nil, false
	}
	return &GeminiInlineData{MimeType: mimeType, Data: data}, true
}

// normalizeFinishReason normalizes Gemini finish reasons to
// provider-agnostic values.
func normalizeFinishReason(reason string) string {
	switch reason {
	case "STOP":
		return providers.FinishReasonStop
	case "MAX_TOKENS":
		return providers.FinishReasonLength
	case "SAFETY", "PROHIBITED_CONTENT", "BLOCKLIST":
		return providers.FinishReasonContentFilter
	default:
		return strings.ToLower(reason)
	}
}
