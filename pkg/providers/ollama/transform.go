package ollama

import (
	"strings"

	"scribe-hq/vellum/pkg/providers"
)

// Ollama generate request/response types.

// OllamaRequest represents an Ollama generate request. Stream has no
// omitempty because the daemon defaults to streaming and false must go
// out explicitly.
type OllamaRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options *OllamaOptions `json:"options,omitempty"`
	Images  []string       `json:"images,omitempty"`
}

// OllamaOptions holds sampling parameters.
type OllamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	TopP        float64 `json:"top_p,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// OllamaResponse represents a generate response. Streaming sends one of
// these per NDJSON line, with done marking the final line.
type OllamaResponse struct {
	Model           string `json:"model"`
	CreatedAt       string `json:"created_at"`
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	DoneReason      string `json:"done_reason,omitempty"`
	PromptEvalCount int    `json:"prompt_eval_count,omitempty"`
	EvalCount       int    `json:"eval_count,omitempty"`
}

// transformRequest converts a provider-agnostic request to Ollama format.
func transformRequest(req providers.CompletionRequest) *OllamaRequest {
	prompt, images := flattenMessages(req.Messages)

	out := &OllamaRequest{
		Model:  req.Model,
		Prompt: prompt,
		Stream: req.Stream,
		Images: images,
	}

	if req.Temperature != 0 || req.TopP != 0 || req.MaxTokens != 0 {
		out.Options = &OllamaOptions{
			Temperature: req.Temperature,
			TopP:        req.TopP,
			NumPredict:  req.MaxTokens,
		}
	}

	return out
}

// flattenMessages renders the conversation as a single prompt, since the
// generate endpoint has no message structure. Image parts are collected
// into the images array for multimodal models.
func flattenMessages(messages []providers.Message) (string, []string) {
	var prompt strings.Builder
	var images []string

	for _, msg := range messages {
		text := msg.Content
		if len(msg.Parts) > 0 {
			var pieces []string
			for _, part := range msg.Parts {
				switch part.Type {
				case providers.PartTypeText:
					if part.Text != "" {
						pieces = append(pieces, part.Text)
					}
				case providers.PartTypeImageURL:
					if part.ImageURL == nil {
						continue
					}
					if data, ok := dataURLPayload(part.ImageURL.URL); ok {
						images = append(images, data)
					}
				}
			}
			text = strings.Join(pieces, "\n")
		}

		if text == "" {
			continue
		}
		if prompt.Len() > 0 {
			prompt.WriteString("\n\n")
		}
		prompt.WriteString(text)
	}

	return prompt.String(), images
}

// dataURLPayload extracts the base64 payload from a data URL. Ollama
// takes images as bare base64 strings.
func dataURLPayload(url string) (string, bool) {
	rest, ok := strings.CutPrefix(url, "data:")
	if !ok {
		return "", false
	}
	_, data, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return "", false
	}
	return data, true
}

// transformResponse converts an Ollama response to provider-agnostic
// format. Token totals are best-effort: the daemon omits counts when the
// model is still loading.
func transformResponse(resp *OllamaResponse) providers.CompletionResult {
	return providers.CompletionResult{
		Content:          resp.Response,
		Model:            resp.Model,
		TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
		PromptTokens:     resp.PromptEvalCount,
		CompletionTokens: resp.EvalCount,
		FinishReason:     normalizeDoneReason(resp.DoneReason),
	}
}

// normalizeDoneReason normalizes Ollama done reasons to provider-agnostic
// values.
func normalizeDoneReason(reason string) string {
	switch reason {
	case "stop":
		return providers.FinishReasonStop
	case "length":
		return providers.FinishReasonLength
	default:
		return reason
	}
}
