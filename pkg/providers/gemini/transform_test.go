package gemini

import (
	"testing"

	"scribe-hq/vellum/pkg/providers"
)

func TestTransformMessage_Roles(t *testing.T) {
	tests := []struct {
		role string
		want string
	}{
		{providers.RoleUser, "user"},
		{providers.RoleAssistant, "model"},
		{providers.RoleSystem, "user"},
	}

	for _, tt := range tests {
		content := transformMessage(providers.Message{Role: tt.role, Content: "hi"})
		if content.Role != tt.want {
			t.Errorf("role %q mapped to %q, want %q", tt.role, content.Role, tt.want)
		}
	}
}

func TestDataURLToInlineData(t *testing.T) {
	inline, ok := dataURLToInlineData("data:image/jpeg;base64,Zm9v")
	if !ok {
		t.Fatal("expected data URL to parse")
	}
	if inline.MimeType != "image/jpeg" {
		t.Errorf("expected mime type image/jpeg, got %q", inline.MimeType)
	}
	if inline.Data != "Zm9v" {
		t.Errorf("expected data Zm9v, got %q", inline.Data)
	}

	if _, ok := dataURLToInlineData("https://example.com/cat.jpg"); ok {
		t.Error("expected remote URL to be rejected")
	}

	if _, ok := dataURLToInlineData("data:image/jpeg,raw-not-base64"); ok {
		t.Error("expected non-base64 data URL to be rejected")
	}
}

func TestTransformResponse_NoCandidates(t *testing.T) {
	_, err := transformResponse(&GeminiResponse{}, "gemini-1.5-flash")
	if err == nil {
		t.Fatal("expected error for response without candidates, got nil")
	}
}

func TestTransformResponse_ConcatenatesParts(t *testing.T) {
	resp := &GeminiResponse{
		Candidates: []GeminiCandidate{
			{
				Content: GeminiContent{
					Role: "model",
					Parts: []GeminiPart{
						{Text: "Hello"},
						{Text: ", world!"},
					},
				},
				FinishReason: "STOP",
			},
		},
	}

	result, err := transformResponse(resp, "gemini-1.5-flash")
	if err != nil {
		t.Fatalf("transformResponse failed: %v", err)
	}

	if result.Content != "Hello, world!" {
		t.Errorf("expected content %q, got %q", "Hello, world!", result.Content)
	}

	if result.Model != "gemini-1.5-flash" {
		t.Errorf("expected model gemini-1.5-flash, got %s", result.Model)
	}
}

func TestNormalizeFinishReason(t *testing.T) {
	tests := []struct {
		reason string
		want   string
	}{
		{"STOP", providers.FinishReasonStop},
		{"MAX_TOKENS", providers.FinishReasonLength},
		{"SAFETY", providers.FinishReasonContentFilter},
		{"PROHIBITED_CONTENT", providers.FinishReasonContentFilter},
		{"OTHER", "other"},
	}

	for _, tt := range tests {
		if got := normalizeFinishReason(tt.reason); got != tt.want {
			t.Errorf("normalizeFinishReason(%q) = %q, want %q", tt.reason, got, tt.want)
		}
	}
}
