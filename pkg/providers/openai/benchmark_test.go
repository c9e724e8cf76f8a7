package openai

import (
	"context"
	"testing"

	testhelpers "scribe-hq/vellum/internal/providers"
	"scribe-hq/vellum/pkg/providers"
)

func BenchmarkAdapter_Complete(b *testing.B) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/chat/completions", testhelpers.MockResponse{
		StatusCode: 200,
		Body:       testhelpers.MockChatResponse("Hello, world!", "gpt-4o"),
	})

	adapter := New(Options{
		Retry:  testhelpers.TestRetryPolicy(1),
		Logger: testhelpers.TestLogger(),
	})
	defer adapter.Close()

	cred := testhelpers.TestCredential("openai", mock.URL())
	req := testhelpers.TestCompletionRequest("gpt-4o",
		testhelpers.TestMessage(providers.RoleUser, "Hello"))

	ctx := context.Background()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := adapter.Complete(ctx, cred, req); err != nil {
			b.Fatalf("Complete failed: %v", err)
		}
	}
}

func BenchmarkRequestTransformation(b *testing.B) {
	req := providers.CompletionRequest{
		Model: "gpt-4o",
		Messages: []providers.Message{
			{Role: providers.RoleSystem, Content: "You are a helpful assistant"},
			{Role: providers.RoleUser, Content: "Hello"},
		},
		Temperature: 0.7,
		MaxTokens:   100,
	}

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = transformRequest(req)
	}
}

func BenchmarkResponseTransformation(b *testing.B) {
	resp := &OpenAIResponse{
		ID:      "chatcmpl-123",
		Object:  "chat.completion",
		Created: 1234567890,
		Model:   "gpt-4o",
		Choices: []OpenAIChoice{
			{
				Index: 0,
				Message: OpenAIChoiceMessage{
					Role:    "assistant",
					Content: "Hello, world!",
				},
				FinishReason: "stop",
			},
		},
		Usage: OpenAIUsage{
			PromptTokens:     10,
			CompletionTokens: 20,
			TotalTokens:      30,
		},
	}

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := transformResponse(resp); err != nil {
			b.Fatalf("transformResponse failed: %v", err)
		}
	}
}
