package providers

import (
	"io"
	"log/slog"
	"time"

	"scribe-hq/vellum/pkg/providers"
)

// TestCredential returns a resolved credential pointing at baseURL.
func TestCredential(provider, baseURL string) providers.Credential {
	return providers.Credential{
		Provider: provider,
		APIKey:   "test-key",
		BaseURL:  baseURL,
		AppID:    "vellum-test",
		Timeout:  5 * time.Second,
	}
}

// TestKeylessCredential returns a keyless non-commercial credential.
func TestKeylessCredential(provider, baseURL string) providers.Credential {
	cred := TestCredential(provider, baseURL)
	cred.APIKey = ""
	cred.Keyless = true
	return cred
}

// TestMessage creates a test message.
func TestMessage(role, content string) providers.Message {
	return providers.Message{
		Role:    role,
		Content: content,
	}
}

// TestCompletionRequest creates a test completion request.
func TestCompletionRequest(model string, messages ...providers.Message) providers.CompletionRequest {
	return providers.CompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   100,
	}
}

// TestRetryPolicy returns a fast retry policy for tests.
func TestRetryPolicy(maxAttempts int) providers.RetryPolicy {
	return providers.RetryPolicy{
		MaxAttempts: maxAttempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		Jitter:      0.2,
	}
}

// TestLogger returns a logger that discards all output.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// CollectFrames returns a StreamHandler that appends frames to dst.
func CollectFrames(dst *[]providers.StreamFrame) providers.StreamHandler {
	return func(f providers.StreamFrame) {
		*dst = append(*dst, f)
	}
}

// ConcatenateDeltas concatenates the delta text from all frames.
func ConcatenateDeltas(frames []providers.StreamFrame) string {
	var result string
	for _, f := range frames {
		result += f.Delta
	}
	return result
}
