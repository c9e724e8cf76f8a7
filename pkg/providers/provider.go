package providers

import "context"

// Adapter is the contract every backend adapter implements. It translates
// provider-agnostic requests into one backend's wire format and extracts
// generated text from that backend's response shapes.
//
// Adapters hold no credentials: the resolved Credential for the call is
// passed in every time, so configuration can change between calls without
// touching the adapter. All methods respect context cancellation and
// return immediately when the context is cancelled.
//
// Example usage:
//
//	adapter := openai.New(openai.Options{Logger: logger})
//	defer adapter.Close()
//
//	result, err := adapter.Complete(ctx, cred, providers.CompletionRequest{
//	    Model: "gpt-4o-mini",
//	    Messages: []providers.Message{
//	        {Role: providers.RoleUser, Content: "Hello!"},
//	    },
//	})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(result.Content)
type Adapter interface {
	// Name returns the backend identifier (e.g. "openai", "ollama").
	Name() string

	// Complete sends a non-streaming completion request and returns the
	// normalized result. Transient failures are retried per the adapter's
	// retry policy; the terminal error is always an *APIError.
	Complete(ctx context.Context, cred Credential, req CompletionRequest) (CompletionResult, error)

	// StreamComplete sends a streaming completion request, invoking
	// onFrame synchronously for each decoded frame. When the stream is
	// aborted mid-flight the returned result still carries the text
	// accumulated so far, alongside a non-nil error.
	StreamComplete(ctx context.Context, cred Credential, req CompletionRequest, onFrame StreamHandler) (CompletionResult, error)

	// AnalyzeImage sends a vision request with the image embedded as
	// base64 data and returns the model's description.
	AnalyzeImage(ctx context.Context, cred Credential, req VisionRequest) (CompletionResult, error)

	// Ping performs a lightweight reachability probe against the backend.
	// It returns nil when the backend answers, or an *APIError describing
	// why it did not.
	Ping(ctx context.Context, cred Credential) error

	// Close releases pooled connections. The adapter must not be used
	// after Close.
	Close() error
}
