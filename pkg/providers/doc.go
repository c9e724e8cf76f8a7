// Package providers implements the resilient completion core shared by all
// backend adapters: the error taxonomy, the retry policy, the stream
// decoder, and the HTTP request executor.
//
// # Overview
//
// Every supported backend (OpenAI, DeepSeek, Groq, Gemini, Ollama) has an
// adapter package built on this core. The core owns everything that is the
// same across backends (failure classification, backoff, incremental
// stream decoding, connection pooling), while the adapters own only the
// wire formats.
//
// # Architecture
//
// The package is organized into layers, leaves first:
//
//  1. Error taxonomy - one concrete APIError with an ErrorKind tag and pure
//     classification predicates (IsAuthError, IsRateLimitError, ...)
//  2. RetryPolicy - exponential backoff with jitter; pure control flow,
//     knows nothing about HTTP
//  3. StreamDecoder - incremental SSE/NDJSON frame decoding tolerant of
//     arbitrary chunk boundaries
//  4. Executor - one HTTP request pipeline per backend: default headers,
//     per-attempt timeouts, retries, error normalization, stream handoff
//  5. Adapter - the contract backend packages implement
//
// # Basic Usage
//
// Adapters are constructed once and receive a resolved Credential on every
// call; they never read ambient configuration:
//
//	adapter := openai.New(openai.Options{UserAgent: "vellum/0.1"})
//	defer adapter.Close()
//
//	cred := providers.Credential{
//	    Provider: "openai",
//	    APIKey:   os.Getenv("OPENAI_API_KEY"),
//	    BaseURL:  "https://api.openai.com/v1",
//	}
//
//	result, err := adapter.Complete(ctx, cred, providers.CompletionRequest{
//	    Model: "gpt-4o-mini",
//	    Messages: []providers.Message{
//	        {Role: providers.RoleUser, Content: "Hello!"},
//	    },
//	})
//	if err != nil {
//	    log.Fatal(providers.FriendlyMessage(err))
//	}
//	fmt.Println(result.Content)
//
// # Streaming
//
// Streaming calls deliver frames through a synchronous callback, strictly
// in order. When the stream is aborted mid-flight the returned result still
// carries the text accumulated so far, next to a non-nil error:
//
//	result, err := adapter.StreamComplete(ctx, cred, req,
//	    func(frame providers.StreamFrame) {
//	        fmt.Print(frame.Delta)
//	    })
//	if err != nil && result.Content != "" {
//	    // Partial output survived the abort.
//	}
//
// # Error Handling
//
// Every error raised by the core is an *APIError carrying the provider
// name, the error kind, and the HTTP status (0 when the failure happened
// below HTTP). Classify with the predicates rather than inspecting fields:
//
//	result, err := adapter.Complete(ctx, cred, req)
//	switch {
//	case providers.IsAuthError(err):
//	    // Never retried. Check the API key.
//	case providers.IsRateLimitError(err):
//	    // Retried with backoff before surfacing.
//	case providers.IsRetryable(err):
//	    // Transient: server, timeout, or network failure.
//	}
//
// FriendlyMessage maps any error to a human-readable string, with
// provider-specific overrides for well-known failure messages.
//
// # Thread Safety
//
// Adapters and the Executor are safe for concurrent use. The only shared
// state is the pooled HTTP client; request state lives on the call stack.
package providers
