// Package openai implements the OpenAI provider adapter.
//
// This package provides an implementation of the providers.Adapter interface
// for OpenAI's chat completions API. It supports:
//
//   - Chat completions
//   - Streaming responses (Server-Sent Events)
//   - Image analysis via multi-part messages
//   - Token usage tracking
//
// # Basic Usage
//
//	adapter := openai.New(openai.Options{
//	    UserAgent: "vellum/0.4",
//	})
//	defer adapter.Close()
//
//	cred := providers.Credential{
//	    Provider: "openai",
//	    APIKey:   os.Getenv("OPENAI_API_KEY"),
//	    BaseURL:  "https://api.openai.com/v1",
//	}
//
//	req := providers.CompletionRequest{
//	    Model: "gpt-4o",
//	    Messages: []providers.Message{
//	        {Role: providers.RoleUser, Content: "Hello!"},
//	    },
//	}
//
//	result, err := adapter.Complete(context.Background(), cred, req)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Content)
//
// # Streaming
//
//	result, err := adapter.StreamComplete(ctx, cred, req, func(frame providers.StreamFrame) {
//	    fmt.Print(frame.Delta)
//	})
//
// When a stream is aborted mid-flight the returned result still carries the
// text accumulated up to the failure, alongside the error.
//
// # Compatible Backends
//
// The adapter works against any backend that speaks OpenAI's chat completions
// wire format. The deepseek and groq packages wrap it with their own backend
// name and headers rather than reimplementing the protocol:
//
//	adapter := openai.New(openai.Options{
//	    Name:    "groq",
//	    Headers: groqHeaders,
//	})
//
// # Request Transformation
//
// The adapter transforms provider-agnostic requests to OpenAI's format:
//
//   - Plain messages marshal content as a string
//   - Multi-part messages marshal content as a part array (text, image_url)
//   - Vision requests become a single user message with the image embedded
//     as a base64 data URL
//
// # Error Handling
//
// All failures surface as *providers.APIError with a classified kind:
//
//   - 401/403 -> auth (never retried)
//   - 429 -> rate_limit (retried, honoring Retry-After)
//   - 5xx -> server (retried)
//   - content policy rejections -> content_policy (never retried)
package openai
