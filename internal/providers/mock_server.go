package providers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockServer is a mock HTTP server for testing backend adapters.
// It simulates completion endpoints of every supported provider family,
// including SSE and NDJSON streaming, error responses, and slow responses.
type MockServer struct {
	server       *httptest.Server
	responses    map[string]MockResponse
	requestCount int
	lastRequest  *CapturedRequest
	mu           sync.Mutex
}

// MockResponse defines a mock response configuration.
type MockResponse struct {
	StatusCode int
	Body       interface{}
	Delay      time.Duration
	Headers    map[string]string

	// StreamChunks are served as SSE data lines followed by [DONE]
	StreamChunks []string

	// NDJSONLines are served as raw newline-delimited JSON, no terminator
	NDJSONLines []string
}

// CapturedRequest records what the adapter actually sent.
type CapturedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

// NewMockServer creates a new mock server.
func NewMockServer() *MockServer {
	ms := &MockServer{
		responses: make(map[string]MockResponse),
	}
	ms.server = httptest.NewServer(http.HandlerFunc(ms.handler))
	return ms
}

// URL returns the mock server's base URL.
func (ms *MockServer) URL() string {
	return ms.server.URL
}

// Close closes the mock server.
func (ms *MockServer) Close() {
	ms.server.Close()
}

// SetResponse sets a mock response for a specific endpoint path.
func (ms *MockServer) SetResponse(path string, response MockResponse) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.responses[path] = response
}

// GetRequestCount returns the number of requests received.
func (ms *MockServer) GetRequestCount() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.requestCount
}

// ResetRequestCount resets the request counter.
func (ms *MockServer) ResetRequestCount() {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.requestCount = 0
}

// LastRequest returns the most recently received request, or nil.
func (ms *MockServer) LastRequest() *CapturedRequest {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.lastRequest
}

// handler handles incoming HTTP requests.
func (ms *MockServer) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	ms.mu.Lock()
	ms.requestCount++
	ms.lastRequest = &CapturedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Header: r.Header.Clone(),
		Body:   body,
	}
	response, ok := ms.responses[r.URL.Path]
	ms.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	if response.Delay > 0 {
		select {
		case <-r.Context().Done():
			return
		case <-time.After(response.Delay):
		}
	}

	for key, value := range response.Headers {
		w.Header().Set(key, value)
	}

	if len(response.StreamChunks) > 0 {
		ms.handleSSE(w, response)
		return
	}
	if len(response.NDJSONLines) > 0 {
		ms.handleNDJSON(w, response)
		return
	}

	w.WriteHeader(response.StatusCode)
	if response.Body != nil {
		switch v := response.Body.(type) {
		case string:
			_, _ = w.Write([]byte(v))
		case []byte:
			_, _ = w.Write(v)
		default:
			_ = json.NewEncoder(w).Encode(response.Body)
		}
	}
}

// handleSSE serves the chunks as Server-Sent Events closed by [DONE].
func (ms *MockServer) handleSSE(w http.ResponseWriter, response MockResponse) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	for _, chunk := range response.StreamChunks {
		fmt.Fprintf(w, "data: %s\n\n", chunk)
		flusher.Flush()
	}

	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

// handleNDJSON serves the lines as newline-delimited JSON.
func (ms *MockServer) handleNDJSON(w http.ResponseWriter, response MockResponse) {
	w.Header().Set("Content-Type", "application/x-ndjson")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	for _, line := range response.NDJSONLines {
		fmt.Fprintf(w, "%s\n", line)
		flusher.Flush()
	}
}

// MockChatResponse creates an OpenAI-compatible chat completion response.
func MockChatResponse(content string, model string) map[string]interface{} {
	return map[string]interface{}{
		"id":      "chatcmpl-123",
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   model,
		"choices": []map[string]interface{}{
			{
				"index": 0,
				"message": map[string]interface{}{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]interface{}{
			"prompt_tokens":     10,
			"completion_tokens": 20,
			"total_tokens":      30,
		},
	}
}

// MockChatStreamChunk creates an OpenAI-compatible streaming chunk.
func MockChatStreamChunk(delta string, finishReason string) string {
	chunk := map[string]interface{}{
		"id":      "chatcmpl-123",
		"object":  "chat.completion.chunk",
		"created": time.Now().Unix(),
		"model":   "gpt-4o-mini",
		"choices": []map[string]interface{}{
			{
				"index": 0,
				"delta": map[string]interface{}{
					"content": delta,
				},
				"finish_reason": finishReason,
			},
		},
	}

	bytes, _ := json.Marshal(chunk)
	return string(bytes)
}

// MockGeminiResponse creates a Gemini generateContent response.
func MockGeminiResponse(text string) map[string]interface{} {
	return map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content": map[string]interface{}{
					"parts": []map[string]interface{}{
						{"text": text},
					},
					"role": "model",
				},
				"finishReason": "STOP",
			},
		},
		"usageMetadata": map[string]interface{}{
			"promptTokenCount":     10,
			"candidatesTokenCount": 20,
			"totalTokenCount":      30,
		},
	}
}

// MockGeminiStreamChunk creates one Gemini streamGenerateContent SSE chunk.
func MockGeminiStreamChunk(text string) string {
	chunk := map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content": map[string]interface{}{
					"parts": []map[string]interface{}{
						{"text": text},
					},
					"role": "model",
				},
			},
		},
	}

	bytes, _ := json.Marshal(chunk)
	return string(bytes)
}

// MockOllamaResponse creates an Ollama generate response.
func MockOllamaResponse(text string, model string) map[string]interface{} {
	return map[string]interface{}{
		"model":             model,
		"created_at":        time.Now().Format(time.RFC3339),
		"response":          text,
		"done":              true,
		"done_reason":       "stop",
		"prompt_eval_count": 10,
		"eval_count":        20,
	}
}

// MockOllamaStreamLine creates one Ollama NDJSON stream line.
func MockOllamaStreamLine(text string, done bool) string {
	line := map[string]interface{}{
		"model":      "llama3",
		"created_at": time.Now().Format(time.RFC3339),
		"response":   text,
		"done":       done,
	}
	if done {
		line["done_reason"] = "stop"
		line["prompt_eval_count"] = 10
		line["eval_count"] = 20
	}

	bytes, _ := json.Marshal(line)
	return string(bytes)
}

// MockErrorResponse creates an OpenAI-style error response.
func MockErrorResponse(statusCode int, message string) MockResponse {
	body := map[string]interface{}{
		"error": map[string]interface{}{
			"message": message,
			"type":    "invalid_request_error",
			"code":    statusCode,
		},
	}

	return MockResponse{
		StatusCode: statusCode,
		Body:       body,
	}
}

// MockAuthError creates a 401 authentication error response.
func MockAuthError() MockResponse {
	return MockErrorResponse(http.StatusUnauthorized, "Invalid API key")
}

// MockRateLimitError creates a 429 rate limit error response.
func MockRateLimitError(retryAfter int) MockResponse {
	response := MockErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded")
	response.Headers = map[string]string{
		"Retry-After": fmt.Sprintf("%d", retryAfter),
	}
	return response
}

// MockServerError creates a 500 internal server error response.
func MockServerError() MockResponse {
	return MockErrorResponse(http.StatusInternalServerError, "Internal server error")
}

// MockModelsResponse creates an OpenAI-compatible model list response.
func MockModelsResponse(models ...string) map[string]interface{} {
	data := make([]map[string]interface{}, len(models))
	for i, m := range models {
		data[i] = map[string]interface{}{
			"id":     m,
			"object": "model",
		}
	}
	return map[string]interface{}{
		"object": "list",
		"data":   data,
	}
}
