package providers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testExecutor(provider string, retry RetryPolicy) *Executor {
	return NewExecutor(ExecutorConfig{
		Provider:  provider,
		UserAgent: "vellum-test/0.1",
		Timeout:   5 * time.Second,
		Retry:     retry,
		Logger:    testLogger(),
	})
}

func TestExecutor_DoJSON_Success(t *testing.T) {
	var gotAuth, gotAgent, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAgent = r.Header.Get("User-Agent")
		gotContentType = r.Header.Get("Content-Type")
		fmt.Fprint(w, `{"id":"resp-1","status":"ok"}`)
	}))
	defer srv.Close()

	exec := testExecutor("openai", RetryPolicy{MaxAttempts: 1})
	defer exec.Close()

	var out struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	err := exec.DoJSON(context.Background(), RequestSpec{
		Method:  http.MethodPost,
		BaseURL: srv.URL,
		Path:    "/chat/completions",
		Body:    []byte(`{"model":"gpt-4o-mini"}`),
		APIKey:  "sk-test",
	}, &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.ID != "resp-1" || out.Status != "ok" {
		t.Errorf("unexpected response: %+v", out)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}
	if gotAgent != "vellum-test/0.1" {
		t.Errorf("expected user agent, got %q", gotAgent)
	}
	if gotContentType != "application/json" {
		t.Errorf("expected json content type, got %q", gotContentType)
	}
}

func TestExecutor_DoJSON_NoAuthorizationWithoutKey(t *testing.T) {
	var sawAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawAuth = r.Header["Authorization"]
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	exec := testExecutor("deepseek", RetryPolicy{MaxAttempts: 1})
	defer exec.Close()

	err := exec.DoJSON(context.Background(), RequestSpec{
		Method:  http.MethodPost,
		BaseURL: srv.URL,
		Path:    "/chat/completions",
		Body:    []byte(`{}`),
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sawAuth {
		t.Error("expected no Authorization header for keyless request")
	}
}

func TestExecutor_DoJSON_ErrorBodyParsed(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{
			name:    "openai envelope",
			status:  400,
			body:    `{"error":{"message":"model not found","type":"invalid_request_error"}}`,
			message: "model not found",
		},
		{
			name:    "flat string error",
			status:  404,
			body:    `{"error":"model 'nope' not found"}`,
			message: "model 'nope' not found",
		},
		{
			name:    "raw body fallback",
			status:  502,
			body:    "Bad Gateway",
			message: "Bad Gateway",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			exec := testExecutor("openai", RetryPolicy{MaxAttempts: 1})
			defer exec.Close()

			err := exec.DoJSON(context.Background(), RequestSpec{
				Method:  http.MethodPost,
				BaseURL: srv.URL,
				Path:    "/chat/completions",
				Body:    []byte(`{}`),
			}, nil)

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %T: %v", err, err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, apiErr.StatusCode)
			}
			if apiErr.Message != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, apiErr.Message)
			}
			if apiErr.Provider != "openai" {
				t.Errorf("expected provider openai, got %q", apiErr.Provider)
			}
		})
	}
}

func TestExecutor_DoJSON_RetriesServerErrors(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"error":{"message":"upstream blew up"}}`)
			return
		}
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	exec := testExecutor("groq", RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond})
	defer exec.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	err := exec.DoJSON(context.Background(), RequestSpec{
		Method:  http.MethodPost,
		BaseURL: srv.URL,
		Path:    "/chat/completions",
		Body:    []byte(`{}`),
	}, &out)
	if err != nil {
		t.Fatalf("unexpected error after retries: %v", err)
	}
	if !out.OK {
		t.Error("expected decoded response after retries")
	}
	if got := requests.Load(); got != 3 {
		t.Errorf("expected 3 requests, got %d", got)
	}
}

func TestExecutor_DoJSON_AuthErrorSingleRequest(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"invalid api key"}}`)
	}))
	defer srv.Close()

	exec := testExecutor("openai", RetryPolicy{MaxAttempts: 5, BaseDelay: time.Millisecond})
	defer exec.Close()

	err := exec.DoJSON(context.Background(), RequestSpec{
		Method:  http.MethodPost,
		BaseURL: srv.URL,
		Path:    "/chat/completions",
		Body:    []byte(`{}`),
	}, nil)
	if !IsAuthError(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if got := requests.Load(); got != 1 {
		t.Errorf("expected exactly 1 request for auth error, got %d", got)
	}
}

func TestExecutor_DoJSON_RateLimitEventuallySucceeds(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) <= 3 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"error":{"message":"rate limit exceeded"}}`)
			return
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"OK"}}]}`)
	}))
	defer srv.Close()

	exec := testExecutor("openai", RetryPolicy{MaxAttempts: 4, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond})
	defer exec.Close()

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	err := exec.DoJSON(context.Background(), RequestSpec{
		Method:  http.MethodPost,
		BaseURL: srv.URL,
		Path:    "/chat/completions",
		Body:    []byte(`{}`),
	}, &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Choices) != 1 || out.Choices[0].Message.Content != "OK" {
		t.Errorf("unexpected response: %+v", out)
	}
	if got := requests.Load(); got != 4 {
		t.Errorf("expected 4 requests, got %d", got)
	}
}

func TestExecutor_DoJSON_RetryAfterStamped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"rate limit exceeded"}}`)
	}))
	defer srv.Close()

	exec := testExecutor("openai", RetryPolicy{MaxAttempts: 1})
	defer exec.Close()

	err := exec.DoJSON(context.Background(), RequestSpec{
		Method:  http.MethodPost,
		BaseURL: srv.URL,
		Path:    "/chat/completions",
		Body:    []byte(`{}`),
	}, nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if got := apiErr.RequestContext["retry_after"]; got != "2s" {
		t.Errorf("expected retry_after %q, got %q", "2s", got)
	}
}

func TestExecutor_DoJSON_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	exec := testExecutor("openai", RetryPolicy{MaxAttempts: 1})
	defer exec.Close()

	err := exec.DoJSON(context.Background(), RequestSpec{
		Method:  http.MethodPost,
		BaseURL: srv.URL,
		Path:    "/chat/completions",
		Body:    []byte(`{}`),
		Timeout: 50 * time.Millisecond,
	}, nil)
	if !IsTimeout(err) {
		t.Fatalf("expected timeout error, got %v", err)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != 0 {
		t.Errorf("expected status 0 for transport failure, got %d", apiErr.StatusCode)
	}
}

func TestExecutor_DoJSON_NetworkError(t *testing.T) {
	exec := testExecutor("ollama", RetryPolicy{MaxAttempts: 1})
	defer exec.Close()

	// Nothing listens on port 1.
	err := exec.DoJSON(context.Background(), RequestSpec{
		Method:  http.MethodPost,
		BaseURL: "http://127.0.0.1:1",
		Path:    "/generate",
		Body:    []byte(`{}`),
		Timeout: time.Second,
	}, nil)
	if !IsNetworkError(err) && !IsTimeout(err) {
		t.Fatalf("expected network or timeout error, got %v", err)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Provider != "ollama" {
		t.Errorf("expected provider ollama, got %q", apiErr.Provider)
	}
}

func TestExecutor_DoStream_SSE(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "text/event-stream" {
			t.Errorf("expected SSE accept header, got %q", got)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fl := w.(http.Flusher)
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hi\"}}]}\n\n")
		fl.Flush()
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\" there\"}}]}\n\n")
		fl.Flush()
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	exec := testExecutor("openai", RetryPolicy{MaxAttempts: 1})
	defer exec.Close()

	var deltas []string
	got, err := exec.DoStream(context.Background(), RequestSpec{
		Method:  http.MethodPost,
		BaseURL: srv.URL,
		Path:    "/chat/completions",
		Body:    []byte(`{"stream":true}`),
	}, FramingSSE, chatDelta, func(f StreamFrame) {
		if f.Delta != "" {
			deltas = append(deltas, f.Delta)
		}
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Hi there" {
		t.Errorf("expected %q, got %q", "Hi there", got)
	}
	if len(deltas) != 2 || deltas[0] != "Hi" || deltas[1] != " there" {
		t.Errorf("unexpected deltas: %v", deltas)
	}
}

func TestExecutor_DoStream_RetriesFailedRequest(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `{"error":{"message":"warming up"}}`)
			return
		}
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"ready\"}}]}\n\ndata: [DONE]\n\n")
	}))
	defer srv.Close()

	exec := testExecutor("openai", RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond})
	defer exec.Close()

	got, err := exec.DoStream(context.Background(), RequestSpec{
		Method:  http.MethodPost,
		BaseURL: srv.URL,
		Path:    "/chat/completions",
		Body:    []byte(`{"stream":true}`),
	}, FramingSSE, chatDelta, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ready" {
		t.Errorf("expected %q, got %q", "ready", got)
	}
	if got := requests.Load(); got != 2 {
		t.Errorf("expected 2 requests, got %d", got)
	}
}

func TestExecutor_DoStream_PartialTextOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fl := w.(http.Flusher)
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hi\"}}]}\n\n")
		fl.Flush()
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\" there\"}}]}\n\n")
		fl.Flush()
		// Hold the stream open until the client walks away.
		<-r.Context().Done()
	}))
	defer srv.Close()

	exec := testExecutor("openai", RetryPolicy{MaxAttempts: 1})
	defer exec.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got, err := exec.DoStream(ctx, RequestSpec{
		Method:  http.MethodPost,
		BaseURL: srv.URL,
		Path:    "/chat/completions",
		Body:    []byte(`{"stream":true}`),
	}, FramingSSE, chatDelta, func(f StreamFrame) {
		if f.Accumulated == "Hi there" {
			cancel()
		}
	})
	if err == nil {
		t.Fatal("expected error from aborted stream")
	}
	if !IsTimeout(err) {
		t.Errorf("expected abort to classify as timeout, got %v", err)
	}
	if got != "Hi there" {
		t.Errorf("expected partial text %q, got %q", "Hi there", got)
	}
}

func TestExecutor_DoStream_NDJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fl := w.(http.Flusher)
		fmt.Fprint(w, `{"response":"Hello","done":false}`+"\n")
		fl.Flush()
		fmt.Fprint(w, `{"response":" world","done":false}`+"\n")
		fl.Flush()
		fmt.Fprint(w, `{"response":"","done":true}`+"\n")
	}))
	defer srv.Close()

	exec := testExecutor("ollama", RetryPolicy{MaxAttempts: 1})
	defer exec.Close()

	got, err := exec.DoStream(context.Background(), RequestSpec{
		Method:  http.MethodPost,
		BaseURL: srv.URL,
		Path:    "/generate",
		Body:    []byte(`{"stream":true}`),
	}, FramingNDJSON, generateDelta, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Hello world" {
		t.Errorf("expected %q, got %q", "Hello world", got)
	}
}

func TestExecutor_Do_SingleAttempt(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":{"message":"nope"}}`)
	}))
	defer srv.Close()

	exec := testExecutor("openai", RetryPolicy{MaxAttempts: 5, BaseDelay: time.Millisecond})
	defer exec.Close()

	_, err := exec.Do(context.Background(), RequestSpec{
		Method:  http.MethodGet,
		BaseURL: srv.URL,
		Path:    "/models",
	})
	if !IsServerError(err) {
		t.Fatalf("expected server error, got %v", err)
	}
	if got := requests.Load(); got != 1 {
		t.Errorf("Do must not retry, got %d requests", got)
	}
}

func TestExecutor_Do_BodyReadableAfterReturn(t *testing.T) {
	// The body arrives in two chunks so part of the read happens after
	// Do has already returned.
	tail := bytes.Repeat([]byte("x"), 1<<20)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("0123456789"))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		w.Write(tail)
	}))
	defer srv.Close()

	exec := testExecutor("openai", RetryPolicy{MaxAttempts: 1})
	defer exec.Close()

	resp, err := exec.Do(context.Background(), RequestSpec{
		Method:  http.MethodGet,
		BaseURL: srv.URL,
		Path:    "/models",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body after Do returned: %v", err)
	}
	if len(data) != 10+len(tail) {
		t.Errorf("read %d bytes, want %d", len(data), 10+len(tail))
	}
}

func TestExecutor_Do_TimeoutBoundsBodyRead(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("partial"))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-release
	}))
	defer srv.Close()
	defer close(release)

	exec := testExecutor("openai", RetryPolicy{MaxAttempts: 1})
	defer exec.Close()

	resp, err := exec.Do(context.Background(), RequestSpec{
		Method:  http.MethodGet,
		BaseURL: srv.URL,
		Path:    "/models",
		Timeout: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if _, err := io.ReadAll(resp.Body); err == nil {
		t.Error("expected the attempt timeout to abort the stalled read")
	}
}

func TestJoinURL(t *testing.T) {
	tests := []struct {
		base string
		path string
		want string
	}{
		{"https://api.openai.com/v1", "/chat/completions", "https://api.openai.com/v1/chat/completions"},
		{"https://api.openai.com/v1/", "/chat/completions", "https://api.openai.com/v1/chat/completions"},
		{"http://localhost:11434/api", "generate", "http://localhost:11434/api/generate"},
		{"https://example.com", "/models/gemini:generateContent?key=abc", "https://example.com/models/gemini:generateContent?key=abc"},
		{"https://example.com", "", "https://example.com"},
	}
	for _, tt := range tests {
		if got := joinURL(tt.base, tt.path); got != tt.want {
			t.Errorf("joinURL(%q, %q) = %q, want %q", tt.base, tt.path, got, tt.want)
		}
	}
}

func TestParseRetryAfter(t *testing.T) {
	if got := parseRetryAfter("5"); got != 5*time.Second {
		t.Errorf("expected 5s, got %v", got)
	}
	if got := parseRetryAfter(""); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
	future := time.Now().Add(10 * time.Second).UTC().Format(http.TimeFormat)
	if got := parseRetryAfter(future); got <= 0 || got > 10*time.Second {
		t.Errorf("expected duration near 10s, got %v", got)
	}
}

func TestRedactQuery(t *testing.T) {
	if got := redactQuery("/models/gemini:generateContent?key=secret"); got != "/models/gemini:generateContent" {
		t.Errorf("expected query stripped, got %q", got)
	}
	if got := redactQuery("/chat/completions"); got != "/chat/completions" {
		t.Errorf("expected path unchanged, got %q", got)
	}
}
