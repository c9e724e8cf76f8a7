package ollama

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"

	testhelpers "scribe-hq/vellum/internal/providers"
	"scribe-hq/vellum/pkg/providers"
)

func TestAdapter_Complete(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/api/generate", testhelpers.MockResponse{
		StatusCode: 200,
		Body:       testhelpers.MockOllamaResponse("Local response.", "llama3"),
	})

	adapter := New(Options{
		Retry:  testhelpers.TestRetryPolicy(1),
		Logger: testhelpers.TestLogger(),
	})
	defer adapter.Close()

	cred := testhelpers.TestKeylessCredential("ollama", mock.URL()+"/api")
	req := testhelpers.TestCompletionRequest("llama3",
		testhelpers.TestMessage(providers.RoleUser, "Hello"))

	result, err := adapter.Complete(context.Background(), cred, req)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if result.Content != "Local response." {
		t.Errorf("expected content %q, got %q", "Local response.", result.Content)
	}

	if result.Model != "llama3" {
		t.Errorf("expected model llama3, got %s", result.Model)
	}

	if result.Provider != "ollama" {
		t.Errorf("expected provider ollama, got %s", result.Provider)
	}

	if result.TotalTokens != 30 {
		t.Errorf("expected total tokens 30, got %d", result.TotalTokens)
	}

	if result.FinishReason != providers.FinishReasonStop {
		t.Errorf("expected finish reason %q, got %q", providers.FinishReasonStop, result.FinishReason)
	}

	captured := mock.LastRequest()
	if _, saw := captured.Header["Authorization"]; saw {
		t.Error("expected no Authorization header for local daemon")
	}

	var sent struct {
		Model   string `json:"model"`
		Prompt  string `json:"prompt"`
		Stream  bool   `json:"stream"`
		Options *struct {
			Temperature float64 `json:"temperature"`
			NumPredict  int     `json:"num_predict"`
		} `json:"options"`
	}
	if err := json.Unmarshal(captured.Body, &sent); err != nil {
		t.Fatalf("failed to decode captured request: %v", err)
	}

	if sent.Model != "llama3" {
		t.Errorf("expected model llama3, got %s", sent.Model)
	}
	if sent.Prompt != "Hello" {
		t.Errorf("expected prompt %q, got %q", "Hello", sent.Prompt)
	}
	if sent.Stream {
		t.Error("expected stream: false in request body")
	}
	if sent.Options == nil || sent.Options.Temperature != 0.7 || sent.Options.NumPredict != 100 {
		t.Errorf("unexpected options: %+v", sent.Options)
	}
}

func TestAdapter_StreamComplete(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/api/generate", testhelpers.MockResponse{
		StatusCode: 200,
		NDJSONLines: []string{
			testhelpers.MockOllamaStreamLine("Hel", false),
			testhelpers.MockOllamaStreamLine("lo", false),
			testhelpers.MockOllamaStreamLine("", true),
		},
	})

	adapter := New(Options{
		Retry:  testhelpers.TestRetryPolicy(1),
		Logger: testhelpers.TestLogger(),
	})
	defer adapter.Close()

	cred := testhelpers.TestKeylessCredential("ollama", mock.URL()+"/api")
	req := testhelpers.TestCompletionRequest("llama3",
		testhelpers.TestMessage(providers.RoleUser, "Hello"))

	var frames []providers.StreamFrame
	result, err := adapter.StreamComplete(context.Background(), cred, req, testhelpers.CollectFrames(&frames))
	if err != nil {
		t.Fatalf("StreamComplete failed: %v", err)
	}

	if result.Content != "Hello" {
		t.Errorf("expected content %q, got %q", "Hello", result.Content)
	}

	if !result.Streaming {
		t.Error("expected streaming result")
	}

	// Two delta frames plus the done line's terminal frame
	if len(frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(frames))
	}

	last := frames[len(frames)-1]
	if !last.Finished {
		t.Error("expected final frame to be marked finished")
	}
	if last.Accumulated != "Hello" {
		t.Errorf("expected accumulated %q, got %q", "Hello", last.Accumulated)
	}

	// The done line carries the run's token counts
	if result.TotalTokens != 30 {
		t.Errorf("expected total tokens 30, got %d", result.TotalTokens)
	}
	if result.FinishReason != providers.FinishReasonStop {
		t.Errorf("expected finish reason %q, got %q", providers.FinishReasonStop, result.FinishReason)
	}

	var sent struct {
		Stream bool `json:"stream"`
	}
	if err := json.Unmarshal(mock.LastRequest().Body, &sent); err != nil {
		t.Fatalf("failed to decode captured request: %v", err)
	}
	if !sent.Stream {
		t.Error("expected stream: true in request body")
	}
}

func TestAdapter_AnalyzeImage(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/api/generate", testhelpers.MockResponse{
		StatusCode: 200,
		Body:       testhelpers.MockOllamaResponse("A bar chart.", "llava"),
	})

	adapter := New(Options{
		Retry:  testhelpers.TestRetryPolicy(1),
		Logger: testhelpers.TestLogger(),
	})
	defer adapter.Close()

	cred := testhelpers.TestKeylessCredential("ollama", mock.URL()+"/api")
	req := providers.VisionRequest{
		Model:  "llava",
		Prompt: "What is in this image?",
		Image:  []byte("fake-image-data"),
	}

	result, err := adapter.AnalyzeImage(context.Background(), cred, req)
	if err != nil {
		t.Fatalf("AnalyzeImage failed: %v", err)
	}

	if result.Content != "A bar chart." {
		t.Errorf("expected content %q, got %q", "A bar chart.", result.Content)
	}

	// The image travels as a bare base64 string
	var sent struct {
		Prompt string   `json:"prompt"`
		Images []string `json:"images"`
	}
	if err := json.Unmarshal(mock.LastRequest().Body, &sent); err != nil {
		t.Fatalf("failed to decode captured request: %v", err)
	}

	if sent.Prompt != "What is in this image?" {
		t.Errorf("expected prompt %q, got %q", "What is in this image?", sent.Prompt)
	}

	if len(sent.Images) != 1 {
		t.Fatalf("expected 1 image, got %d", len(sent.Images))
	}

	decoded, err := base64.StdEncoding.DecodeString(sent.Images[0])
	if err != nil {
		t.Fatalf("failed to decode image payload: %v", err)
	}
	if string(decoded) != "fake-image-data" {
		t.Errorf("expected image payload %q, got %q", "fake-image-data", decoded)
	}
}

func TestAdapter_Ping(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/api/version", testhelpers.MockResponse{
		StatusCode: 200,
		Body:       map[string]interface{}{"version": "0.5.1"},
	})

	adapter := New(Options{
		Retry:  testhelpers.TestRetryPolicy(1),
		Logger: testhelpers.TestLogger(),
	})
	defer adapter.Close()

	cred := testhelpers.TestKeylessCredential("ollama", mock.URL()+"/api")
	if err := adapter.Ping(context.Background(), cred); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}
