package routing

import (
	"context"
	"sync"

	"scribe-hq/vellum/pkg/providers"
)

// MockAdapter is a scriptable providers.Adapter for router tests. It
// records every call it receives, including the credential it was given,
// so tests can assert on routing and credential-resolution decisions
// without any HTTP.
type MockAdapter struct {
	mu sync.Mutex

	name string

	// Result is returned from Complete and AnalyzeImage.
	Result providers.CompletionResult

	// Frames is emitted by StreamComplete, one onFrame call per entry.
	Frames []string

	// Err fails every call when set.
	Err error

	// StreamErr aborts StreamComplete after Frames are delivered. The
	// partial result (accumulated frames) is returned alongside it.
	StreamErr error

	// PingErr fails Ping when set.
	PingErr error

	calls  []Call
	closed bool
}

// Call records one adapter invocation.
type Call struct {
	// Method is "complete", "stream", "vision", or "ping".
	Method string

	// Credential is the credential the call carried.
	Credential providers.Credential

	// Request is the completion request, zero for vision and ping calls.
	Request providers.CompletionRequest

	// Vision is the vision request, zero otherwise.
	Vision providers.VisionRequest
}

// NewMockAdapter creates a mock adapter answering as the named backend.
func NewMockAdapter(name string) *MockAdapter {
	return &MockAdapter{
		name: name,
		Result: providers.CompletionResult{
			Content:  "mock response",
			Provider: name,
		},
	}
}

// Name returns the backend identifier.
func (m *MockAdapter) Name() string {
	return m.name
}

// Complete records the call and returns the scripted result.
func (m *MockAdapter) Complete(ctx context.Context, cred providers.Credential, req providers.CompletionRequest) (providers.CompletionResult, error) {
	m.record(Call{Method: "complete", Credential: cred, Request: req})
	if m.Err != nil {
		return providers.CompletionResult{}, m.Err
	}
	result := m.Result
	result.Model = req.Model
	return result, nil
}

// StreamComplete records the call, emits the scripted frames, and returns
// the accumulated text. A scripted StreamErr aborts after the frames with
// the partial result preserved.
func (m *MockAdapter) StreamComplete(ctx context.Context, cred providers.Credential, req providers.CompletionRequest, onFrame providers.StreamHandler) (providers.CompletionResult, error) {
	m.record(Call{Method: "stream", Credential: cred, Request: req})
	if m.Err != nil {
		return providers.CompletionResult{}, m.Err
	}

	var accumulated string
	for _, delta := range m.Frames {
		accumulated += delta
		onFrame(providers.StreamFrame{Delta: delta, Accumulated: accumulated})
	}

	result := providers.CompletionResult{
		Content:   accumulated,
		Model:     req.Model,
		Provider:  m.name,
		Streaming: true,
	}
	if m.StreamErr != nil {
		result.Err = m.StreamErr
		return result, m.StreamErr
	}

	onFrame(providers.StreamFrame{Accumulated: accumulated, Finished: true})
	return result, nil
}

// AnalyzeImage records the call and returns the scripted result.
func (m *MockAdapter) AnalyzeImage(ctx context.Context, cred providers.Credential, req providers.VisionRequest) (providers.CompletionResult, error) {
	m.record(Call{Method: "vision", Credential: cred, Vision: req})
	if m.Err != nil {
		return providers.CompletionResult{}, m.Err
	}
	result := m.Result
	result.Model = req.Model
	return result, nil
}

// Ping records the call and returns the scripted probe outcome.
func (m *MockAdapter) Ping(ctx context.Context, cred providers.Credential) error {
	m.record(Call{Method: "ping", Credential: cred})
	return m.PingErr
}

// Close marks the adapter closed.
func (m *MockAdapter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Calls returns a copy of the recorded calls.
func (m *MockAdapter) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// LastCall returns the most recent recorded call and whether one exists.
func (m *MockAdapter) LastCall() (Call, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return Call{}, false
	}
	return m.calls[len(m.calls)-1], true
}

// CallCount returns how many calls the adapter has received.
func (m *MockAdapter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Closed reports whether Close was called.
func (m *MockAdapter) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *MockAdapter) record(call Call) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}
