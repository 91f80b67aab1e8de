package llm

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MockResponse is a canned response for the MockProvider.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error

	// Delay holds the reply back, simulating a slow classifier. The wait
	// ends early if the call's context is done.
	Delay time.Duration
}

// MockProvider is a deterministic Provider for testing.
// It returns canned responses in FIFO order and records all requests.
// Responses registered with On are served only to requests whose schema
// has that name, which keeps concurrent stages deterministic.
type MockProvider struct {
	mu        sync.Mutex
	responses []MockResponse
	bySchema  map[string][]MockResponse
	Calls     []Request
}

// NewMockProvider creates a MockProvider with the given canned responses.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses, bySchema: make(map[string][]MockResponse)}
}

// On queues responses for requests that carry the named schema.
func (m *MockProvider) On(schemaName string, responses ...MockResponse) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bySchema[schemaName] = append(m.bySchema[schemaName], responses...)
	return m
}

// Generate returns the next canned response or ErrProviderUnavailable if
// the queue is empty.
func (m *MockProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	resp, ok := m.next(req)
	if !ok {
		return nil, &ErrProviderUnavailable{Err: nil}
	}

	if resp.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(resp.Delay):
		}
	}

	if resp.Err != nil {
		return nil, resp.Err
	}

	// Mirror the real providers: schema'd requests get validated JSON.
	content, err := normalizeJSON(req.Schema, resp.Content)
	if err != nil {
		return nil, err
	}

	return &Response{
		Content:    content,
		Usage:      resp.Usage,
		Model:      "mock",
		StopReason: "end",
	}, nil
}

func (m *MockProvider) next(req Request) (MockResponse, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	if req.Schema != nil {
		if q := m.bySchema[req.Schema.Name]; len(q) > 0 {
			m.bySchema[req.Schema.Name] = q[1:]
			return q[0], true
		}
	}
	if len(m.responses) == 0 {
		return MockResponse{}, false
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	return resp, true
}

// ModelID returns "mock".
func (m *MockProvider) ModelID() string {
	return "mock"
}

// AddResponse appends a canned response to the queue.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// CallCount returns the number of Generate calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
