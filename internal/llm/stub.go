package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// StubClient is a deterministic in-process Client for tests and dev runs.
// Responses are served by a handler function, or queued in FIFO order.
type StubClient struct {
	mu        sync.Mutex
	Handler   func(req Request) (json.RawMessage, error)
	queue     []json.RawMessage
	CallCount int
	Requests  []Request
}

// NewStubClient creates a stub that answers every call via handler.
func NewStubClient(handler func(req Request) (json.RawMessage, error)) *StubClient {
	return &StubClient{Handler: handler}
}

// Enqueue adds a canned response consumed by the next GenerateJSON call.
// Used instead of Handler for scripted sequences.
func (s *StubClient) Enqueue(raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, json.RawMessage(raw))
}

// Name returns the provider name
func (s *StubClient) Name() string {
	return "stub"
}

// IsAvailable always reports true for the stub
func (s *StubClient) IsAvailable(ctx context.Context) bool {
	return true
}

// GenerateJSON serves the handler response or the next queued payload.
func (s *StubClient) GenerateJSON(ctx context.Context, req Request) (json.RawMessage, error) {
	s.mu.Lock()
	s.CallCount++
	s.Requests = append(s.Requests, req)
	handler := s.Handler
	var queued json.RawMessage
	if handler == nil && len(s.queue) > 0 {
		queued = s.queue[0]
		s.queue = s.queue[1:]
	}
	s.mu.Unlock()

	if handler != nil {
		return handler(req)
	}
	if queued != nil {
		return queued, nil
	}
	return json.RawMessage("{}"), nil
}
