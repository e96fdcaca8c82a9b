package mocks

import (
	"context"
	"sync"
)

// MockInferenceService is a mock implementation of InferenceService for testing
type MockInferenceService struct {
	mu         sync.Mutex
	GenerateFn func(ctx context.Context, prompt string) (string, error)
	Response   string
	prompts    []string
}

// NewMockInferenceService returns a service that always answers response
func NewMockInferenceService(response string) *MockInferenceService {
	return &MockInferenceService{Response: response}
}

func (m *MockInferenceService) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	fn := m.GenerateFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, prompt)
	}
	return m.Response, nil
}

func (m *MockInferenceService) Model() string {
	return "mock-llm"
}

func (m *MockInferenceService) HealthCheck(ctx context.Context) error {
	return nil
}

func (m *MockInferenceService) Close() error {
	return nil
}

// Prompts returns every prompt received, in order.
func (m *MockInferenceService) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}
