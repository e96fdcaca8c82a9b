package mocks

import (
	"context"
	"sync"
)

// MockFileParser is a mock implementation of FileParser for testing
type MockFileParser struct {
	mu      sync.Mutex
	ParseFn func(ctx context.Context, path string) (string, error)
	Text    string
	paths   []string
}

func NewMockFileParser(text string) *MockFileParser {
	return &MockFileParser{Text: text}
}

func (m *MockFileParser) Parse(ctx context.Context, path string) (string, error) {
	m.mu.Lock()
	m.paths = append(m.paths, path)
	fn := m.ParseFn
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, path)
	}
	return m.Text, nil
}

// Paths returns every path passed to Parse.
func (m *MockFileParser) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.paths...)
}
