package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/funayamateppei/local-rag-comparator/internal/core/domain"
)

// MockPromptRepository is an in-memory PromptRepository for testing
type MockPromptRepository struct {
	mu      sync.RWMutex
	prompts map[domain.PromptType]domain.PromptTemplate
}

// NewMockPromptRepository creates a repository preloaded with an
// entity_extraction prompt that uses {{text}} and {{language}}.
func NewMockPromptRepository() *MockPromptRepository {
	m := &MockPromptRepository{prompts: make(map[domain.PromptType]domain.PromptTemplate)}
	p, _ := domain.NewPromptTemplate("entity_extraction",
		"Extract entities ({{language}}):\n{{text}}", "1.0", []string{"text", "language"})
	m.prompts[domain.PromptEntityExtraction] = p
	return m
}

func (m *MockPromptRepository) Load(ctx context.Context, promptType domain.PromptType) (domain.PromptTemplate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.prompts[promptType]
	if !ok {
		return domain.PromptTemplate{}, fmt.Errorf("%w: %s", domain.ErrPromptNotFound, promptType)
	}
	return p, nil
}

// Set replaces the template for a prompt type.
func (m *MockPromptRepository) Set(promptType domain.PromptType, p domain.PromptTemplate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts[promptType] = p
}

// Remove deletes the template for a prompt type.
func (m *MockPromptRepository) Remove(promptType domain.PromptType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.prompts, promptType)
}
