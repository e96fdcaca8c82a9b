package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/funayamateppei/local-rag-comparator/internal/core/domain"
)

// MockDocumentRepository is an in-memory DocumentRepository for testing.
// It stores snapshots so later mutations of a saved document are not visible.
type MockDocumentRepository struct {
	mu        sync.RWMutex
	documents map[string]domain.DocumentSnapshot
	history   []domain.DocumentStatus
	saveErr   error
	failOn    domain.DocumentStatus

	findAllCalls int
}

// NewMockDocumentRepository creates a new MockDocumentRepository
func NewMockDocumentRepository() *MockDocumentRepository {
	return &MockDocumentRepository{
		documents: make(map[string]domain.DocumentSnapshot),
	}
}

func (m *MockDocumentRepository) Save(ctx context.Context, doc *domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil && (m.failOn == "" || m.failOn == doc.Status()) {
		return m.saveErr
	}
	m.documents[doc.ID()] = doc.Snapshot()
	m.history = append(m.history, doc.Status())
	return nil
}

func (m *MockDocumentRepository) FindByID(ctx context.Context, id string) (*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return domain.RestoreDocument(s)
}

func (m *MockDocumentRepository) FindAll(ctx context.Context) ([]*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findAllCalls++
	docs := make([]*domain.Document, 0, len(m.documents))
	for _, s := range m.documents {
		doc, err := domain.RestoreDocument(s)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt().After(docs[j].CreatedAt())
	})
	return docs, nil
}

func (m *MockDocumentRepository) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.documents), nil
}

// Helper methods for testing

// SetSaveError makes Save fail. With a status, only saves in that status fail.
func (m *MockDocumentRepository) SetSaveError(err error, status domain.DocumentStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
	m.failOn = status
}

// History returns the status of every successful save, in order.
func (m *MockDocumentRepository) History() []domain.DocumentStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.DocumentStatus(nil), m.history...)
}

// Len returns the number of stored documents
func (m *MockDocumentRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.documents)
}

// FindAllCalls returns how many times FindAll was called
func (m *MockDocumentRepository) FindAllCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.findAllCalls
}
