package mocks

import (
	"context"
	"sync"

	"github.com/funayamateppei/local-rag-comparator/internal/core/domain"
)

// StoredEmbeddings records one StoreEmbeddings call
type StoredEmbeddings struct {
	DocumentID string
	Chunks     []string
	Vectors    [][]float32
}

// MockVectorRepository is a mock implementation of VectorRepository for testing
type MockVectorRepository struct {
	mu       sync.Mutex
	StoreErr error
	SearchFn func(ctx context.Context, queryVector []float32, topK int) ([]domain.QueryResult, error)
	stored   []StoredEmbeddings
	searches int
}

func NewMockVectorRepository() *MockVectorRepository {
	return &MockVectorRepository{}
}

func (m *MockVectorRepository) StoreEmbeddings(ctx context.Context, documentID string, chunks []string, vectors [][]float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StoreErr != nil {
		return m.StoreErr
	}
	m.stored = append(m.stored, StoredEmbeddings{
		DocumentID: documentID,
		Chunks:     append([]string(nil), chunks...),
		Vectors:    append([][]float32(nil), vectors...),
	})
	return nil
}

func (m *MockVectorRepository) Search(ctx context.Context, queryVector []float32, topK int) ([]domain.QueryResult, error) {
	m.mu.Lock()
	m.searches++
	fn := m.SearchFn
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, queryVector, topK)
	}
	return []domain.QueryResult{}, nil
}

// Stored returns every successful StoreEmbeddings call.
func (m *MockVectorRepository) Stored() []StoredEmbeddings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]StoredEmbeddings(nil), m.stored...)
}

// Searches returns the number of Search calls.
func (m *MockVectorRepository) Searches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.searches
}

// MockGraphRepository is a mock implementation of GraphRepository for testing
type MockGraphRepository struct {
	mu       sync.Mutex
	StoreErr error
	SearchFn func(ctx context.Context, query string) ([]domain.QueryResult, error)
	graphs   map[string]domain.GraphData
	stores   int
}

func NewMockGraphRepository() *MockGraphRepository {
	return &MockGraphRepository{graphs: make(map[string]domain.GraphData)}
}

func (m *MockGraphRepository) StoreGraph(ctx context.Context, documentID string, graph domain.GraphData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stores++
	if m.StoreErr != nil {
		return m.StoreErr
	}
	m.graphs[documentID] = graph
	return nil
}

func (m *MockGraphRepository) Search(ctx context.Context, query string) ([]domain.QueryResult, error) {
	m.mu.Lock()
	fn := m.SearchFn
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, query)
	}
	return []domain.QueryResult{}, nil
}

func (m *MockGraphRepository) GetGraphData(ctx context.Context, documentID string) (domain.GraphData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.graphs[documentID]
	if !ok {
		return domain.GraphData{}, domain.ErrNotFound
	}
	return g, nil
}

// StoreCalls returns the number of StoreGraph calls, including failed ones.
func (m *MockGraphRepository) StoreCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stores
}
