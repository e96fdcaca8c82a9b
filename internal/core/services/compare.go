package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/funayamateppei/local-rag-comparator/internal/core/domain"
	"github.com/funayamateppei/local-rag-comparator/internal/core/ports/driven"
	"github.com/funayamateppei/local-rag-comparator/internal/core/ports/driving"
)

// Ensure CompareService implements driving.Comparator
var _ driving.Comparator = (*CompareService)(nil)

// CompareService answers a query with vector and graph retrieval side by side.
type CompareService struct {
	embedding driven.EmbeddingService
	vectors   driven.VectorRepository
	graphs    driven.GraphRepository
	logger    *slog.Logger
}

// CompareServiceConfig holds dependencies for CompareService.
type CompareServiceConfig struct {
	Embedding driven.EmbeddingService
	Vectors   driven.VectorRepository
	Graphs    driven.GraphRepository
	Logger    *slog.Logger
}

// NewCompareService creates a new comparison service.
func NewCompareService(cfg CompareServiceConfig) *CompareService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CompareService{
		embedding: cfg.Embedding,
		vectors:   cfg.Vectors,
		graphs:    cfg.Graphs,
		logger:    logger,
	}
}

type flowOutcome struct {
	results []domain.QueryResult
	err     error
}

// Execute starts both retrieval flows, waits for both, and folds them into
// one result. A failing flow only sets its own error field.
func (s *CompareService) Execute(ctx context.Context, query string, topK int) (*domain.ComparisonResult, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be positive, got %d", domain.ErrInvalidInput, topK)
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}

	startTime := time.Now()
	var (
		wg            sync.WaitGroup
		vector, graph flowOutcome
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		vector = runFlow(func() ([]domain.QueryResult, error) {
			return s.vectorFlow(ctx, query, topK)
		})
	}()
	go func() {
		defer wg.Done()
		graph = runFlow(func() ([]domain.QueryResult, error) {
			return s.graphFlow(ctx, query, topK)
		})
	}()
	wg.Wait()

	if vector.err != nil {
		s.logger.Warn("vector retrieval failed", "query", query, "error", vector.err)
	}
	if graph.err != nil {
		s.logger.Warn("graph retrieval failed", "query", query, "error", graph.err)
	}

	result := domain.NewComparisonResult(query,
		withQuery(vector.results, query), vector.err,
		withQuery(graph.results, query), graph.err)

	s.logger.Info("comparison complete",
		"query", query,
		"top_k", topK,
		"vector_results", len(result.VectorResults),
		"graph_results", len(result.GraphResults),
		"duration", time.Since(startTime))

	return result, nil
}

func (s *CompareService) vectorFlow(ctx context.Context, query string, topK int) ([]domain.QueryResult, error) {
	vectors, err := s.embedding.CreateEmbeddings(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed query: %w: got %d vectors for 1 query", domain.ErrEmbedding, len(vectors))
	}
	results, err := s.vectors.Search(ctx, vectors[0], topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return results, nil
}

func (s *CompareService) graphFlow(ctx context.Context, query string, topK int) ([]domain.QueryResult, error) {
	results, err := s.graphs.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("graph search: %w", err)
	}
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// runFlow converts a panic in fn into the flow's error.
func runFlow(fn func() ([]domain.QueryResult, error)) (out flowOutcome) {
	defer func() {
		if r := recover(); r != nil {
			out = flowOutcome{err: fmt.Errorf("panic: %v", r)}
		}
	}()
	results, err := fn()
	return flowOutcome{results: results, err: err}
}

func withQuery(results []domain.QueryResult, query string) []domain.QueryResult {
	out := make([]domain.QueryResult, len(results))
	for i, r := range results {
		out[i] = r.WithQuery(query)
	}
	return out
}
