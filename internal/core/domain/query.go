package domain

import (
	"fmt"
	"math"
	"slices"
)

// RAGType tags which retrieval strategy produced a result
type RAGType string

const (
	RAGTypeVector RAGType = "vector"
	RAGTypeGraph  RAGType = "graph"
)

// QueryResult is a single answer from one retrieval strategy
type QueryResult struct {
	Query   string   `json:"query"`
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
	Score   float64  `json:"score"`
	RAGType RAGType  `json:"rag_type"`
}

// NewQueryResult validates the strategy tag and that score lies in [0, 1].
func NewQueryResult(query, answer string, sources []string, score float64, ragType RAGType) (QueryResult, error) {
	if ragType != RAGTypeVector && ragType != RAGTypeGraph {
		return QueryResult{}, fmt.Errorf("%w: rag_type must be %q or %q, got %q",
			ErrInvalidInput, RAGTypeVector, RAGTypeGraph, ragType)
	}
	if math.IsNaN(score) || score < 0 || score > 1 {
		return QueryResult{}, fmt.Errorf("%w: score must be between 0 and 1, got %v", ErrInvalidInput, score)
	}
	if sources == nil {
		sources = []string{}
	}
	return QueryResult{
		Query:   query,
		Answer:  answer,
		Sources: slices.Clone(sources),
		Score:   score,
		RAGType: ragType,
	}, nil
}

// WithQuery returns a copy of r carrying the given query text.
func (r QueryResult) WithQuery(query string) QueryResult {
	r.Query = query
	r.Sources = slices.Clone(r.Sources)
	return r
}

// ClampScore maps an arbitrary similarity into [0, 1].
func ClampScore(s float64) float64 {
	switch {
	case math.IsNaN(s), s < 0:
		return 0
	case s > 1:
		return 1
	}
	return s
}

// ComparisonResult holds both strategies' answers to one query.
// A result list is always empty when its error is set.
type ComparisonResult struct {
	Query         string        `json:"query"`
	VectorResults []QueryResult `json:"vector_results"`
	GraphResults  []QueryResult `json:"graph_results"`
	VectorError   *string       `json:"vector_error"`
	GraphError    *string       `json:"graph_error"`
}

// NewComparisonResult assembles a comparison from each flow's outcome.
// A non-nil error discards that flow's results.
func NewComparisonResult(query string, vector []QueryResult, vectorErr error, graph []QueryResult, graphErr error) *ComparisonResult {
	res := &ComparisonResult{
		Query:         query,
		VectorResults: []QueryResult{},
		GraphResults:  []QueryResult{},
	}
	if vectorErr != nil {
		msg := vectorErr.Error()
		res.VectorError = &msg
	} else if vector != nil {
		res.VectorResults = slices.Clone(vector)
	}
	if graphErr != nil {
		msg := graphErr.Error()
		res.GraphError = &msg
	} else if graph != nil {
		res.GraphResults = slices.Clone(graph)
	}
	return res
}

func (c *ComparisonResult) HasVectorError() bool { return c.VectorError != nil }
func (c *ComparisonResult) HasGraphError() bool { return c.GraphError != nil }
