package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/funayamateppei/local-rag-comparator/internal/core/domain"
	"github.com/funayamateppei/local-rag-comparator/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.VectorRepository = (*VectorStore)(nil)

// VectorStore implements driven.VectorRepository on a pgvector column.
// Scores are cosine similarity clamped to [0, 1].
type VectorStore struct {
	db *DB
}

// NewVectorStore creates a new VectorStore
func NewVectorStore(db *DB) *VectorStore {
	return &VectorStore{db: db}
}

// StoreEmbeddings replaces every chunk of the document in one transaction
func (s *VectorStore) StoreEmbeddings(ctx context.Context, documentID string, chunks []string, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("%w: %d chunks but %d vectors", domain.ErrInvalidInput, len(chunks), len(vectors))
	}

	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID); err != nil {
			return err
		}
		if len(chunks) == 0 {
			return nil
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO chunks (document_id, chunk_index, content, embedding)
			VALUES ($1, $2, $3, $4)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, content := range chunks {
			if _, err := stmt.ExecContext(ctx, documentID, i, content, pgvector.NewVector(vectors[i])); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: store embeddings for %s: %v", domain.ErrStorage, documentID, err)
	}
	return nil
}

// Search returns the topK chunks closest to queryVector by cosine distance
func (s *VectorStore) Search(ctx context.Context, queryVector []float32, topK int) ([]domain.QueryResult, error) {
	if topK <= 0 {
		return []domain.QueryResult{}, nil
	}

	query := `
		SELECT c.content, COALESCE(d.filename, c.document_id), 1 - (c.embedding <=> $1) AS similarity
		FROM chunks c
		LEFT JOIN documents d ON d.id = c.document_id
		ORDER BY c.embedding <=> $1
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, pgvector.NewVector(queryVector), topK)
	if err != nil {
		return nil, fmt.Errorf("%w: vector search: %v", domain.ErrStorage, err)
	}
	defer rows.Close()

	results := make([]domain.QueryResult, 0, topK)
	for rows.Next() {
		var (
			content    string
			source     string
			similarity sql.NullFloat64
		)
		if err := rows.Scan(&content, &source, &similarity); err != nil {
			return nil, fmt.Errorf("%w: scan vector result: %v", domain.ErrStorage, err)
		}

		r, err := domain.NewQueryResult("", content, []string{source}, domain.ClampScore(similarity.Float64), domain.RAGTypeVector)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: vector search: %v", domain.ErrStorage, err)
	}
	return results, nil
}

// ChunkCount returns the number of chunks stored for a document
func (s *VectorStore) ChunkCount(ctx context.Context, documentID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks WHERE document_id = $1`, documentID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: count chunks: %v", domain.ErrStorage, err)
	}
	return n, nil
}
