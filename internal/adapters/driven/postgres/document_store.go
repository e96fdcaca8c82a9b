package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/funayamateppei/local-rag-comparator/internal/core/domain"
	"github.com/funayamateppei/local-rag-comparator/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DocumentRepository = (*DocumentStore)(nil)

// DocumentStore implements driven.DocumentRepository using PostgreSQL
type DocumentStore struct {
	db *DB
}

// NewDocumentStore creates a new DocumentStore
func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

const documentColumns = `id, filename, content, status, metadata, parsed_content, error, created_at, updated_at`

// Save creates or updates a document
func (s *DocumentStore) Save(ctx context.Context, doc *domain.Document) error {
	snap := doc.Snapshot()
	metadataJSON, err := json.Marshal(snap.Metadata)
	if err != nil {
		return fmt.Errorf("%w: encode metadata: %v", domain.ErrStorage, err)
	}

	query := `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			filename = EXCLUDED.filename,
			content = EXCLUDED.content,
			status = EXCLUDED.status,
			metadata = EXCLUDED.metadata,
			parsed_content = EXCLUDED.parsed_content,
			error = EXCLUDED.error,
			updated_at = EXCLUDED.updated_at
	`

	_, err = s.db.ExecContext(ctx, query,
		snap.ID,
		snap.Filename,
		snap.Content,
		string(snap.Status),
		metadataJSON,
		snap.ParsedContent,
		snap.Error,
		snap.CreatedAt,
		snap.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: save document %s: %v", domain.ErrStorage, snap.ID, err)
	}
	return nil
}

// FindByID retrieves a document by ID
func (s *DocumentStore) FindByID(ctx context.Context, id string) (*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`

	doc, err := s.scanDocument(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// FindAll retrieves every document, newest first
func (s *DocumentStore) FindAll(ctx context.Context) ([]*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents ORDER BY created_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: list documents: %v", domain.ErrStorage, err)
	}
	defer rows.Close()

	docs := make([]*domain.Document, 0)
	for rows.Next() {
		doc, err := s.scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list documents: %v", domain.ErrStorage, err)
	}
	return docs, nil
}

// Count returns the number of stored documents
func (s *DocumentStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count documents: %v", domain.ErrStorage, err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *DocumentStore) scanDocument(row rowScanner) (*domain.Document, error) {
	var (
		snap         domain.DocumentSnapshot
		status       string
		metadataJSON []byte
	)
	err := row.Scan(
		&snap.ID,
		&snap.Filename,
		&snap.Content,
		&status,
		&metadataJSON,
		&snap.ParsedContent,
		&snap.Error,
		&snap.CreatedAt,
		&snap.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: scan document: %v", domain.ErrStorage, err)
	}

	snap.Status = domain.DocumentStatus(status)
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &snap.Metadata); err != nil {
			return nil, fmt.Errorf("%w: decode metadata of %s: %v", domain.ErrStorage, snap.ID, err)
		}
	}

	doc, err := domain.RestoreDocument(snap)
	if err != nil {
		return nil, fmt.Errorf("%w: restore document %s: %v", domain.ErrStorage, snap.ID, err)
	}
	return doc, nil
}
