package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/funayamateppei/local-rag-comparator/internal/core/domain"
	"github.com/funayamateppei/local-rag-comparator/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DocumentRepository = (*DocumentStore)(nil)

const (
	documentPrefix   = "ragcompare:document:"
	documentIndexKey = "ragcompare:documents"
)

// DocumentStore implements driven.DocumentRepository using Redis.
// Each document is a JSON string; a sorted set scored by creation time
// keeps the listing order.
type DocumentStore struct {
	client redis.UniversalClient
}

// NewDocumentStore creates a new Redis-backed DocumentStore
func NewDocumentStore(client redis.UniversalClient) *DocumentStore {
	return &DocumentStore{client: client}
}

// Save overwrites the document under its ID
func (s *DocumentStore) Save(ctx context.Context, doc *domain.Document) error {
	snap := doc.Snapshot()
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("%w: marshal document: %v", domain.ErrStorage, err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, documentPrefix+snap.ID, data, 0)
	pipe.ZAdd(ctx, documentIndexKey, redis.Z{
		Score:  float64(snap.CreatedAt.UnixNano()),
		Member: snap.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: save document %s: %v", domain.ErrStorage, snap.ID, err)
	}
	return nil
}

// FindByID retrieves a document by ID
func (s *DocumentStore) FindByID(ctx context.Context, id string) (*domain.Document, error) {
	data, err := s.client.Get(ctx, documentPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get document %s: %v", domain.ErrStorage, id, err)
	}
	return decodeDocument(data)
}

// FindAll retrieves every document, newest first.
// Index entries whose document key is gone are skipped.
func (s *DocumentStore) FindAll(ctx context.Context) ([]*domain.Document, error) {
	ids, err := s.client.ZRevRange(ctx, documentIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: list documents: %v", domain.ErrStorage, err)
	}

	docs := make([]*domain.Document, 0, len(ids))
	if len(ids) == 0 {
		return docs, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = documentPrefix + id
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: list documents: %v", domain.ErrStorage, err)
	}

	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		doc, err := decodeDocument([]byte(raw))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Count returns the number of indexed documents
func (s *DocumentStore) Count(ctx context.Context) (int, error) {
	n, err := s.client.ZCard(ctx, documentIndexKey).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: count documents: %v", domain.ErrStorage, err)
	}
	return int(n), nil
}

func decodeDocument(data []byte) (*domain.Document, error) {
	var snap domain.DocumentSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: unmarshal document: %v", domain.ErrStorage, err)
	}
	doc, err := domain.RestoreDocument(snap)
	if err != nil {
		return nil, fmt.Errorf("%w: restore document: %v", domain.ErrStorage, err)
	}
	return doc, nil
}
