//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/funayamateppei/local-rag-comparator/internal/core/domain"
)

func startDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"pgvector/pgvector:pg16",
		tcpostgres.WithDatabase("ragcompare"),
		tcpostgres.WithUsername("user"),
		tcpostgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := Connect(ctx, Config{URL: connStr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.InitSchema(ctx))
	require.NoError(t, db.InitSchema(ctx), "schema init must be idempotent")
	return db
}

func TestDocumentStore_Integration(t *testing.T) {
	db := startDB(t)
	store := NewDocumentStore(db)
	ctx := context.Background()

	doc, err := domain.NewDocument("report.pdf", "")
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, doc))

	require.NoError(t, doc.StartProcessing())
	require.NoError(t, doc.MarkParsed("hello world"))
	doc.Annotate("chunk_count", "1")
	require.NoError(t, store.Save(ctx, doc))

	got, err := store.FindByID(ctx, doc.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusParsed, got.Status())
	assert.Equal(t, "hello world", got.ParsedContent())
	assert.Equal(t, "1", got.MetadataValue("chunk_count"))

	_, err = store.FindByID(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	all, err := store.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestVectorStore_Integration(t *testing.T) {
	db := startDB(t)
	docs := NewDocumentStore(db)
	vectors := NewVectorStore(db)
	ctx := context.Background()

	doc, err := domain.NewDocument("notes.txt", "")
	require.NoError(t, err)
	require.NoError(t, docs.Save(ctx, doc))

	chunks := []string{"graphs link entities", "vectors embed text"}
	embeddings := [][]float32{{1, 0, 0}, {0, 1, 0}}
	require.NoError(t, vectors.StoreEmbeddings(ctx, doc.ID(), chunks, embeddings))

	results, err := vectors.Search(ctx, []float32{0, 1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "vectors embed text", results[0].Answer)
	assert.Equal(t, []string{"notes.txt"}, results[0].Sources)
	assert.Equal(t, domain.RAGTypeVector, results[0].RAGType)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)

	// Storing again replaces instead of duplicating.
	require.NoError(t, vectors.StoreEmbeddings(ctx, doc.ID(), chunks[:1], embeddings[:1]))
	n, err := vectors.ChunkCount(ctx, doc.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	err = vectors.StoreEmbeddings(ctx, doc.ID(), chunks, embeddings[:1])
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestAdvisoryLock_Integration(t *testing.T) {
	db := startDB(t)
	ctx := context.Background()

	first := NewAdvisoryLock(db)
	second := NewAdvisoryLock(db)

	ok, err := first.Acquire(ctx, "ingest:/data/a.txt", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, first.Held())

	ok, err = first.Acquire(ctx, "ingest:/data/a.txt", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "same holder must not re-enter")

	ok, err = second.Acquire(ctx, "ingest:/data/a.txt", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "other holder must be rejected")

	ok, err = second.Acquire(ctx, "ingest:/data/b.txt", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, first.Release(ctx, "ingest:/data/a.txt"))
	assert.Equal(t, 0, first.Held())
	require.NoError(t, first.Release(ctx, "ingest:/data/a.txt"), "double release is a no-op")

	ok, err = second.Acquire(ctx, "ingest:/data/a.txt", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, second.Release(ctx, "ingest:/data/a.txt"))
	require.NoError(t, second.Release(ctx, "ingest:/data/b.txt"))
}
