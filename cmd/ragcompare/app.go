package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/funayamateppei/local-rag-comparator/internal/adapters/driven/ai"
	"github.com/funayamateppei/local-rag-comparator/internal/adapters/driven/kafka"
	"github.com/funayamateppei/local-rag-comparator/internal/adapters/driven/neo4j"
	"github.com/funayamateppei/local-rag-comparator/internal/adapters/driven/postgres"
	"github.com/funayamateppei/local-rag-comparator/internal/adapters/driven/prompts"
	redisadapter "github.com/funayamateppei/local-rag-comparator/internal/adapters/driven/redis"
	"github.com/funayamateppei/local-rag-comparator/internal/adapters/driving/http"
	"github.com/funayamateppei/local-rag-comparator/internal/config"
	"github.com/funayamateppei/local-rag-comparator/internal/core/domain"
	"github.com/funayamateppei/local-rag-comparator/internal/core/ports/driven"
	"github.com/funayamateppei/local-rag-comparator/internal/core/ports/driving"
	"github.com/funayamateppei/local-rag-comparator/internal/core/services"
	"github.com/funayamateppei/local-rag-comparator/internal/parsers"
	"github.com/funayamateppei/local-rag-comparator/internal/postprocessors"
	"github.com/funayamateppei/local-rag-comparator/internal/worker"
)

// app holds the wired services shared by every subcommand.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	processor  driving.DocumentProcessor
	comparator driving.Comparator
	documents  driving.DocumentService
	lock       driven.IngestLock

	readyChecks map[string]http.HealthChecker
	closers     []func()
}

// checkFunc adapts a ping function to http.HealthChecker.
type checkFunc func(ctx context.Context) error

func (f checkFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

// newApp connects every backend and wires the core services.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{
		cfg:         cfg,
		logger:      logger,
		readyChecks: make(map[string]http.HealthChecker),
	}

	// ===== Initialize PostgreSQL (vector store, default document store) =====
	log.Println("Connecting to PostgreSQL...")
	db, err := postgres.Connect(ctx, postgres.Config{
		URL:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		ConnMaxIdleTime: cfg.DBConnIdleTime,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	a.closers = append(a.closers, func() { _ = db.Close() })
	if err := db.InitSchema(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	a.readyChecks["postgres"] = checkFunc(db.Ping)
	log.Println("PostgreSQL connected and schema initialized")

	// ===== Initialize Redis (optional) =====
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		log.Println("Connecting to Redis...")
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		redisClient = redis.NewClient(opts)
		a.closers = append(a.closers, func() { _ = redisClient.Close() })
		if err := redisClient.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.readyChecks["redis"] = checkFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
		a.lock = redisadapter.NewLock(redisClient)
		log.Println("Redis connected, using Redis ingest lock")
	}

	// ===== Ingest lock (Redis if available, otherwise PostgreSQL advisory locks) =====
	if a.lock == nil {
		a.lock = postgres.NewAdvisoryLock(db)
		log.Println("Using PostgreSQL advisory ingest lock")
	}

	// ===== Initialize Neo4j =====
	log.Println("Connecting to Neo4j...")
	graphStore, err := neo4j.NewGraphStore(ctx, neo4j.Config{
		URI:         cfg.Neo4jURI,
		Username:    cfg.Neo4jUser,
		Password:    cfg.Neo4jPassword,
		Database:    cfg.Neo4jDatabase,
		SearchLimit: cfg.GraphSearchSize,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = graphStore.Close(context.Background()) })
	a.readyChecks["neo4j"] = graphStore
	log.Println("Neo4j connected")

	// ===== Document store (Redis or PostgreSQL) =====
	var documentStore driven.DocumentRepository
	if cfg.DocumentStore == config.DocumentStoreRedis {
		documentStore = redisadapter.NewDocumentStore(redisClient)
		log.Println("Using Redis document store")
	} else {
		documentStore = postgres.NewDocumentStore(db)
		log.Println("Using PostgreSQL document store")
	}
	vectorStore := postgres.NewVectorStore(db)

	// ===== AI services =====
	aiFactory := ai.NewFactory()
	embedding, err := aiFactory.CreateEmbeddingService(cfg.EmbeddingSettings())
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create embedding service: %w", err)
	}
	inference, err := aiFactory.CreateInferenceService(cfg.InferenceSettings())
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create inference service: %w", err)
	}
	if embedding == nil || inference == nil {
		a.Close()
		return nil, fmt.Errorf("%w: AI provider %s is not fully configured", domain.ErrInvalidProvider, cfg.AIProvider)
	}
	a.closers = append(a.closers, func() {
		_ = embedding.Close()
		_ = inference.Close()
	})
	a.readyChecks["embedding"] = embedding
	a.readyChecks["inference"] = inference
	log.Printf("AI config: provider=%s, inference=%s, embedding=%s",
		cfg.AIProvider, inference.Model(), embedding.Model())

	// ===== Events =====
	dispatcher := services.NewEventDispatcher(logger)
	dispatcher.Register(domain.EventDocumentUploaded, services.LogEventHandler(logger))
	if redisClient != nil {
		publisher := redisadapter.NewEventPublisher(redisClient)
		dispatcher.Register(domain.EventDocumentUploaded, publisher.Publish)
		log.Println("Publishing events to Redis")
	}
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := kafka.NewEventPublisher(kafka.Config{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("create kafka publisher: %w", err)
		}
		a.closers = append(a.closers, func() { _ = publisher.Close() })
		dispatcher.Register(domain.EventDocumentUploaded, publisher.Publish)
		log.Printf("Publishing events to Kafka topic %s", publisher.Topic())
	}

	// ===== Pipeline =====
	pipeline := postprocessors.NewPipelineFromOptions(postprocessors.Options{
		Chunk: postprocessors.ChunkConfig{
			MaxChunkSize:      cfg.ChunkSize,
			Overlap:           cfg.ChunkOverlap,
			PreserveSentences: cfg.PreserveSentences,
		},
		NormalizeWhitespace: cfg.NormalizeWhitespace,
		Deduplicate:         cfg.Deduplicate,
		MinChunkLength:      cfg.MinChunkLength,
	})
	log.Printf("Post-processors: %v", pipeline.List())

	// ===== Services =====
	a.processor = services.NewDocumentProcessor(services.DocumentProcessorConfig{
		Documents:        documentStore,
		Prompts:          prompts.NewDirStore(cfg.PromptsDir),
		Vectors:          vectorStore,
		Graphs:           graphStore,
		Dispatcher:       dispatcher,
		Inference:        inference,
		Embedding:        embedding,
		Parser:           parsers.DefaultRegistry(),
		Pipeline:         pipeline,
		Language:         cfg.PromptLanguage,
		DeterministicIDs: cfg.DeterministicIDs,
		Logger:           logger,
	})
	a.comparator = services.NewCompareService(services.CompareServiceConfig{
		Embedding: embedding,
		Vectors:   vectorStore,
		Graphs:    graphStore,
		Logger:    logger,
	})
	a.documents = services.NewDocumentService(documentStore, graphStore)

	return a, nil
}

// newPool creates an ingestion pool around the processor.
func (a *app) newPool(onResult func(worker.Result)) *worker.Pool {
	return worker.NewPool(worker.Config{
		Processor:   a.processor,
		Lock:        a.lock,
		OnResult:    onResult,
		Logger:      a.logger,
		Concurrency: a.cfg.WorkerConcurrency,
		LockTTL:     a.cfg.IngestLockTTL,
	})
}

// Close releases backend connections in reverse order of creation.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
