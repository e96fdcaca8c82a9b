package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"time"

	"github.com/funayamateppei/local-rag-comparator/internal/core/domain"
	"github.com/funayamateppei/local-rag-comparator/internal/core/ports/driven"
	"github.com/funayamateppei/local-rag-comparator/internal/core/ports/driving"
)

// Ensure DocumentProcessor implements driving.DocumentProcessor
var _ driving.DocumentProcessor = (*DocumentProcessor)(nil)

// DefaultPromptLanguage is the language passed to the extraction prompt.
const DefaultPromptLanguage = "ja"

// DocumentProcessor drives one document through the ingestion pipeline:
//  1. Parse the file to raw text
//  2. Create the document (UPLOADED) and save
//  3. Start processing (PROCESSING) and save
//  4. Load and render the entity extraction prompt
//  5. Run inference
//  6. Mark parsed (PARSED) and save
//  7. Chunk the raw text
//  8. Embed the chunks
//  9. Store chunks and vectors
//  10. Parse the model output into a graph (best-effort)
//  11. Store the graph
//  12. Mark indexed (INDEXED) and save
//  13. Dispatch DocumentUploadedEvent
//
// Any failure in steps 1-12 ends the run with a FAILED document.
type DocumentProcessor struct {
	documents        driven.DocumentRepository
	prompts          driven.PromptRepository
	vectors          driven.VectorRepository
	graphs           driven.GraphRepository
	dispatcher       driven.EventDispatcher
	inference        driven.InferenceService
	embedding        driven.EmbeddingService
	parser           driven.FileParser
	pipeline         driven.PostProcessorPipeline
	language         string
	deterministicIDs bool
	logger           *slog.Logger
}

// DocumentProcessorConfig holds dependencies for DocumentProcessor.
type DocumentProcessorConfig struct {
	Documents  driven.DocumentRepository
	Prompts    driven.PromptRepository
	Vectors    driven.VectorRepository
	Graphs     driven.GraphRepository
	Dispatcher driven.EventDispatcher
	Inference  driven.InferenceService
	Embedding  driven.EmbeddingService
	Parser     driven.FileParser
	Pipeline   driven.PostProcessorPipeline

	// Language is substituted for {{language}} in the extraction prompt.
	Language string

	// DeterministicIDs derives the document ID from filename and content so
	// re-ingesting a file overwrites the earlier run.
	DeterministicIDs bool

	Logger *slog.Logger
}

// NewDocumentProcessor creates a new document processor.
func NewDocumentProcessor(cfg DocumentProcessorConfig) *DocumentProcessor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	language := cfg.Language
	if language == "" {
		language = DefaultPromptLanguage
	}
	dispatcher := cfg.Dispatcher
	if dispatcher == nil {
		dispatcher = NewEventDispatcher(logger)
	}

	return &DocumentProcessor{
		documents:        cfg.Documents,
		prompts:          cfg.Prompts,
		vectors:          cfg.Vectors,
		graphs:           cfg.Graphs,
		dispatcher:       dispatcher,
		inference:        cfg.Inference,
		embedding:        cfg.Embedding,
		parser:           cfg.Parser,
		pipeline:         cfg.Pipeline,
		language:         language,
		deterministicIDs: cfg.DeterministicIDs,
		logger:           logger,
	}
}

// Execute runs the pipeline for the file at path and returns the document
// in its final state (INDEXED or FAILED).
func (p *DocumentProcessor) Execute(ctx context.Context, path string) *domain.Document {
	startTime := time.Now()
	filename := filepath.Base(path)
	p.logger.Info("processing document", "path", path)

	// Step 1: Parse file
	text, err := p.parser.Parse(ctx, path)
	if err != nil {
		doc := p.placeholderDocument(filename)
		return p.fail(ctx, doc, "parse file", err)
	}

	// Step 2: Create document
	doc, err := p.newDocument(filename, text)
	if err != nil {
		return p.fail(ctx, p.placeholderDocument(filename), "create document", err)
	}
	doc.Annotate("content_hash", domain.ContentHash(filename, text))
	doc.Annotate("source_path", path)
	if err := p.documents.Save(ctx, doc); err != nil {
		return p.fail(ctx, doc, "save uploaded document", err)
	}

	// Step 3: Start processing
	if err := doc.StartProcessing(); err != nil {
		return p.fail(ctx, doc, "start processing", err)
	}
	if err := p.documents.Save(ctx, doc); err != nil {
		return p.fail(ctx, doc, "save processing document", err)
	}

	// Step 4: Load and render the extraction prompt
	prompt, err := p.prompts.Load(ctx, domain.PromptEntityExtraction)
	if err != nil {
		return p.fail(ctx, doc, "load prompt", err)
	}
	rendered, err := prompt.Render(map[string]string{
		"text":     text,
		"language": p.language,
	})
	if err != nil {
		return p.fail(ctx, doc, "render prompt", err)
	}
	doc.Annotate("prompt_name", prompt.Name())
	doc.Annotate("prompt_version", prompt.Version())

	// Step 5: Inference
	output, err := p.inference.Generate(ctx, rendered)
	if err != nil {
		return p.fail(ctx, doc, "generate", err)
	}

	// Step 6: Mark parsed
	if err := doc.MarkParsed(output); err != nil {
		return p.fail(ctx, doc, "mark parsed", err)
	}
	if err := p.documents.Save(ctx, doc); err != nil {
		return p.fail(ctx, doc, "save parsed document", err)
	}

	// Step 7: Chunk
	chunks := p.chunk(text)
	doc.Annotate("chunk_count", strconv.Itoa(len(chunks)))

	// Steps 8-9: Embed and store vectors
	if len(chunks) > 0 {
		vectors, err := p.embedding.CreateEmbeddings(ctx, chunks)
		if err != nil {
			return p.fail(ctx, doc, "create embeddings", err)
		}
		if len(vectors) != len(chunks) {
			return p.fail(ctx, doc, "create embeddings",
				fmt.Errorf("%w: got %d vectors for %d chunks", domain.ErrEmbedding, len(vectors), len(chunks)))
		}
		doc.Annotate("embedding_model", p.embedding.Model())

		if err := p.vectors.StoreEmbeddings(ctx, doc.ID(), chunks, vectors); err != nil {
			return p.fail(ctx, doc, "store embeddings", err)
		}
	}

	// Step 10: Best-effort graph parse
	graph, report := ParseGraphData(output)
	doc.Annotate("graph_entities", strconv.Itoa(graph.EntityCount()))
	doc.Annotate("graph_relationships", strconv.Itoa(graph.RelationshipCount()))
	doc.Annotate("graph_skipped_entities", strconv.Itoa(report.SkippedEntities))
	doc.Annotate("graph_skipped_relationships", strconv.Itoa(report.SkippedRelationships))
	doc.Annotate("graph_merged_entities", strconv.Itoa(report.MergedEntities))
	doc.Annotate("graph_dangling_relationships", strconv.Itoa(graph.DanglingRelationships()))
	if report.Note != "" {
		doc.Annotate("graph_parse_note", report.Note)
	}
	if report.SkippedEntities > 0 || report.SkippedRelationships > 0 || report.Note != "" {
		p.logger.Warn("graph extraction degraded",
			"document_id", doc.ID(),
			"skipped_entities", report.SkippedEntities,
			"skipped_relationships", report.SkippedRelationships,
			"note", report.Note)
	}

	// Step 11: Store graph
	if err := p.graphs.StoreGraph(ctx, doc.ID(), graph); err != nil {
		return p.fail(ctx, doc, "store graph", err)
	}

	// Step 12: Mark indexed. The INDEXED state is saved from a copy first so
	// a failed save still leaves doc in a state that can be marked FAILED.
	indexed, err := domain.RestoreDocument(doc.Snapshot())
	if err == nil {
		err = indexed.MarkIndexed()
	}
	if err != nil {
		return p.fail(ctx, doc, "mark indexed", err)
	}
	if err := p.documents.Save(ctx, indexed); err != nil {
		return p.fail(ctx, doc, "save indexed document", err)
	}
	if err := doc.MarkIndexed(); err != nil {
		return p.fail(ctx, doc, "mark indexed", err)
	}

	// Step 13: Dispatch event
	event := domain.NewDocumentUploadedEvent(doc.ID(), doc.Filename())
	if errs := p.dispatcher.Dispatch(ctx, event); len(errs) > 0 {
		p.logger.Warn("event handlers reported errors", "document_id", doc.ID(), "count", len(errs))
	}

	p.logger.Info("document indexed",
		"document_id", doc.ID(),
		"filename", doc.Filename(),
		"chunks", len(chunks),
		"entities", graph.EntityCount(),
		"relationships", graph.RelationshipCount(),
		"duration", time.Since(startTime))

	return doc
}

func (p *DocumentProcessor) newDocument(filename, text string) (*domain.Document, error) {
	if p.deterministicIDs {
		return domain.NewDocumentWithID(domain.DeterministicDocumentID(filename, text), filename, text)
	}
	return domain.NewDocument(filename, text)
}

// placeholderDocument builds the document reported when no content could be read.
func (p *DocumentProcessor) placeholderDocument(filename string) *domain.Document {
	doc, err := domain.NewDocument(filename, "")
	if err != nil {
		doc, _ = domain.NewDocument("unnamed", "")
	}
	return doc
}

func (p *DocumentProcessor) chunk(text string) []string {
	if p.pipeline == nil {
		if text == "" {
			return nil
		}
		return []string{text}
	}
	processed := p.pipeline.Process(text)
	chunks := make([]string, 0, len(processed))
	for _, c := range processed {
		chunks = append(chunks, c.Content)
	}
	return chunks
}

// fail marks the document FAILED and saves it best-effort.
// A save failure is logged and recorded but the original error is kept.
func (p *DocumentProcessor) fail(ctx context.Context, doc *domain.Document, step string, cause error) *domain.Document {
	msg := fmt.Sprintf("%s: %v", step, cause)
	if err := doc.MarkFailed(msg); err != nil {
		p.logger.Error("failed to mark document failed", "document_id", doc.ID(), "error", err)
	}

	p.logger.Error("document processing failed",
		"document_id", doc.ID(),
		"filename", doc.Filename(),
		"step", step,
		"error", cause)

	if err := p.documents.Save(context.WithoutCancel(ctx), doc); err != nil {
		doc.Annotate("persist_error", err.Error())
		p.logger.Error("failed to persist failed document", "document_id", doc.ID(), "error", err)
	}
	return doc
}
