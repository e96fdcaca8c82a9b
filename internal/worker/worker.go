package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/funayamateppei/local-rag-comparator/internal/core/domain"
	"github.com/funayamateppei/local-rag-comparator/internal/core/ports/driven"
	"github.com/funayamateppei/local-rag-comparator/internal/core/ports/driving"
)

// ErrPoolStopped is returned by Submit when the pool is not accepting jobs.
var ErrPoolStopped = errors.New("worker pool stopped")

// Result is the outcome of one ingestion job.
type Result struct {
	Path     string
	Document *domain.Document
	Skipped  bool
	Err      error
	Duration time.Duration
}

// Failed reports whether the job errored or produced a FAILED document.
func (r Result) Failed() bool {
	if r.Err != nil {
		return true
	}
	return r.Document != nil && r.Document.Status() == domain.StatusFailed
}

// Pool ingests files with a fixed number of goroutines.
// Each job runs the document processor for one path.
type Pool struct {
	processor driving.DocumentProcessor
	lock      driven.IngestLock
	onResult  func(Result)
	logger    *slog.Logger

	// Configuration
	concurrency int
	queueSize   int
	lockTTL     time.Duration

	// Internal state
	mu      sync.RWMutex
	running bool
	jobs    chan string
	ctxDone <-chan struct{}
	doneCh  chan struct{}

	processed atomic.Int64
	failed    atomic.Int64
	skipped   atomic.Int64
}

// Config holds configuration for the pool.
type Config struct {
	Processor driving.DocumentProcessor

	// Lock is optional. When set, a path is ingested by one holder at a time.
	Lock driven.IngestLock

	// OnResult is called from the worker goroutine after every job.
	OnResult func(Result)

	Logger      *slog.Logger
	Concurrency int           // Number of concurrent ingestions
	QueueSize   int           // Buffered jobs before Submit blocks
	LockTTL     time.Duration // Upper bound on one ingestion
}

// NewPool creates a new ingestion pool.
func NewPool(cfg Config) *Pool {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = concurrency * 4
	}

	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = 10 * time.Minute
	}

	return &Pool{
		processor:   cfg.Processor,
		lock:        cfg.Lock,
		onResult:    cfg.OnResult,
		logger:      logger,
		concurrency: concurrency,
		queueSize:   queueSize,
		lockTTL:     lockTTL,
	}
}

// Start launches the worker goroutines.
// They run until Stop is called or ctx is cancelled.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	if p.processor == nil {
		p.mu.Unlock()
		return fmt.Errorf("%w: document processor is required", domain.ErrInvalidInput)
	}
	p.running = true
	p.jobs = make(chan string, p.queueSize)
	p.ctxDone = ctx.Done()
	p.doneCh = make(chan struct{})
	jobs := p.jobs
	doneCh := p.doneCh
	p.mu.Unlock()

	p.logger.Info("worker pool starting",
		"concurrency", p.concurrency,
		"queue_size", p.queueSize,
		"locking", p.lock != nil,
	)

	var wg sync.WaitGroup
	for i := 0; i < p.concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			p.processLoop(ctx, workerID, jobs)
		}(i)
	}

	go func() {
		wg.Wait()
		close(doneCh)
	}()

	return nil
}

// Submit queues path for ingestion. It blocks while the queue is full.
func (p *Pool) Submit(ctx context.Context, path string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.running {
		return ErrPoolStopped
	}
	select {
	case <-p.ctxDone:
		return ErrPoolStopped
	default:
	}

	select {
	case p.jobs <- path:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctxDone:
		return ErrPoolStopped
	}
}

// Stop stops accepting jobs, lets queued jobs finish and waits for the workers.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.jobs)
	doneCh := p.doneCh
	p.mu.Unlock()

	<-doneCh

	p.logger.Info("worker pool stopped",
		"processed", p.processed.Load(),
		"failed", p.failed.Load(),
		"skipped", p.skipped.Load(),
	)
}

// Wait blocks until every worker goroutine has exited.
func (p *Pool) Wait() {
	p.mu.RLock()
	doneCh := p.doneCh
	p.mu.RUnlock()

	if doneCh != nil {
		<-doneCh
	}
}

// processLoop is the main loop for a worker goroutine.
func (p *Pool) processLoop(ctx context.Context, workerID int, jobs <-chan string) {
	logger := p.logger.With("worker_id", workerID)
	logger.Debug("worker goroutine started")

	for {
		select {
		case <-ctx.Done():
			logger.Debug("worker context cancelled")
			return
		case path, ok := <-jobs:
			if !ok {
				return
			}
			result := p.process(ctx, path, logger)
			p.record(result, logger)
		}
	}
}

// process ingests one path, holding the ingest lock when configured.
func (p *Pool) process(ctx context.Context, path string, logger *slog.Logger) Result {
	start := time.Now()
	result := Result{Path: path}

	if p.lock != nil {
		key := lockKey(path)
		acquired, err := p.lock.Acquire(ctx, key, p.lockTTL)
		if err != nil {
			result.Err = fmt.Errorf("acquire ingest lock: %w", err)
			result.Duration = time.Since(start)
			return result
		}
		if !acquired {
			logger.Info("ingestion already in progress, skipping", "path", path)
			result.Skipped = true
			result.Duration = time.Since(start)
			return result
		}
		defer func() {
			if err := p.lock.Release(context.WithoutCancel(ctx), key); err != nil {
				logger.Warn("failed to release ingest lock", "path", path, "error", err)
			}
		}()
	}

	result.Document = p.processor.Execute(ctx, path)
	result.Duration = time.Since(start)
	return result
}

func (p *Pool) record(result Result, logger *slog.Logger) {
	switch {
	case result.Skipped:
		p.skipped.Add(1)
	case result.Failed():
		p.failed.Add(1)
		attrs := []any{"path", result.Path, "duration", result.Duration}
		if result.Err != nil {
			attrs = append(attrs, "error", result.Err)
		} else {
			attrs = append(attrs, "document_id", result.Document.ID(), "error", result.Document.ErrorMessage())
		}
		logger.Error("ingestion failed", attrs...)
	default:
		p.processed.Add(1)
		logger.Info("ingestion completed",
			"path", result.Path,
			"document_id", result.Document.ID(),
			"duration", result.Duration,
		)
	}

	if p.onResult != nil {
		p.onResult(result)
	}
}

// lockKey identifies a file independently of how its path was spelled.
func lockKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return "ingest:" + filepath.Clean(path)
}

// Health reports the pool state and its counters.
type Health struct {
	Running   bool  `json:"running"`
	Processed int64 `json:"processed"`
	Failed    int64 `json:"failed"`
	Skipped   int64 `json:"skipped"`
	Queued    int   `json:"queued"`
}

// Health returns the health status of the pool.
func (p *Pool) Health() Health {
	p.mu.RLock()
	defer p.mu.RUnlock()

	h := Health{
		Running:   p.running,
		Processed: p.processed.Load(),
		Failed:    p.failed.Load(),
		Skipped:   p.skipped.Load(),
	}
	if p.jobs != nil {
		h.Queued = len(p.jobs)
	}
	return h
}
