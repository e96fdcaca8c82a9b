// Package watcher ingests files dropped into a directory.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/funayamateppei/local-rag-comparator/internal/core/domain"
)

// DefaultExtensions are the file types the parser registry understands.
var DefaultExtensions = []string{".txt", ".md", ".markdown", ".html", ".htm", ".pdf", ".xlsx"}

// Submitter accepts a path for ingestion. worker.Pool satisfies it.
type Submitter interface {
	Submit(ctx context.Context, path string) error
}

// Config holds configuration for the watcher.
type Config struct {
	Dir        string
	Extensions []string

	// Debounce is how long a file must stay quiet before it is submitted.
	// Editors and copies emit several writes per file.
	Debounce time.Duration

	// InitialScan submits files already present in Dir on start.
	InitialScan bool

	Logger *slog.Logger
}

// Watcher submits new and modified files in one directory.
type Watcher struct {
	fs         *fsnotify.Watcher
	submitter  Submitter
	dir        string
	extensions map[string]struct{}
	debounce   time.Duration
	initial    bool
	logger     *slog.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New creates a watcher for cfg.Dir.
func New(cfg Config, submitter Submitter) (*Watcher, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("%w: watch directory is required", domain.ErrInvalidInput)
	}
	if submitter == nil {
		return nil, fmt.Errorf("%w: submitter is required", domain.ErrInvalidInput)
	}
	info, err := os.Stat(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, cfg.Dir)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	extensions := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		extensions[e] = struct{}{}
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		fs:         fw,
		submitter:  submitter,
		dir:        cfg.Dir,
		extensions: extensions,
		debounce:   debounce,
		initial:    cfg.InitialScan,
		logger:     logger,
		pending:    make(map[string]*time.Timer),
	}, nil
}

// Run watches the directory until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.fs.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	defer w.stopPending()

	w.logger.Info("watching directory", "dir", w.dir, "debounce", w.debounce)

	if w.initial {
		if err := w.scan(ctx); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !w.accepts(event.Name) {
				continue
			}
			w.schedule(ctx, event.Name)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// Close releases the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) scan(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("scan %s: %w", w.dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(w.dir, e.Name())
		if !w.accepts(path) {
			continue
		}
		w.submit(ctx, path)
	}
	return nil
}

// schedule (re)starts the quiet-period timer for path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok && t.Stop() {
		t.Reset(w.debounce)
		return
	}

	var t *time.Timer
	t = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		if w.pending[path] == t {
			delete(w.pending, path)
		}
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		w.submit(ctx, path)
	})
	w.pending[path] = t
}

func (w *Watcher) submit(ctx context.Context, path string) {
	if err := w.submitter.Submit(ctx, path); err != nil {
		w.logger.Error("failed to submit file", "path", path, "error", err)
		return
	}
	w.logger.Info("file submitted", "path", path)
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

// accepts filters hidden files and unknown extensions.
func (w *Watcher) accepts(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~") {
		return false
	}
	_, ok := w.extensions[strings.ToLower(filepath.Ext(base))]
	return ok
}
