// Command ragcompare ingests documents into a vector index and a knowledge
// graph and compares answers from both retrieval strategies.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/funayamateppei/local-rag-comparator/internal/adapters/driven/auth"
	"github.com/funayamateppei/local-rag-comparator/internal/adapters/driving/cli"
	"github.com/funayamateppei/local-rag-comparator/internal/adapters/driving/http"
	"github.com/funayamateppei/local-rag-comparator/internal/adapters/driving/watcher"
	"github.com/funayamateppei/local-rag-comparator/internal/config"
	"github.com/funayamateppei/local-rag-comparator/internal/core/domain"
	"github.com/funayamateppei/local-rag-comparator/internal/worker"
)

var version = "dev"

const usage = `usage: ragcompare <command> [flags] [args]

commands:
  serve                 run the HTTP API (optionally watching a directory)
  ingest <file>...      ingest files and exit
  watch <dir>           ingest files as they appear in dir
  compare <query>       run vector and graph retrieval side by side
  documents             list ingested documents
  graph <document-id>   show the knowledge graph of a document
  token <subject>       issue a bearer token for the API
  version               print the version
`

func main() {
	// Get command from command line arg (RUN_MODE for containers)
	cmd := os.Getenv("RUN_MODE")
	args := os.Args[1:]
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}
	if cmd == "" {
		cmd = "serve"
	}

	switch cmd {
	case "version":
		fmt.Println(version)
		return
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	// Setup context with cancellation for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cmd == "token" {
		os.Exit(runToken(cfg, args))
	}

	log.Printf("ragcompare %s starting %s", version, cmd)

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Startup failed: %v", err)
	}
	defer a.Close()

	var code int
	switch cmd {
	case "serve":
		code = runServe(ctx, a, args)
	case "ingest":
		code = runIngest(ctx, a, args)
	case "watch":
		code = runWatch(ctx, a, args)
	case "compare":
		code = runCompare(ctx, a, args)
	case "documents":
		code = runDocuments(ctx, a, args)
	case "graph":
		code = runGraph(ctx, a, args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		code = 2
	}

	a.Close()
	stop()
	os.Exit(code)
}

func runServe(ctx context.Context, a *app, args []string) int {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	watchDir := fs.String("watch", "", "also ingest files appearing in this directory")
	_ = fs.Parse(args)

	cfg := http.Config{
		Host:            a.cfg.Host,
		Port:            a.cfg.Port,
		Version:         version,
		UploadDir:       a.cfg.UploadDir,
		MaxUploadBytes:  a.cfg.MaxUploadBytes(),
		AllowedOrigins:  a.cfg.AllowedOrigins,
		ShutdownTimeout: 30 * time.Second,
	}

	svc := http.Services{
		Processor:   a.processor,
		Comparator:  a.comparator,
		Documents:   a.documents,
		ReadyChecks: a.readyChecks,
		Logger:      a.logger,
	}
	if a.cfg.AuthEnabled() {
		svc.Tokens = auth.NewAdapter(a.cfg.JWTSecret)
		log.Println("Bearer authentication enabled for /api routes")
	} else {
		log.Println("Warning: JWT_SECRET not set, /api routes are unauthenticated")
	}

	var wg sync.WaitGroup
	if *watchDir != "" {
		pool, w, err := startWatching(ctx, a, *watchDir, nil)
		if err != nil {
			log.Printf("Failed to watch %s: %v", *watchDir, err)
			return 1
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := w.Run(ctx); err != nil {
				log.Printf("Watcher error: %v", err)
			}
			pool.Stop()
		}()
	}

	server := http.NewServer(cfg, svc)
	log.Printf("API server starting on %s", server.Addr())
	err := server.Run(ctx)
	wg.Wait()
	if err != nil {
		log.Printf("Server error: %v", err)
		return 1
	}
	log.Println("Server stopped")
	return 0
}

func runIngest(ctx context.Context, a *app, args []string) int {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "print results as JSON")
	_ = fs.Parse(args)

	paths := fs.Args()
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "usage: ragcompare ingest [-json] <file>...")
		return 2
	}

	printer := cli.NewPrinter(os.Stdout, *asJSON)
	var (
		mu                  sync.Mutex
		ok, failed, skipped int
	)
	pool := a.newPool(func(r worker.Result) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case r.Skipped:
			skipped++
		case r.Failed():
			failed++
		default:
			ok++
		}
		printer.IngestResult(r)
	})
	if err := pool.Start(ctx); err != nil {
		log.Printf("Failed to start worker pool: %v", err)
		return 1
	}

	for _, p := range paths {
		if err := pool.Submit(ctx, p); err != nil {
			log.Printf("Failed to submit %s: %v", p, err)
			break
		}
	}
	pool.Stop()

	printer.Summary(ok, failed, skipped)
	if failed > 0 || ctx.Err() != nil {
		return 1
	}
	return 0
}

func runWatch(ctx context.Context, a *app, args []string) int {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "print results as JSON")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: ragcompare watch [-json] <dir>")
		return 2
	}

	printer := cli.NewPrinter(os.Stdout, *asJSON)
	pool, w, err := startWatching(ctx, a, fs.Arg(0), printer.IngestResult)
	if err != nil {
		log.Printf("Failed to watch %s: %v", fs.Arg(0), err)
		return 1
	}
	defer pool.Stop()

	log.Printf("Watching %s for new documents", fs.Arg(0))
	if err := w.Run(ctx); err != nil {
		log.Printf("Watcher error: %v", err)
		return 1
	}
	return 0
}

// startWatching starts a pool fed by a watcher on dir. The caller runs the watcher.
func startWatching(ctx context.Context, a *app, dir string, onResult func(worker.Result)) (*worker.Pool, *watcher.Watcher, error) {
	pool := a.newPool(onResult)
	if err := pool.Start(ctx); err != nil {
		return nil, nil, err
	}
	w, err := watcher.New(watcher.Config{
		Dir:         filepath.Clean(dir),
		Debounce:    a.cfg.WatchDebounce,
		InitialScan: a.cfg.WatchInitialScan,
		Logger:      a.logger,
	}, pool)
	if err != nil {
		pool.Stop()
		return nil, nil, err
	}
	return pool, w, nil
}

func runCompare(ctx context.Context, a *app, args []string) int {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	topK := fs.Int("k", http.DefaultTopK, "results per retrieval strategy")
	asJSON := fs.Bool("json", false, "print results as JSON")
	_ = fs.Parse(args)

	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: ragcompare compare [-k N] [-json] <query>")
		return 2
	}
	query := strings.Join(fs.Args(), " ")

	res, err := a.comparator.Execute(ctx, query, *topK)
	if err != nil {
		log.Printf("Compare failed: %v", err)
		return 1
	}
	if err := cli.NewPrinter(os.Stdout, *asJSON).Comparison(res); err != nil {
		log.Printf("Failed to print results: %v", err)
		return 1
	}
	if res.HasVectorError() && res.HasGraphError() {
		return 1
	}
	return 0
}

func runDocuments(ctx context.Context, a *app, args []string) int {
	fs := flag.NewFlagSet("documents", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "print documents as JSON")
	_ = fs.Parse(args)

	docs, err := a.documents.List(ctx)
	if err != nil {
		log.Printf("Failed to list documents: %v", err)
		return 1
	}
	if err := cli.NewPrinter(os.Stdout, *asJSON).Documents(docs); err != nil {
		return 1
	}
	return 0
}

func runGraph(ctx context.Context, a *app, args []string) int {
	fs := flag.NewFlagSet("graph", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "print the graph as JSON")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: ragcompare graph [-json] <document-id>")
		return 2
	}

	g, err := a.documents.Graph(ctx, fs.Arg(0))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Printf("Document %s not found", fs.Arg(0))
		} else {
			log.Printf("Failed to load graph: %v", err)
		}
		return 1
	}
	if err := cli.NewPrinter(os.Stdout, *asJSON).Graph(fs.Arg(0), g); err != nil {
		return 1
	}
	return 0
}

func runToken(cfg *config.Config, args []string) int {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	scope := fs.String("scope", "api", "scope claim of the token")
	ttl := fs.Duration("ttl", cfg.TokenTTL, "token lifetime")
	asJSON := fs.Bool("json", false, "print the token as JSON")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: ragcompare token [-scope S] [-ttl D] <subject>")
		return 2
	}
	if !cfg.AuthEnabled() {
		log.Println("JWT_SECRET is not set, tokens cannot be issued")
		return 1
	}

	claims := domain.NewTokenClaims(fs.Arg(0), *scope, *ttl)
	token, err := auth.NewAdapter(cfg.JWTSecret).GenerateToken(claims)
	if err != nil {
		log.Printf("Failed to issue token: %v", err)
		return 1
	}
	if err := cli.NewPrinter(os.Stdout, *asJSON).Token(token, time.Unix(claims.ExpiresAt, 0)); err != nil {
		return 1
	}
	return 0
}
