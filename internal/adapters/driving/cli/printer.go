// Package cli renders results for the command-line interface.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/funayamateppei/local-rag-comparator/internal/core/domain"
	"github.com/funayamateppei/local-rag-comparator/internal/worker"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	vectorColor  = color.New(color.FgBlue, color.Bold)
	graphColor   = color.New(color.FgMagenta, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	dimColor     = color.New(color.Faint)
)

// Printer writes human-readable or JSON output.
type Printer struct {
	out  io.Writer
	json bool
}

// NewPrinter creates a printer writing to out. With asJSON set every
// value is written as indented JSON instead.
func NewPrinter(out io.Writer, asJSON bool) *Printer {
	return &Printer{out: out, json: asJSON}
}

// Comparison prints both result columns of a comparison.
func (p *Printer) Comparison(res *domain.ComparisonResult) error {
	if p.json {
		return p.writeJSON(res)
	}

	headerColor.Fprintf(p.out, "Query: %s\n\n", res.Query)
	p.flow(vectorColor, "Vector RAG", res.VectorResults, res.VectorError)
	fmt.Fprintln(p.out)
	p.flow(graphColor, "Graph RAG", res.GraphResults, res.GraphError)
	return nil
}

func (p *Printer) flow(c *color.Color, title string, results []domain.QueryResult, flowErr *string) {
	c.Fprintf(p.out, "== %s ==\n", title)
	if flowErr != nil {
		errorColor.Fprintf(p.out, "  error: %s\n", *flowErr)
		return
	}
	if len(results) == 0 {
		dimColor.Fprintln(p.out, "  no results")
		return
	}
	for i, r := range results {
		fmt.Fprintf(p.out, "%2d. [%.3f] %s\n", i+1, r.Score, indent(r.Answer, "    "))
		if len(r.Sources) > 0 {
			dimColor.Fprintf(p.out, "    sources: %s\n", strings.Join(r.Sources, ", "))
		}
	}
}

// Documents prints one line per document.
func (p *Printer) Documents(docs []*domain.Document) error {
	if p.json {
		return p.writeJSON(docs)
	}
	if len(docs) == 0 {
		dimColor.Fprintln(p.out, "no documents")
		return nil
	}
	for _, d := range docs {
		fmt.Fprintf(p.out, "%s  %-9s  %s  %s\n",
			d.ID(), statusColor(d.Status()).Sprint(d.Status()),
			d.CreatedAt().Format(time.RFC3339), d.Filename())
		if d.ErrorMessage() != "" {
			errorColor.Fprintf(p.out, "    %s\n", d.ErrorMessage())
		}
	}
	return nil
}

// Graph prints the entities and relationships of a document graph.
func (p *Printer) Graph(documentID string, g domain.GraphData) error {
	if p.json {
		return p.writeJSON(map[string]any{"document_id": documentID, "graph": g})
	}
	headerColor.Fprintf(p.out, "Graph for %s: %d entities, %d relationships\n",
		documentID, g.EntityCount(), g.RelationshipCount())
	for _, e := range g.Entities() {
		fmt.Fprintf(p.out, "  (%s) %s", e.Type, e.Name)
		if e.Description != "" {
			dimColor.Fprintf(p.out, " - %s", e.Description)
		}
		fmt.Fprintln(p.out)
	}
	for _, r := range g.Relationships() {
		fmt.Fprintf(p.out, "  %s -[%s]-> %s\n", r.Source, r.RelationType, r.Target)
	}
	return nil
}

// IngestResult prints the outcome of one ingestion job.
func (p *Printer) IngestResult(r worker.Result) {
	if p.json {
		_ = p.writeJSON(ingestJSON(r))
		return
	}
	switch {
	case r.Skipped:
		warnColor.Fprintf(p.out, "SKIP  %s (already being ingested)\n", r.Path)
	case r.Err != nil:
		errorColor.Fprintf(p.out, "FAIL  %s: %v\n", r.Path, r.Err)
	case r.Failed():
		errorColor.Fprintf(p.out, "FAIL  %s: %s\n", r.Path, r.Document.ErrorMessage())
	default:
		successColor.Fprintf(p.out, "OK    %s", r.Path)
		dimColor.Fprintf(p.out, " -> %s (%s)\n", r.Document.ID(), r.Duration.Round(time.Millisecond))
	}
}

// Summary prints the totals after an ingestion run.
func (p *Printer) Summary(ok, failed, skipped int) {
	if p.json {
		_ = p.writeJSON(map[string]int{"indexed": ok, "failed": failed, "skipped": skipped})
		return
	}
	fmt.Fprintf(p.out, "\n%s indexed, %s failed, %s skipped\n",
		successColor.Sprint(ok), errorColor.Sprint(failed), warnColor.Sprint(skipped))
}

// Token prints an issued bearer token.
func (p *Printer) Token(token string, expiresAt time.Time) error {
	if p.json {
		return p.writeJSON(map[string]any{"token": token, "expires_at": expiresAt})
	}
	fmt.Fprintln(p.out, token)
	dimColor.Fprintf(p.out, "expires %s\n", expiresAt.Format(time.RFC3339))
	return nil
}

func (p *Printer) writeJSON(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func ingestJSON(r worker.Result) map[string]any {
	out := map[string]any{
		"path":        r.Path,
		"skipped":     r.Skipped,
		"duration_ms": r.Duration.Milliseconds(),
	}
	if r.Err != nil {
		out["error"] = r.Err.Error()
	}
	if r.Document != nil {
		out["document"] = r.Document
	}
	return out
}

func statusColor(s domain.DocumentStatus) *color.Color {
	switch s {
	case domain.StatusIndexed:
		return successColor
	case domain.StatusFailed:
		return errorColor
	default:
		return warnColor
	}
}

func indent(s, prefix string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "\n", "\n"+prefix)
}
