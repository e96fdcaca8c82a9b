package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func newTestDocument(t *testing.T) *Document {
	t.Helper()
	doc, err := NewDocument("/tmp/uploads/report.txt", "hello world")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return doc
}

func TestNewDocument(t *testing.T) {
	doc := newTestDocument(t)

	if doc.ID() == "" {
		t.Error("expected non-empty ID")
	}
	if doc.Filename() != "report.txt" {
		t.Errorf("expected filename report.txt, got %s", doc.Filename())
	}
	if doc.Content() != "hello world" {
		t.Errorf("expected content to be kept, got %q", doc.Content())
	}
	if doc.Status() != StatusUploaded {
		t.Errorf("expected status %s, got %s", StatusUploaded, doc.Status())
	}
	if doc.ErrorMessage() != "" {
		t.Error("expected no error message")
	}
	if doc.ParsedContent() != "" {
		t.Error("expected no parsed content")
	}
	if doc.CreatedAt().IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	other := newTestDocument(t)
	if doc.ID() == other.ID() {
		t.Error("expected unique IDs")
	}
}

func TestNewDocument_RequiresFilename(t *testing.T) {
	for _, name := range []string{"", "   ", "/"} {
		if _, err := NewDocument(name, "text"); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("filename %q: expected ErrInvalidInput, got %v", name, err)
		}
	}
}

func TestDocument_HappyPath(t *testing.T) {
	doc := newTestDocument(t)

	if err := doc.StartProcessing(); err != nil {
		t.Fatalf("StartProcessing: %v", err)
	}
	if doc.Status() != StatusProcessing {
		t.Errorf("expected %s, got %s", StatusProcessing, doc.Status())
	}
	if err := doc.MarkParsed(`{"entities":[]}`); err != nil {
		t.Fatalf("MarkParsed: %v", err)
	}
	if doc.ParsedContent() != `{"entities":[]}` {
		t.Errorf("unexpected parsed content %q", doc.ParsedContent())
	}
	if err := doc.MarkIndexed(); err != nil {
		t.Fatalf("MarkIndexed: %v", err)
	}
	if doc.Status() != StatusIndexed {
		t.Errorf("expected %s, got %s", StatusIndexed, doc.Status())
	}
	if doc.ErrorMessage() != "" {
		t.Error("expected error to stay unset")
	}
}

func TestDocument_MarkParsedRequiresContent(t *testing.T) {
	doc := newTestDocument(t)
	_ = doc.StartProcessing()

	if err := doc.MarkParsed(""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if doc.Status() != StatusProcessing {
		t.Errorf("expected status to stay %s, got %s", StatusProcessing, doc.Status())
	}
}

func TestDocument_MarkFailedFromNonTerminal(t *testing.T) {
	setups := map[DocumentStatus]func(*Document){
		StatusUploaded: func(*Document) {},
		StatusProcessing: func(d *Document) {
			_ = d.StartProcessing()
		},
		StatusParsed: func(d *Document) {
			_ = d.StartProcessing()
			_ = d.MarkParsed("output")
		},
	}

	for from, setup := range setups {
		t.Run(string(from), func(t *testing.T) {
			doc := newTestDocument(t)
			setup(doc)
			if doc.Status() != from {
				t.Fatalf("setup reached %s, want %s", doc.Status(), from)
			}
			if err := doc.MarkFailed("boom"); err != nil {
				t.Fatalf("MarkFailed: %v", err)
			}
			if doc.Status() != StatusFailed {
				t.Errorf("expected %s, got %s", StatusFailed, doc.Status())
			}
			if doc.ErrorMessage() != "boom" {
				t.Errorf("expected error 'boom', got %q", doc.ErrorMessage())
			}
		})
	}
}

func TestDocument_MarkFailedRequiresMessage(t *testing.T) {
	doc := newTestDocument(t)
	if err := doc.MarkFailed(" "); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if doc.Status() != StatusUploaded {
		t.Errorf("expected status unchanged, got %s", doc.Status())
	}
}

func TestDocument_TerminalStatesRejectTransitions(t *testing.T) {
	indexed := newTestDocument(t)
	_ = indexed.StartProcessing()
	_ = indexed.MarkParsed("output")
	_ = indexed.MarkIndexed()

	failed := newTestDocument(t)
	_ = failed.MarkFailed("boom")

	for _, doc := range []*Document{indexed, failed} {
		before := doc.Snapshot()
		ops := map[string]func() error{
			"start":  doc.StartProcessing,
			"parsed": func() error { return doc.MarkParsed("x") },
			"index":  doc.MarkIndexed,
			"fail":   func() error { return doc.MarkFailed("again") },
		}
		for name, op := range ops {
			err := op()
			if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("%s from %s: expected ErrInvalidTransition, got %v", name, before.Status, err)
			}
		}
		after := doc.Snapshot()
		if after.Status != before.Status || after.Error != before.Error || after.ParsedContent != before.ParsedContent {
			t.Errorf("state changed after rejected transitions: %+v -> %+v", before, after)
		}
	}
}

func TestDocument_OutOfOrderTransitions(t *testing.T) {
	doc := newTestDocument(t)

	if err := doc.MarkParsed("x"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("MarkParsed from UPLOADED: expected ErrInvalidTransition, got %v", err)
	}
	if err := doc.MarkIndexed(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("MarkIndexed from UPLOADED: expected ErrInvalidTransition, got %v", err)
	}
	_ = doc.StartProcessing()
	if err := doc.StartProcessing(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("StartProcessing twice: expected ErrInvalidTransition, got %v", err)
	}
}

func TestDocument_Annotate(t *testing.T) {
	doc := newTestDocument(t)
	doc.Annotate("chunk_count", "2")

	if doc.MetadataValue("chunk_count") != "2" {
		t.Errorf("expected chunk_count 2, got %q", doc.MetadataValue("chunk_count"))
	}

	md := doc.Metadata()
	md["chunk_count"] = "99"
	if doc.MetadataValue("chunk_count") != "2" {
		t.Error("expected Metadata to return a copy")
	}
}

func TestDocument_SnapshotRoundTrip(t *testing.T) {
	doc := newTestDocument(t)
	_ = doc.StartProcessing()
	_ = doc.MarkParsed("output")
	doc.Annotate("k", "v")

	restored, err := RestoreDocument(doc.Snapshot())
	if err != nil {
		t.Fatalf("RestoreDocument: %v", err)
	}
	if restored.ID() != doc.ID() || restored.Status() != StatusParsed || restored.ParsedContent() != "output" {
		t.Errorf("restored document differs: %+v", restored.Snapshot())
	}

	// Restored documents keep enforcing the state machine.
	if err := restored.MarkIndexed(); err != nil {
		t.Errorf("MarkIndexed on restored: %v", err)
	}
}

func TestRestoreDocument_Invalid(t *testing.T) {
	if _, err := RestoreDocument(DocumentSnapshot{}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty snapshot, got %v", err)
	}
	if _, err := RestoreDocument(DocumentSnapshot{ID: "x", Status: "DONE"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for unknown status, got %v", err)
	}
}

func TestDocument_JSON(t *testing.T) {
	doc := newTestDocument(t)
	_ = doc.MarkFailed("parser exploded")

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var raw map[string]any
	_ = json.Unmarshal(data, &raw)
	if raw["status"] != "FAILED" || raw["error"] != "parser exploded" {
		t.Errorf("unexpected JSON: %s", data)
	}

	var decoded Document
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.ID() != doc.ID() || decoded.Status() != StatusFailed {
		t.Errorf("decoded document differs: %+v", decoded.Snapshot())
	}
}

func TestDeterministicDocumentID(t *testing.T) {
	a := DeterministicDocumentID("notes.md", "same text")
	b := DeterministicDocumentID("/other/dir/notes.md", "same text")
	c := DeterministicDocumentID("notes.md", "different text")

	if a != b {
		t.Errorf("expected same ID for same base name and content, got %s and %s", a, b)
	}
	if a == c {
		t.Error("expected different IDs for different content")
	}
	if len(ContentHash("notes.md", "x")) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(ContentHash("notes.md", "x")))
	}
}

func TestDocumentStatus_IsTerminal(t *testing.T) {
	tests := map[DocumentStatus]bool{
		StatusUploaded:   false,
		StatusProcessing: false,
		StatusParsed:     false,
		StatusIndexed:    true,
		StatusFailed:     true,
	}
	for status, want := range tests {
		if got := status.IsTerminal(); got != want {
			t.Errorf("%s.IsTerminal() = %v, want %v", status, got, want)
		}
	}
}
