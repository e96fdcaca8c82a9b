package parsers

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestTextParser(t *testing.T) {
	path := writeFile(t, "notes.txt", []byte("  line one\r\nline two\rline three\n\n"))

	got, err := DefaultRegistry().Parse(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "line one\nline two\nline three"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestTextParser_InvalidUTF8(t *testing.T) {
	path := writeFile(t, "notes.txt", []byte("abc\xffdef"))

	got, err := (&TextParser{}).ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "abcdef" {
		t.Errorf("expected invalid bytes dropped, got %q", got)
	}
}

func TestMarkdownParser_CollapsesBlankLines(t *testing.T) {
	path := writeFile(t, "notes.md", []byte("# Title\n\n\n\nBody\n\n\n\nEnd\n"))

	got, err := DefaultRegistry().Parse(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "# Title\n\nBody\n\nEnd"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestHTMLParser(t *testing.T) {
	html := `<html><body><h1>Tokyo</h1><p>Tokyo is the capital of <strong>Japan</strong>.</p></body></html>`
	path := writeFile(t, "page.html", []byte(html))

	got, err := DefaultRegistry().Parse(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(got, "# Tokyo") {
		t.Errorf("expected heading in output, got %q", got)
	}
	if !strings.Contains(got, "**Japan**") {
		t.Errorf("expected bold text in output, got %q", got)
	}
	if strings.Contains(got, "<p>") {
		t.Errorf("expected tags removed, got %q", got)
	}
}

func TestSpreadsheetParser(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetRow("Sheet1", "A1", &[]any{"name", "country"}); err != nil {
		t.Fatalf("set row: %v", err)
	}
	if err := f.SetSheetRow("Sheet1", "A2", &[]any{"Tokyo", "Japan"}); err != nil {
		t.Fatalf("set row: %v", err)
	}
	if _, err := f.NewSheet("Empty"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}

	path := filepath.Join(t.TempDir(), "cities.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := DefaultRegistry().Parse(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "# Sheet1\nname\tcountry\nTokyo\tJapan"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestDefaultRegistry_Types(t *testing.T) {
	types := DefaultRegistry().List()

	for _, want := range []string{"application/pdf", "text/html", "text/markdown", "text/*"} {
		found := false
		for _, got := range types {
			if got == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected %s in registered types %v", want, types)
		}
	}
}
