package parsers

import (
	"context"
	"io"

	"github.com/ledongthuc/pdf"
)

// PDFParser extracts the plain text layer of PDF files.
type PDFParser struct{}

func (p *PDFParser) ParseFile(ctx context.Context, path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", err
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return cleanText(string(data)), nil
}

func (p *PDFParser) SupportedTypes() []string {
	return []string{"application/pdf"}
}

func (p *PDFParser) Priority() int {
	return 80
}
