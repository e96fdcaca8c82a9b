package parsers

import (
	"context"
	"strings"

	"github.com/xuri/excelize/v2"
)

// SpreadsheetParser renders every sheet of an Excel workbook as
// tab-separated rows under a "# <sheet>" header.
type SpreadsheetParser struct{}

func (p *SpreadsheetParser) ParseFile(ctx context.Context, path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var b strings.Builder
	for _, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", err
		}
		if len(rows) == 0 {
			continue
		}

		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("# " + sheet + "\n")
		for _, row := range rows {
			b.WriteString(strings.Join(row, "\t"))
			b.WriteString("\n")
		}
	}

	return strings.TrimSpace(b.String()), nil
}

func (p *SpreadsheetParser) SupportedTypes() []string {
	return []string{
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	}
}

func (p *SpreadsheetParser) Priority() int {
	return 70
}
