package extractor

import (
	"context"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSX reads the first maxRows non-empty rows across all sheets, each capped
// at maxChars runes. Worksheets larger than maxInputBytes are streamed from
// a temporary file instead of being unpacked in memory.
type XLSX struct {
	maxRows  int
	maxChars int
}

func NewXLSX(maxRows, maxChars int) *XLSX {
	return &XLSX{maxRows: maxRows, maxChars: maxChars}
}

func (e *XLSX) Extract(ctx context.Context, path string) (text string, err error) {
	defer recoverParse(path, &err)

	book, err := excelize.OpenFile(path, excelize.Options{UnzipXMLSizeLimit: maxInputBytes})
	if err != nil {
		return "", openFailure(path, err)
	}
	defer book.Close()

	lines := make([]string, 0, e.maxRows)
	for _, sheet := range book.GetSheetList() {
		if len(lines) >= e.maxRows {
			break
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		lines, err = e.readSheet(book, sheet, lines)
		if err != nil {
			return "", parseFailure(path, err)
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

func (e *XLSX) readSheet(book *excelize.File, sheet string, lines []string) ([]string, error) {
	rows, err := book.Rows(sheet)
	if err != nil {
		return lines, err
	}
	defer rows.Close()

	for len(lines) < e.maxRows && rows.Next() {
		cells, err := rows.Columns()
		if err != nil {
			return lines, err
		}
		if line := joinCells(cells); line != "" {
			lines = append(lines, truncateRunes(line, e.maxChars))
		}
	}
	return lines, rows.Error()
}
