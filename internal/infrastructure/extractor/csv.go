package extractor

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"
)

// CSV reads the header plus the first maxRows records, each capped at
// maxChars runes.
type CSV struct {
	maxRows  int
	maxChars int
}

func NewCSV(maxRows, maxChars int) *CSV {
	return &CSV{maxRows: maxRows, maxChars: maxChars}
}

func (e *CSV) Extract(_ context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", openFailure(path, err)
	}
	defer f.Close()

	bounded := newBoundedReader(f, maxInputBytes)
	reader := csv.NewReader(bounded)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	lines := make([]string, 0, e.maxRows+1)
	for len(lines) <= e.maxRows {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if bounded.exhausted {
				break
			}
			return "", parseFailure(path, err)
		}
		lines = append(lines, truncateRunes(joinCells(record), e.maxChars))
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

func joinCells(cells []string) string {
	parts := make([]string, 0, len(cells))
	for _, cell := range cells {
		cell = strings.TrimSpace(cell)
		if cell != "" {
			parts = append(parts, cell)
		}
	}
	return strings.Join(parts, " ")
}
