package extractor

import (
	"context"
	"errors"
	"strings"

	"github.com/ledongthuc/pdf"
)

type PDF struct {
	maxPages int
}

func NewPDF(maxPages int) *PDF {
	return &PDF{maxPages: maxPages}
}

func (e *PDF) Extract(ctx context.Context, path string) (text string, err error) {
	defer recoverParse(path, &err)

	f, reader, err := pdf.Open(path)
	if err != nil {
		if errors.Is(err, pdf.ErrInvalidPassword) {
			return "", unsupported(path, "encrypted pdf")
		}
		return "", openFailure(path, err)
	}
	defer f.Close()

	pages := reader.NumPage()
	if pages > e.maxPages {
		pages = e.maxPages
	}

	var b strings.Builder
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", parseFailure(path, err)
		}
		b.WriteString(content)
	}
	return strings.TrimSpace(b.String()), nil
}
