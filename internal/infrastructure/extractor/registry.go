// Package extractor reads bounded text snippets from downloaded files.
// Handlers are registered per lowercase extension; adding a format means
// registering another Extractor, not editing a dispatch chain.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kirillkom/file-organizer/internal/core/domain"
)

type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

type ExtractorFunc func(ctx context.Context, path string) (string, error)

func (f ExtractorFunc) Extract(ctx context.Context, path string) (string, error) {
	return f(ctx, path)
}

// Limits bound how much of each format is read, independent of file size.
// HTMLChars also caps a single DOCX paragraph, CSV record or XLSX row.
type Limits struct {
	PDFPages       int
	DOCXParagraphs int
	TextLines      int
	CSVRows        int
	HTMLChars      int
	XLSXRows       int
}

func DefaultLimits() Limits {
	return Limits{
		PDFPages:       1,
		DOCXParagraphs: 5,
		TextLines:      100,
		CSVRows:        10,
		HTMLChars:      20000,
		XLSXRows:       10,
	}
}

func (l Limits) normalize() Limits {
	out := l
	def := DefaultLimits()
	if out.PDFPages <= 0 {
		out.PDFPages = def.PDFPages
	}
	if out.DOCXParagraphs <= 0 {
		out.DOCXParagraphs = def.DOCXParagraphs
	}
	if out.TextLines <= 0 {
		out.TextLines = def.TextLines
	}
	if out.CSVRows <= 0 {
		out.CSVRows = def.CSVRows
	}
	if out.HTMLChars <= 0 {
		out.HTMLChars = def.HTMLChars
	}
	if out.XLSXRows <= 0 {
		out.XLSXRows = def.XLSXRows
	}
	return out
}

// Registry dispatches extraction by file extension. Register is not safe for
// concurrent use; finish registering before sharing the registry.
type Registry struct {
	handlers map[string]Extractor
}

// NewRegistry returns a registry with every built-in format registered.
func NewRegistry(limits Limits) *Registry {
	limits = limits.normalize()
	r := &Registry{handlers: make(map[string]Extractor)}

	text := NewPlainText(limits.TextLines)
	html := NewHTML(limits.HTMLChars)

	r.Register(".txt", text)
	r.Register(".pdf", NewPDF(limits.PDFPages))
	r.Register(".docx", NewDOCX(limits.DOCXParagraphs, limits.HTMLChars))
	r.Register(".csv", NewCSV(limits.CSVRows, limits.HTMLChars))
	r.Register(".html", html)
	r.Register(".htm", html)
	r.Register(".xlsx", NewXLSX(limits.XLSXRows, limits.HTMLChars))
	return r
}

func (r *Registry) Register(ext string, e Extractor) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" || e == nil {
		return
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	r.handlers[ext] = e
}

func (r *Registry) Supports(path string) bool {
	_, ok := r.handlers[strings.ToLower(filepath.Ext(path))]
	return ok
}

func (r *Registry) Extensions() []string {
	out := make([]string, 0, len(r.handlers))
	for ext := range r.handlers {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Extract returns "" for unsupported extensions. For supported ones a missing
// or unreadable file is reported as domain.ErrFileNotFound before the handler runs.
func (r *Registry) Extract(ctx context.Context, path string) (string, error) {
	handler, ok := r.handlers[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", openFailure(path, err)
	}
	if info.IsDir() {
		return "", domain.NewExtractionError(domain.ErrUnsupportedFormat, path, errors.New("path is a directory"))
	}

	return handler.Extract(ctx, path)
}

func openFailure(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return domain.NewExtractionError(domain.ErrFileNotFound, path, err)
	}
	return domain.NewExtractionError(domain.ErrParseFailure, path, err)
}

func parseFailure(path string, err error) error {
	return domain.NewExtractionError(domain.ErrParseFailure, path, err)
}

func unsupported(path, reason string) error {
	return domain.NewExtractionError(domain.ErrUnsupportedFormat, path, errors.New(reason))
}

// recoverParse turns a panic inside a third-party parser into a parse failure.
func recoverParse(path string, errp *error) {
	if rec := recover(); rec != nil {
		*errp = parseFailure(path, fmt.Errorf("parser panic: %v", rec))
	}
}
