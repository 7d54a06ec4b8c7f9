package extractor

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/file-organizer/internal/core/domain"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func writeDOCX(t *testing.T, dir, name string, paragraphs ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create(docxBodyPart)
	if err != nil {
		t.Fatalf("create docx body: %v", err)
	}

	var body strings.Builder
	body.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	body.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		fmt.Fprintf(&body, `<w:p><w:r><w:t>%s</w:t></w:r></w:p>`, p)
	}
	body.WriteString(`</w:body></w:document>`)
	if _, err := w.Write([]byte(body.String())); err != nil {
		t.Fatalf("write docx body: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close docx archive: %v", err)
	}
	return path
}

func extract(t *testing.T, limits Limits, path string) string {
	t.Helper()
	got, err := NewRegistry(limits).Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract(%s) error = %v", filepath.Base(path), err)
	}
	return got
}

func TestExtractPlainText(t *testing.T) {
	path := writeFile(t, t.TempDir(), "test.txt", "Hello, world!")

	if got := extract(t, DefaultLimits(), path); got != "Hello, world!" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestExtractMissingFileIsNotFound(t *testing.T) {
	registry := NewRegistry(DefaultLimits())
	for _, ext := range registry.Extensions() {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "non_existent_file"+ext)
			_, err := registry.Extract(context.Background(), path)
			if !errors.Is(err, domain.ErrFileNotFound) {
				t.Fatalf("expected not found, got %v", err)
			}

			var extractErr *domain.ExtractionError
			if !errors.As(err, &extractErr) {
				t.Fatalf("expected ExtractionError, got %T", err)
			}
			if extractErr.Path != path {
				t.Fatalf("unexpected error path %q", extractErr.Path)
			}
		})
	}
}

func TestHandlersReportMissingFileDirectly(t *testing.T) {
	limits := DefaultLimits()
	handlers := map[string]Extractor{
		".txt":  NewPlainText(limits.TextLines),
		".pdf":  NewPDF(limits.PDFPages),
		".docx": NewDOCX(limits.DOCXParagraphs, limits.HTMLChars),
		".csv":  NewCSV(limits.CSVRows, limits.HTMLChars),
		".html": NewHTML(limits.HTMLChars),
	}
	for ext, handler := range handlers {
		path := filepath.Join(t.TempDir(), "missing"+ext)
		if _, err := handler.Extract(context.Background(), path); !errors.Is(err, domain.ErrFileNotFound) {
			t.Fatalf("%s: expected not found, got %v", ext, err)
		}
	}
}

func TestExtractUnsupportedExtensionIsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "photo.jpg", "\xff\xd8\xff")

	if got := extract(t, DefaultLimits(), path); got != "" {
		t.Fatalf("expected empty text, got %q", got)
	}
	if got := extract(t, DefaultLimits(), filepath.Join(dir, "gone.bin")); got != "" {
		t.Fatalf("expected empty text, got %q", got)
	}
}

func TestExtractExtensionIsCaseInsensitive(t *testing.T) {
	path := writeFile(t, t.TempDir(), "NOTES.TXT", "upper case extension")

	if got := extract(t, DefaultLimits(), path); got != "upper case extension" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestExtractPlainTextLineLimit(t *testing.T) {
	path := writeFile(t, t.TempDir(), "long.txt", "one\ntwo\nthree\nfour\n")

	if got := extract(t, Limits{TextLines: 2}, path); got != "one\ntwo" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestExtractBinaryTextIsUnsupported(t *testing.T) {
	path := writeFile(t, t.TempDir(), "blob.txt", "\xff\xfe\x00\x01")

	_, err := NewRegistry(DefaultLimits()).Extract(context.Background(), path)
	if !errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format, got %v", err)
	}
}

func TestExtractDirectoryIsUnsupported(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "folder.txt")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	_, err := NewRegistry(DefaultLimits()).Extract(context.Background(), dir)
	if !errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format, got %v", err)
	}
}

func TestExtractCSVRowLimit(t *testing.T) {
	path := writeFile(t, t.TempDir(), "table.csv", "name,amount\ninvoice,10\nrefund,-2\nfee,1\n")

	if got := extract(t, Limits{CSVRows: 2}, path); got != "name amount\ninvoice 10\nrefund -2" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestExtractHTMLStripsScripts(t *testing.T) {
	html := `<html><head><title>Budget</title><style>p{}</style></head>
<body><script>alert(1)</script><h1>Quarterly   budget</h1><p>Finance team</p></body></html>`
	path := writeFile(t, t.TempDir(), "page.htm", html)

	if got := extract(t, DefaultLimits(), path); got != "Budget Quarterly budget Finance team" {
		t.Fatalf("unexpected text %q", got)
	}
	if got := extract(t, Limits{HTMLChars: 6}, path); got != "Budget" {
		t.Fatalf("unexpected truncated text %q", got)
	}
}

func TestExtractDOCXParagraphLimit(t *testing.T) {
	path := writeDOCX(t, t.TempDir(), "letter.docx", "Dear team", "Project kickoff", "Regards")

	if got := extract(t, Limits{DOCXParagraphs: 2}, path); got != "Dear team\nProject kickoff" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestExtractOversizedUnitsStayBounded(t *testing.T) {
	dir := t.TempDir()
	huge := strings.Repeat("lorem ", 2_000_000)
	limits := DefaultLimits()

	cases := map[string]string{
		"docx": writeDOCX(t, dir, "big.docx", huge),
		"csv":  writeFile(t, dir, "big.csv", huge+"\n"),
	}
	for name, path := range cases {
		got := extract(t, limits, path)
		if n := utf8.RuneCountInString(got); n == 0 || n > limits.HTMLChars {
			t.Fatalf("%s: expected 1..%d runes, got %d", name, limits.HTMLChars, n)
		}
		if !strings.HasPrefix(got, "lorem lorem") {
			t.Fatalf("%s: unexpected prefix %q", name, got[:min(len(got), 20)])
		}
	}
}

func TestExtractOversizedXLSXRowIsTruncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wide.xlsx")
	book := excelize.NewFile()
	if err := book.SetCellValue("Sheet1", "A1", strings.Repeat("ledger ", 3000)); err != nil {
		t.Fatalf("set cell: %v", err)
	}
	if err := book.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	_ = book.Close()

	got := extract(t, Limits{HTMLChars: 100}, path)
	if n := utf8.RuneCountInString(got); n == 0 || n > 100 {
		t.Fatalf("expected at most 100 runes, got %d", n)
	}
}

func TestExtractCorruptDOCXIsParseFailure(t *testing.T) {
	path := writeFile(t, t.TempDir(), "broken.docx", "not a zip archive")

	_, err := NewRegistry(DefaultLimits()).Extract(context.Background(), path)
	if !errors.Is(err, domain.ErrParseFailure) {
		t.Fatalf("expected parse failure, got %v", err)
	}
}

func TestExtractCorruptPDFIsParseFailure(t *testing.T) {
	path := writeFile(t, t.TempDir(), "broken.pdf", "%PDF-1.4 garbage")

	_, err := NewRegistry(DefaultLimits()).Extract(context.Background(), path)
	if !errors.Is(err, domain.ErrParseFailure) {
		t.Fatalf("expected parse failure, got %v", err)
	}
}

func TestExtractXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.xlsx")
	book := excelize.NewFile()
	cells := map[string]any{"A1": "Account", "B1": "Balance", "A2": "Savings", "B2": 1200, "A3": "Checking"}
	for cell, value := range cells {
		if err := book.SetCellValue("Sheet1", cell, value); err != nil {
			t.Fatalf("set %s: %v", cell, err)
		}
	}
	if err := book.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	_ = book.Close()

	if got := extract(t, Limits{XLSXRows: 2}, path); got != "Account Balance\nSavings 1200" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestRegisterCustomExtractor(t *testing.T) {
	registry := NewRegistry(DefaultLimits())
	registry.Register("md", ExtractorFunc(func(context.Context, string) (string, error) {
		return "markdown", nil
	}))
	path := writeFile(t, t.TempDir(), "README.md", "# title")

	if !registry.Supports(path) {
		t.Fatal("expected .md to be supported after Register")
	}
	got, err := registry.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got != "markdown" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestExtractHonoursCancelledContext(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.txt", "text")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewRegistry(DefaultLimits()).Extract(ctx, path); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
