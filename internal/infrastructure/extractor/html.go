package extractor

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

type HTML struct {
	maxChars int
}

func NewHTML(maxChars int) *HTML {
	return &HTML{maxChars: maxChars}
}

func (e *HTML) Extract(_ context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", openFailure(path, err)
	}
	defer f.Close()

	decoded, err := charset.NewReader(io.LimitReader(f, maxInputBytes), "text/html")
	if err != nil {
		return "", parseFailure(path, err)
	}

	doc, err := goquery.NewDocumentFromReader(decoded)
	if err != nil {
		return "", parseFailure(path, err)
	}
	doc.Find("script, style, noscript, template").Remove()

	var b strings.Builder
	for _, node := range doc.Nodes {
		collectText(node, &b)
	}
	text := strings.Join(strings.Fields(b.String()), " ")
	return truncateRunes(text, e.maxChars), nil
}

// collectText writes text nodes in document order, separating elements with
// a space so adjacent blocks do not run together.
func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
	if n.Type == html.ElementNode {
		b.WriteByte(' ')
	}
}
