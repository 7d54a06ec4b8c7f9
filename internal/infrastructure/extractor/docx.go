package extractor

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

const docxBodyPart = "word/document.xml"

// DOCX reads the first maxParagraphs paragraphs, each capped at maxChars runes.
type DOCX struct {
	maxParagraphs int
	maxChars      int
}

func NewDOCX(maxParagraphs, maxChars int) *DOCX {
	return &DOCX{maxParagraphs: maxParagraphs, maxChars: maxChars}
}

func (e *DOCX) Extract(_ context.Context, path string) (string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			return "", parseFailure(path, err)
		}
		return "", openFailure(path, err)
	}
	defer archive.Close()

	var body *zip.File
	for _, f := range archive.File {
		if f.Name == docxBodyPart {
			body = f
			break
		}
	}
	if body == nil {
		return "", parseFailure(path, errors.New("missing "+docxBodyPart))
	}

	rc, err := body.Open()
	if err != nil {
		return "", parseFailure(path, err)
	}
	defer rc.Close()

	bounded := newBoundedReader(rc, maxInputBytes)
	paragraphs, err := readParagraphs(bounded, e.maxParagraphs, e.maxChars)
	if err != nil && !bounded.exhausted {
		return "", parseFailure(path, err)
	}
	return strings.TrimSpace(strings.Join(paragraphs, "\n")), nil
}

// readParagraphs collects the text runs of the first limit <w:p> elements.
// On a decode error the paragraphs read so far, including a partial one,
// are returned together with the error.
func readParagraphs(r io.Reader, limit, maxChars int) ([]string, error) {
	decoder := xml.NewDecoder(r)
	out := make([]string, 0, limit)

	current := cappedText{limit: maxChars}
	inParagraph := false
	inText := false

	for len(out) < limit {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if inParagraph && current.Len() > 0 {
				out = append(out, current.String())
			}
			return out, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inParagraph = true
				current.Reset()
			case "t":
				inText = inParagraph
			case "tab":
				if inParagraph {
					current.WriteString("\t")
				}
			case "br":
				if inParagraph {
					current.WriteString("\n")
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if inParagraph {
					out = append(out, current.String())
				}
				inParagraph = false
			}
		case xml.CharData:
			if inText {
				current.WriteString(string(t))
			}
		}
	}
	return out, nil
}
