package extractor

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

const maxLineBytes = 64 << 10

type PlainText struct {
	maxLines int
}

func NewPlainText(maxLines int) *PlainText {
	return &PlainText{maxLines: maxLines}
}

func (e *PlainText) Extract(_ context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", openFailure(path, err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	var b strings.Builder
	for lines := 0; lines < e.maxLines; lines++ {
		line, err := readLine(reader)
		b.WriteString(line)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", parseFailure(path, err)
		}
	}

	raw := b.String()
	if !utf8.ValidString(raw) {
		return "", unsupported(path, "binary content in text file")
	}
	return strings.TrimSpace(raw), nil
}

// readLine returns one line including its newline, truncated to maxLineBytes.
func readLine(r *bufio.Reader) (string, error) {
	var b strings.Builder
	for {
		chunk, err := r.ReadSlice('\n')
		if b.Len() < maxLineBytes {
			room := maxLineBytes - b.Len()
			if len(chunk) > room {
				for room > 0 && !utf8.RuneStart(chunk[room]) {
					room--
				}
				chunk = chunk[:room]
			}
			b.Write(chunk)
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return b.String(), err
	}
}
