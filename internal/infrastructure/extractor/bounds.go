package extractor

import (
	"io"
	"strings"
)

// maxInputBytes caps how much of a single file body is decoded.
const maxInputBytes = 4 << 20

// boundedReader stops after n bytes and records whether it cut the input short.
type boundedReader struct {
	r         io.Reader
	remaining int64
	exhausted bool
}

func newBoundedReader(r io.Reader, n int64) *boundedReader {
	return &boundedReader{r: r, remaining: n}
}

func (b *boundedReader) Read(p []byte) (int, error) {
	if b.remaining <= 0 {
		b.exhausted = true
		return 0, io.EOF
	}
	if int64(len(p)) > b.remaining {
		p = p[:b.remaining]
	}
	n, err := b.r.Read(p)
	b.remaining -= int64(n)
	return n, err
}

// cappedText accumulates at most limit runes and drops the rest.
type cappedText struct {
	b     strings.Builder
	runes int
	limit int
}

func (c *cappedText) WriteString(s string) {
	for _, r := range s {
		if c.limit > 0 && c.runes >= c.limit {
			return
		}
		c.b.WriteRune(r)
		c.runes++
	}
}

func (c *cappedText) Len() int { return c.b.Len() }

func (c *cappedText) String() string { return c.b.String() }

func (c *cappedText) Reset() {
	c.b.Reset()
	c.runes = 0
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}
