package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kirillkom/file-organizer/internal/core/domain"
)

const maxChunkBytes = 1 << 20

// streamChunk covers both generate and chat NDJSON lines. Chat answers carry
// the fragment in message.content; a bare content field is accepted as well.
type streamChunk struct {
	Response string `json:"response"`
	Content  string `json:"content"`
	Message  *struct {
		Content string `json:"content"`
	} `json:"message"`
	Done  bool   `json:"done"`
	Error string `json:"error"`
}

type fragmentFunc func(streamChunk) string

func generateFragment(c streamChunk) string { return c.Response }

func chatFragment(c streamChunk) string {
	if c.Message != nil && c.Message.Content != "" {
		return c.Message.Content
	}
	return c.Content
}

func (c *Client) postStream(ctx context.Context, operation, path string, payload any, pick fragmentFunc) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/x-ndjson")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", unreachable(operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", badStatus(operation, resp)
	}

	var b strings.Builder
	err = accumulate(ctx, resp.Body, pick, func(fragment string) {
		b.WriteString(fragment)
	})
	if err != nil {
		return "", streamFailure(ctx, operation, err)
	}
	return b.String(), nil
}

var errStreamError = errors.New("stream reported error")

// accumulate decodes NDJSON chunks in arrival order until a chunk reports
// done or the body ends. A line that does not decode fails the whole stream.
func accumulate(ctx context.Context, r io.Reader, pick fragmentFunc, emit func(string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxChunkBytes)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var chunk streamChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			return &malformedChunkError{line: truncateLine(line), err: err}
		}
		if chunk.Error != "" {
			return fmt.Errorf("%w: %s", errStreamError, chunk.Error)
		}
		emit(pick(chunk))
		if chunk.Done {
			return nil
		}
	}
	return scanner.Err()
}

type malformedChunkError struct {
	line string
	err  error
}

func (e *malformedChunkError) Error() string {
	return fmt.Sprintf("undecodable chunk %q: %v", e.line, e.err)
}

func (e *malformedChunkError) Unwrap() error { return e.err }

func truncateLine(line []byte) string {
	const limit = 120
	if len(line) > limit {
		return string(line[:limit]) + "..."
	}
	return string(line)
}

func unreachable(operation string, err error) error {
	return domain.NewClassificationServiceError(domain.ErrServiceUnreachable, operation, err)
}

func badStatus(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = resp.Status
	}
	return &domain.ClassificationServiceError{
		Kind:       domain.ErrBadStatus,
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Err:        errors.New(msg),
	}
}

func streamFailure(ctx context.Context, operation string, err error) error {
	var malformed *malformedChunkError
	switch {
	case errors.As(err, &malformed), errors.Is(err, errStreamError), errors.Is(err, bufio.ErrTooLong):
		return domain.NewClassificationServiceError(domain.ErrMalformedResponse, operation, err)
	case ctx.Err() != nil:
		return unreachable(operation, ctx.Err())
	default:
		return unreachable(operation, fmt.Errorf("read stream: %w", err))
	}
}
