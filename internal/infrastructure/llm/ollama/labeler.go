package ollama

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirillkom/file-organizer/internal/core/domain"
)

// Labeler turns a tag set into a label with two model calls: the tags are
// summarized first and the summary is then classified.
type Labeler struct {
	client *Client
	labels []string
}

func NewLabeler(client *Client, mapping domain.CategoryMapping) *Labeler {
	return &Labeler{client: client, labels: mapping.Labels()}
}

func (l *Labeler) Label(ctx context.Context, tags []string) (string, error) {
	if len(tags) == 0 {
		return "", domain.WrapError(domain.ErrInvalidInput, "ollama label", fmt.Errorf("no tags"))
	}

	summary, err := l.client.Summarize(ctx, buildSummaryPrompt(tags))
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(summary) == "" {
		summary = domain.JoinTags(tags)
	}

	label, err := l.client.Classify(ctx, buildLabelPrompt(summary, l.labels))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(label), nil
}
