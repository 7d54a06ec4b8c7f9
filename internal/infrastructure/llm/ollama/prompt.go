package ollama

import (
	"fmt"
	"strings"
)

const maxSummarySnippet = 4000

func buildSummaryPrompt(tags []string) string {
	return fmt.Sprintf(`Summarize in one short sentence what a document tagged with these keywords is about.
No markdown, no lists.

Keywords: %s`, strings.Join(tags, " "))
}

func buildLabelPrompt(summary string, labels []string) string {
	snippet := strings.TrimSpace(summary)
	snippet = truncateRunes(snippet, maxSummarySnippet)

	return fmt.Sprintf(`You are a file classifier.
Answer with exactly one word chosen from: %s.
Use misc when nothing fits. No punctuation, no explanation.

Description:
%s`, strings.Join(labels, ", "), snippet)
}

func truncateRunes(s string, limit int) string {
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}
