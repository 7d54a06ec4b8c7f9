// Package analysis derives keyword tags from extracted text without any
// network call. Candidate phrases are maximal runs of content words between
// stopwords and punctuation; they are ranked by frequency, then by first
// appearance, so the result is deterministic for a given input.
package analysis

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/kirillkom/file-organizer/internal/core/domain"
)

const (
	defaultMaxPhraseWords = 3
	minTokenRunes         = 2
	maxAnalyzedRunes      = 200_000
)

type KeywordAnalyzer struct {
	maxTags        int
	maxPhraseWords int
	stopwords      map[string]struct{}
}

func NewKeywordAnalyzer() *KeywordAnalyzer {
	return &KeywordAnalyzer{
		maxTags:        domain.MaxTags,
		maxPhraseWords: defaultMaxPhraseWords,
		stopwords:      englishStopwords,
	}
}

type candidate struct {
	phrase string
	count  int
	first  int
}

// Analyze returns at most domain.MaxTags distinct lowercase phrases.
func (a *KeywordAnalyzer) Analyze(text string) []string {
	if strings.TrimSpace(text) == "" {
		return []string{}
	}
	text = norm.NFKC.String(truncate(text, maxAnalyzedRunes))

	counts := make(map[string]*candidate)
	order := 0
	for _, phrase := range a.phrases(text) {
		c, ok := counts[phrase]
		if !ok {
			c = &candidate{phrase: phrase, first: order}
			counts[phrase] = c
			order++
		}
		c.count++
	}

	ranked := make([]*candidate, 0, len(counts))
	for _, c := range counts {
		ranked = append(ranked, c)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].first < ranked[j].first
	})

	out := make([]string, 0, a.maxTags)
	for _, c := range ranked {
		if len(out) == a.maxTags {
			break
		}
		out = append(out, c.phrase)
	}
	return out
}

// phrases splits text into candidate keyword phrases.
func (a *KeywordAnalyzer) phrases(text string) []string {
	var out []string
	var run []string

	flush := func() {
		for len(run) > 0 {
			n := len(run)
			if n > a.maxPhraseWords {
				n = a.maxPhraseWords
			}
			out = append(out, strings.Join(run[:n], " "))
			run = run[n:]
		}
	}

	for _, sentence := range splitClauses(text) {
		for _, token := range tokenize(sentence) {
			if a.isNoise(token) {
				flush()
				continue
			}
			run = append(run, token)
		}
		flush()
	}
	return out
}

func (a *KeywordAnalyzer) isNoise(token string) bool {
	if _, ok := a.stopwords[token]; ok {
		return true
	}
	letters := 0
	for _, r := range token {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return letters == 0 || len([]rune(token)) < minTokenRunes
}

// splitClauses breaks text at punctuation that ends a noun phrase.
func splitClauses(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		switch r {
		case '\'', '-', '_':
			return false
		}
		return unicode.IsPunct(r) || unicode.IsSymbol(r) || r == '\n' || r == '\r'
	})
}

// tokenize lowercases and splits a clause into words of letters and digits.
func tokenize(s string) []string {
	out := make([]string, 0, 16)
	var b strings.Builder
	for _, r := range s {
		r = unicode.ToLower(r)
		if unicode.IsLetter(r) || unicode.IsDigit(r) || (b.Len() > 0 && (r == '\'' || r == '-')) {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			out = append(out, strings.Trim(b.String(), "'-"))
			b.Reset()
		}
	}
	if b.Len() > 0 {
		out = append(out, strings.Trim(b.String(), "'-"))
	}
	return out
}

func truncate(s string, limit int) string {
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}
