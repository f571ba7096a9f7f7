// Package services holds domain services shared by the retrieval stores:
// text analysis and similarity scoring over request text.
package services

import (
	"strings"
	"unicode"
)

// TextAnalyzer provides text analysis for similarity-based retrieval
type TextAnalyzer interface {
	// ExtractKeywords extracts meaningful keywords from text
	ExtractKeywords(text string) []string

	// TokenizeWords breaks text into a set of unique lowercase words
	TokenizeWords(text string) map[string]bool
}

// DefaultTextAnalyzer implements TextAnalyzer with a stop-word filter
type DefaultTextAnalyzer struct {
	stopWords map[string]bool
}

// NewDefaultTextAnalyzer creates a text analyzer with common English stop words
func NewDefaultTextAnalyzer() *DefaultTextAnalyzer {
	return &DefaultTextAnalyzer{stopWords: stopWords}
}

// ExtractKeywords extracts meaningful keywords from text
func (ta *DefaultTextAnalyzer) ExtractKeywords(text string) []string {
	words := ta.TokenizeWords(text)
	keywords := make([]string, 0, len(words))
	for word := range words {
		if !ta.stopWords[word] && len(word) > 2 {
			keywords = append(keywords, word)
		}
	}
	return keywords
}

// TokenizeWords breaks text into a set of unique lowercase words
func (ta *DefaultTextAnalyzer) TokenizeWords(text string) map[string]bool {
	words := make(map[string]bool)
	text = strings.ToLower(text)

	var current strings.Builder
	flush := func() {
		if current.Len() > 1 {
			words[current.String()] = true
		}
		current.Reset()
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()

	return words
}

// stopWords contains common words filtered out during keyword extraction
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true,
	"and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "up": true, "about": true,
	"into": true, "through": true, "during": true, "before": true, "after": true,
	"is": true, "am": true, "are": true, "was": true, "were": true,
	"be": true, "been": true, "being": true,
	"have": true, "has": true, "had": true, "do": true, "does": true, "did": true,
	"will": true, "would": true, "should": true, "could": true,
	"it": true, "its": true, "this": true, "that": true, "these": true, "those": true,
	"as": true, "if": true, "each": true, "how": true, "than": true,
	"too": true, "very": true, "can": true, "just": true, "also": true,
	"please": true, "named": true, "called": true,
}
