package keyword

import (
	"strings"
	"unicode"
)

// tokenize splits text into lowercase tokens.
// Removes punctuation, single characters, and common stop words.
func tokenize(text string) []string {
	text = strings.ToLower(text)

	words := strings.FieldsFunc(text, func(c rune) bool {
		return !unicode.IsLetter(c) && !unicode.IsDigit(c)
	})

	var tokens []string
	for _, word := range words {
		if len(word) < 2 {
			continue
		}
		if isStopWord(word) {
			continue
		}
		tokens = append(tokens, word)
	}

	return tokens
}

// stopWords is a minimal list focused on truly generic words. Domain terms
// like "regulation", "permit", or "subsidy" are deliberately NOT filtered.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true,
	"at": true, "be": true, "by": true, "for": true, "from": true,
	"has": true, "have": true, "he": true, "in": true, "is": true,
	"it": true, "its": true, "of": true, "on": true, "or": true,
	"that": true, "the": true, "to": true, "was": true, "were": true,
	"with": true, "this": true, "but": true, "they": true,
	"we": true, "you": true, "your": true, "my": true, "their": true,
	"been": true, "do": true, "does": true, "did": true,
	"shall": true, "may": true, "must": true, "such": true,
}

func isStopWord(word string) bool {
	return stopWords[word]
}
