// Package tokenizer provides text tokenisation for the lyrics index.
// It lower-cases input, drops every character that is not an ASCII letter or
// whitespace, and splits on whitespace runs. There is no stemming and no
// stop-word removal: the vocabulary is exactly the set of surviving words.
package tokenizer

import (
	"strings"
	"unicode"
)

// Tokenize breaks text into lowercased, alphabetic-only terms in the order
// they appear. Duplicates are kept; empty terms are never produced.
//
// Non-letter characters are removed rather than treated as separators, so
// "don't" becomes "dont" and "rock-n-roll" becomes "rocknroll".
func Tokenize(text string) []string {
	text = strings.ToLower(text)
	terms := make([]string, 0, len(text)/6)
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			terms = append(terms, b.String())
			b.Reset()
		}
	}
	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			flush()
		}
	}
	flush()
	return terms
}

// Counts returns how many times each term of text occurs.
func Counts(text string) map[string]int {
	terms := Tokenize(text)
	counts := make(map[string]int, len(terms))
	for _, term := range terms {
		counts[term]++
	}
	return counts
}
