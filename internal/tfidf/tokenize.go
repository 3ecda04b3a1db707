package tfidf

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// NGramMin and NGramMax bound the word n-grams produced for every document.
const (
	NGramMin = 1
	NGramMax = 2
)

// tokenize lowercases text and returns the maximal runs of word characters
// (letters, digits, marks, underscore) that are at least two runes long.
func tokenize(text string) []string {
	text = strings.ToLower(text)
	var tokens []string
	start, runes := -1, 0
	for i, r := range text {
		if isWordRune(r) {
			if start < 0 {
				start, runes = i, 0
			}
			runes++
			continue
		}
		if start >= 0 && runes >= 2 {
			tokens = append(tokens, text[start:i])
		}
		start = -1
	}
	if start >= 0 && runes >= 2 {
		tokens = append(tokens, text[start:])
	}
	return tokens
}

func isWordRune(r rune) bool {
	if r == utf8.RuneError {
		return false
	}
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsNumber(r) || unicode.Is(unicode.Mn, r)
}

// ngrams expands tokens into all n-grams between NGramMin and NGramMax,
// unigrams first.
func ngrams(tokens []string) []string {
	out := make([]string, 0, len(tokens)*(NGramMax-NGramMin+1))
	for n := NGramMin; n <= NGramMax; n++ {
		if n == 1 {
			out = append(out, tokens...)
			continue
		}
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}

func analyze(text string) []string {
	return ngrams(tokenize(text))
}
