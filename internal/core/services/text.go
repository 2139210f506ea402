package services

import (
	"strings"
	"unicode"
)

// stopwords are dropped from queries before word-overlap and TF-IDF scoring.
var stopwords = map[string]struct{}{
	"a": {}, "about": {}, "am": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "can": {}, "could": {}, "do": {}, "does": {}, "for": {}, "from": {},
	"have": {}, "how": {}, "i": {}, "if": {}, "in": {}, "is": {}, "it": {}, "me": {},
	"my": {}, "of": {}, "on": {}, "or": {}, "our": {}, "so": {}, "than": {}, "that": {},
	"the": {}, "their": {}, "them": {}, "then": {}, "there": {}, "these": {}, "this": {},
	"to": {}, "us": {}, "was": {}, "we": {}, "were": {}, "what": {}, "when": {}, "where": {},
	"which": {}, "who": {}, "why": {}, "will": {}, "with": {}, "would": {}, "you": {},
	"your": {},
}

// normalise lowercases and trims s.
func normalise(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// queryTokens splits a normalised query on whitespace and keeps tokens longer
// than one character that are not stopwords. Edge punctuation is stripped
// so "hours?" yields "hours".
func queryTokens(query string) []string {
	fields := strings.Fields(query)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		t := strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if len([]rune(t)) <= 1 {
			continue
		}
		if _, stop := stopwords[t]; stop {
			continue
		}
		tokens = append(tokens, t)
	}
	return tokens
}

// terms splits text into lowercase alphanumeric terms for TF-IDF,
// dropping stopwords and single characters.
func terms(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) <= 1 {
			continue
		}
		if _, stop := stopwords[f]; stop {
			continue
		}
		out = append(out, f)
	}
	return out
}
