// Package lexicon holds the tokenizer, stop-word list and light stemmer
// used by the heuristic classifiers.
package lexicon

import (
	"strings"
	"unicode"
)

// Tokenize lower-cases s and splits it on anything that is not a letter
// or digit. Apostrophes inside words are dropped ("don't" → "dont").
func Tokenize(s string) []string {
	s = strings.ReplaceAll(strings.ToLower(s), "'", "")
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// ContentTokens returns the stemmed tokens of s with stop words and
// single characters removed.
func ContentTokens(s string) []string {
	var out []string
	for _, tok := range Tokenize(s) {
		if len(tok) < 2 || IsStopWord(tok) {
			continue
		}
		out = append(out, Stem(tok))
	}
	return out
}

// IsStopWord reports whether tok (lower-case) carries no topical meaning.
func IsStopWord(tok string) bool {
	_, ok := stopWords[tok]
	return ok
}

// Stem strips common English inflections so "networks", "networking" and
// "network" compare equal. It is deliberately conservative: words of four
// letters or fewer are returned unchanged.
func Stem(tok string) string {
	if len(tok) <= 4 {
		return tok
	}
	for _, rule := range stemRules {
		if strings.HasSuffix(tok, rule.suffix) && len(tok)-len(rule.suffix) >= 3 {
			return tok[:len(tok)-len(rule.suffix)] + rule.replace
		}
	}
	return tok
}

var stemRules = []struct {
	suffix, replace string
}{
	{"ational", "ate"},
	{"ization", "ize"},
	{"ations", "ate"},
	{"ation", "ate"},
	{"ments", "ment"},
	{"ness", ""},
	{"ings", ""},
	{"ing", ""},
	{"ies", "y"},
	{"ied", "y"},
	{"sses", "ss"},
	{"ches", "ch"},
	{"shes", "sh"},
	{"xes", "x"},
	{"es", "e"},
	{"ed", ""},
	{"ss", "ss"},
	{"is", "is"},
	{"us", "us"},
	{"s", ""},
}

// stopWords covers English function words plus exam boilerplate that says
// nothing about subject matter.
var stopWords = toSet(
	// function words
	"a", "about", "above", "after", "again", "against", "all", "also", "am", "an", "and", "any",
	"are", "as", "at", "be", "because", "been", "before", "being", "below", "between", "both",
	"but", "by", "can", "could", "did", "do", "does", "doing", "down", "during", "each", "either",
	"etc", "few", "for", "from", "further", "had", "has", "have", "having", "he", "her", "here",
	"hers", "him", "his", "how", "i", "if", "in", "into", "is", "it", "its", "itself", "just",
	"may", "me", "might", "more", "most", "must", "my", "no", "nor", "not", "of", "off", "on",
	"once", "one", "only", "or", "other", "our", "out", "over", "own", "same", "shall", "she",
	"should", "so", "some", "such", "than", "that", "the", "their", "them", "then", "there",
	"these", "they", "this", "those", "through", "to", "too", "two", "under", "until", "up",
	"upon", "us", "very", "was", "we", "were", "what", "when", "where", "which", "while", "who",
	"whom", "why", "will", "with", "within", "without", "would", "you", "your",
	// exam and syllabus boilerplate
	"answer", "answers", "briefly", "chapter", "course", "detail", "details", "example",
	"examples", "following", "give", "given", "marks", "mark", "module", "question", "questions",
	"suitable", "topic", "topics", "unit", "using", "week", "write",
)

func toSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
