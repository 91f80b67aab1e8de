package document

import (
	"regexp"
	"strings"
)

const (
	// MaxQuestions caps how many questions are taken from one paper.
	MaxQuestions = 50

	minQuestionChars  = 16
	minNumberedChars  = 11
	minParagraphChars = 21
)

var (
	// "1. ...", "2) ...", "Q3. ...", "Question 4: ..."
	numberedLine = regexp.MustCompile(`(?i)^\s*(?:q(?:uestion)?\.?\s*)?\d{1,3}\s*[.):]\s*(\D.*)?$`)
	// "a) ...", "b. ..."
	letteredLine = regexp.MustCompile(`(?i)^\s*[a-z][.)]\s*(.+)$`)
	paragraphSep = regexp.MustCompile(`\n\s*\n`)

	whitespaceRun = regexp.MustCompile(`\s+`)
	disallowed    = regexp.MustCompile(`[^\p{L}\p{N}_\s.,;:?!()\-'"]+`)
)

// SplitQuestions extracts individual questions from exam text. Numbered
// questions are preferred; lettered items and then blank-line separated
// paragraphs are tried when fewer than three are found. Results are
// cleaned, de-duplicated in order and capped at MaxQuestions.
func SplitQuestions(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	questions := splitNumbered(text)
	if len(questions) < 3 {
		questions = append(questions, splitLettered(text)...)
	}
	if len(questions) < 3 {
		questions = splitParagraphs(text)
	}

	seen := make(map[string]bool, len(questions))
	out := make([]string, 0, len(questions))
	for _, q := range questions {
		if len(q) < minQuestionChars || seen[q] {
			continue
		}
		seen[q] = true
		out = append(out, q)
		if len(out) == MaxQuestions {
			break
		}
	}
	return out
}

// splitNumbered starts a new question at every numbered line and folds
// continuation lines into it.
func splitNumbered(text string) []string {
	var (
		out     []string
		current []string
	)
	flush := func() {
		if current == nil {
			return
		}
		q := strings.TrimSpace(strings.Join(current, " "))
		if len(q) >= minNumberedChars {
			out = append(out, CleanText(q))
		}
		current = nil
	}

	for _, line := range strings.Split(text, "\n") {
		if m := numberedLine.FindStringSubmatch(line); m != nil {
			flush()
			current = []string{m[1]}
			continue
		}
		if current != nil && strings.TrimSpace(line) != "" {
			current = append(current, strings.TrimSpace(line))
		}
	}
	flush()
	return out
}

func splitLettered(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		m := letteredLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if q := strings.TrimSpace(m[1]); len(q) >= minNumberedChars {
			out = append(out, CleanText(q))
		}
	}
	return out
}

func splitParagraphs(text string) []string {
	var out []string
	for _, chunk := range paragraphSep.Split(text, -1) {
		if len(strings.TrimSpace(chunk)) >= minParagraphChars {
			out = append(out, CleanText(chunk))
		}
	}
	return out
}

// CleanText collapses whitespace and strips symbols other than common
// punctuation.
func CleanText(s string) string {
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = disallowed.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}
