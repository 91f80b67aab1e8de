package topics

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fairexam/fairexam/internal/lexicon"
	"github.com/fairexam/fairexam/internal/taxonomy"
)

// GeneralTopic is the last-resort topic for a syllabus with no structure.
const GeneralTopic = "General Topics"

const (
	minHeadingChars = 10
	maxHeadingChars = 100
	maxHeadingWords = 12
	minKeywordChars = 4
	keywordTopics   = 8
)

var (
	// "Unit 1: Sets", "Module II - Graphs", "Chapter 3. Trees"
	unitLine = regexp.MustCompile(`(?i)^\s*(?:unit|module|chapter|topic|week|part)\s*(?:\d{1,2}|[ivx]{1,5})\b\s*[:.\-–—)]?\s*(.{3,})$`)
	// "- Sorting", "• Hashing", "1. Trees", "2) Graphs"
	bulletLine = regexp.MustCompile(`^\s*(?:[-•*▪◦‣]|\d{1,2}[.)])\s+(.{3,})$`)
)

// HeuristicExtractor finds topics from the layout of the syllabus: unit
// headings, bullet lists and heading-like lines, then frequent words.
type HeuristicExtractor struct {
	MaxTopics int
}

// Name returns "heuristic".
func (h *HeuristicExtractor) Name() string { return "heuristic" }

// Extract never returns an empty list for non-blank input.
func (h *HeuristicExtractor) Extract(ctx context.Context, syllabus string) (*Extraction, error) {
	if strings.TrimSpace(syllabus) == "" {
		return nil, ErrNoTopicsFound
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var structured, headings []Topic
	for _, line := range strings.Split(strings.ReplaceAll(syllabus, "\r\n", "\n"), "\n") {
		if m := unitLine.FindStringSubmatch(line); m != nil {
			structured = appendLabel(structured, m[1])
			continue
		}
		if m := bulletLine.FindStringSubmatch(line); m != nil {
			structured = appendLabel(structured, m[1])
			continue
		}
		if isHeading(line) {
			headings = appendLabel(headings, line)
		}
	}

	list := Dedupe(structured)
	if len(list) < 3 {
		list = Dedupe(append(list, headings...))
	}
	if len(list) == 0 {
		list = keywordTopicList(syllabus)
	}
	if len(list) == 0 {
		list = []Topic{{Label: GeneralTopic}}
	}

	return &Extraction{
		Topics: capTopics(list, h.MaxTopics),
		Source: taxonomy.SourceHeuristic,
	}, nil
}

func appendLabel(list []Topic, raw string) []Topic {
	label := strings.TrimSpace(raw)
	label = strings.TrimRight(label, " .;:,")
	if utf8.RuneCountInString(label) < 3 || utf8.RuneCountInString(label) > maxHeadingChars {
		return list
	}
	return append(list, Topic{Label: label})
}

// isHeading reports whether a line looks like a short title: medium length,
// capitalized, few words and not a sentence or a label ending in a colon.
func isHeading(line string) bool {
	line = strings.TrimSpace(line)
	n := utf8.RuneCountInString(line)
	if n < minHeadingChars || n > maxHeadingChars {
		return false
	}
	first, _ := utf8.DecodeRuneInString(line)
	if !unicode.IsUpper(first) {
		return false
	}
	if strings.HasSuffix(line, ".") || strings.HasSuffix(line, ":") {
		return false
	}
	return len(strings.Fields(line)) <= maxHeadingWords
}

// keywordTopicList ranks content words by frequency and title-cases the
// most common ones.
func keywordTopicList(syllabus string) []Topic {
	counts := make(map[string]int)
	var order []string
	for _, tok := range lexicon.Tokenize(syllabus) {
		if utf8.RuneCountInString(tok) < minKeywordChars || lexicon.IsStopWord(tok) || !isWord(tok) {
			continue
		}
		if counts[tok] == 0 {
			order = append(order, tok)
		}
		counts[tok]++
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > keywordTopics {
		order = order[:keywordTopics]
	}

	out := make([]Topic, 0, len(order))
	for _, w := range order {
		r, size := utf8.DecodeRuneInString(w)
		out = append(out, Topic{Label: string(unicode.ToUpper(r)) + w[size:]})
	}
	return out
}

func isWord(tok string) bool {
	for _, r := range tok {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
