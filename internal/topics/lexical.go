package topics

import (
	"context"
	"sort"
	"strings"

	"github.com/fairexam/fairexam/internal/classify"
	"github.com/fairexam/fairexam/internal/lexicon"
	"github.com/fairexam/fairexam/internal/taxonomy"
)

// LexicalMatcher matches questions to topics by shared content words.
type LexicalMatcher struct {
	// MinSharedTokens is the overlap needed for a match.
	MinSharedTokens int

	// MaxTopicsPerQuestion caps the matches per question.
	MaxTopicsPerQuestion int
}

// NewLexicalMatcher returns a matcher with the default thresholds.
func NewLexicalMatcher() *LexicalMatcher {
	return &LexicalMatcher{MinSharedTokens: 1, MaxTopicsPerQuestion: MaxTopicsPerQuestion}
}

// Name returns "lexical".
func (m *LexicalMatcher) Name() string { return "lexical" }

type topicTerms struct {
	label  string
	tokens map[string]bool
	phrase string
}

// Match resolves every question. It fails if ctx is done or there are no
// topics to match against.
func (m *LexicalMatcher) Match(ctx context.Context, questions []*classify.Question, topics []Topic) (*Matching, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(topics) == 0 {
		return nil, ErrNoTopicsFound
	}

	terms := make([]topicTerms, len(topics))
	for i, t := range topics {
		toks := lexicon.ContentTokens(t.Label)
		terms[i] = topicTerms{label: t.Label, tokens: toSet(toks)}
		if len(toks) > 1 {
			terms[i].phrase = " " + strings.Join(toks, " ") + " "
		}
	}

	matching := &Matching{Assignments: make(map[int][]string, len(questions)), Source: taxonomy.SourceHeuristic}
	for _, q := range questions {
		matching.Assignments[q.ID] = m.matchOne(q.Text, terms)
	}
	return matching, nil
}

func (m *LexicalMatcher) matchOne(text string, terms []topicTerms) []string {
	toks := lexicon.ContentTokens(text)
	qset := toSet(toks)
	qphrase := " " + strings.Join(toks, " ") + " "

	type hit struct {
		label   string
		overlap int
		order   int
	}
	var hits []hit
	for i, t := range terms {
		overlap := 0
		for tok := range t.tokens {
			if qset[tok] {
				overlap++
			}
		}
		phrase := t.phrase != "" && strings.Contains(qphrase, t.phrase)
		if overlap >= m.MinSharedTokens || phrase {
			if phrase {
				overlap++
			}
			hits = append(hits, hit{label: t.label, overlap: overlap, order: i})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].overlap != hits[j].overlap {
			return hits[i].overlap > hits[j].overlap
		}
		return hits[i].order < hits[j].order
	})

	max := m.MaxTopicsPerQuestion
	if max <= 0 {
		max = MaxTopicsPerQuestion
	}
	labels := make([]string, 0, max)
	for _, h := range hits {
		if len(labels) == max {
			break
		}
		labels = append(labels, h.label)
	}
	return labels
}

func toSet(toks []string) map[string]bool {
	set := make(map[string]bool, len(toks))
	for _, t := range toks {
		set[t] = true
	}
	return set
}
