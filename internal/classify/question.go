// Package classify labels exam questions with a difficulty, a Bloom's
// Taxonomy level and potential bias flags.
package classify

import (
	"context"
	"sort"

	"github.com/fairexam/fairexam/internal/taxonomy"
)

// Question is one classified exam question.
type Question struct {
	// ID is the 1-based position of the question in the paper.
	ID             int                     `json:"id"`
	Text           string                  `json:"text"`
	Difficulty     taxonomy.Difficulty     `json:"difficulty"`
	CognitiveLevel taxonomy.CognitiveLevel `json:"cognitive_level"`
	BiasFlags      []taxonomy.BiasFlag     `json:"bias_flags"`
	BiasNotes      string                  `json:"bias_notes,omitempty"`
	Source         taxonomy.Source         `json:"source"`
}

// BiasAssessed reports whether the question went through a classifier that
// can detect bias. Heuristic questions carry no flags, but that does not
// mean they were found to be fair.
func (q *Question) BiasAssessed() bool {
	return q.Source == taxonomy.SourceAI
}

// Classifier labels a batch of questions.
type Classifier interface {
	// Name identifies the classifier in logs and diagnostics.
	Name() string

	// Classify returns one entry per input text, in order. A nil entry
	// means the classifier could not label that question.
	Classify(ctx context.Context, texts []string) ([]*Question, error)
}

// normalizeFlags de-duplicates flags and orders them as taxonomy.BiasFlags
// does. The result is never nil.
func normalizeFlags(flags []taxonomy.BiasFlag) []taxonomy.BiasFlag {
	rank := make(map[taxonomy.BiasFlag]int, len(taxonomy.BiasFlags))
	for i, f := range taxonomy.BiasFlags {
		rank[f] = i
	}

	seen := make(map[taxonomy.BiasFlag]bool, len(flags))
	out := make([]taxonomy.BiasFlag, 0, len(flags))
	for _, f := range flags {
		if _, known := rank[f]; !known || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return rank[out[i]] < rank[out[j]] })
	return out
}
