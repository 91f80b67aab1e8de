// Package topics extracts the topic list of a syllabus, maps exam questions
// onto it and summarizes how evenly the paper covers it.
package topics

import (
	"context"
	"errors"
	"strings"

	"github.com/fairexam/fairexam/internal/taxonomy"
)

// ErrNoTopicsFound is returned when a syllabus yields no topics at all,
// which only happens for blank text.
var ErrNoTopicsFound = errors.New("no topics found in syllabus")

// Topic is one syllabus unit or concept.
type Topic struct {
	Label string `json:"label"`
}

// Labels returns the topic labels in order.
func Labels(topics []Topic) []string {
	out := make([]string, len(topics))
	for i, t := range topics {
		out[i] = t.Label
	}
	return out
}

// Dedupe trims labels and drops blanks and case-insensitive repeats,
// keeping the first spelling seen.
func Dedupe(topics []Topic) []Topic {
	seen := make(map[string]bool, len(topics))
	out := make([]Topic, 0, len(topics))
	for _, t := range topics {
		label := strings.Join(strings.Fields(t.Label), " ")
		key := strings.ToLower(label)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, Topic{Label: label})
	}
	return out
}

// Extraction is the topic list of one syllabus.
type Extraction struct {
	Topics []Topic
	Source taxonomy.Source
}

// Extractor derives the topic list of a syllabus.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, syllabus string) (*Extraction, error)
}
