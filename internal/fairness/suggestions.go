package fairness

import (
	"fmt"
	"strings"

	"github.com/fairexam/fairexam/internal/taxonomy"
	"github.com/fairexam/fairexam/internal/topics"
)

// Suggestion texts that do not depend on the paper.
const (
	SuggestFewerEasy       = "Too many easy questions. Consider replacing some with medium-difficulty questions."
	SuggestMoreEasy        = "Add more easy questions to ensure accessibility for all students."
	SuggestMoreMedium      = "Increase medium-difficulty questions to better assess core understanding."
	SuggestFewerMedium     = "Most questions are medium difficulty. Add some easy and challenging questions to spread the range."
	SuggestFewerHard       = "Too many hard questions may disadvantage students. Consider reducing complexity."
	SuggestMoreHard        = "Add challenging questions to differentiate high-performing students."
	SuggestFewerLowerOrder = "Too many lower-order thinking questions. Add more analysis and application questions."
	SuggestHigherOrder     = "No higher-order thinking questions detected. Include questions requiring analysis or evaluation."
	SuggestLowCoverage     = "Less than %g%% of syllabus covered. Add questions for missing topics."
	SuggestBalanced        = "Exam paper shows excellent balance across all fairness dimensions."
)

const listedTopics = 3

// suggestions runs the rules in a fixed order: difficulty, then cognitive
// level, then coverage. Each rule is independent.
func (s *Scorer) suggestions(
	difficulty map[taxonomy.Difficulty]int,
	cognitive map[taxonomy.CognitiveLevel]int,
	total int,
	coverage *topics.Coverage,
) []string {
	var out []string
	tol := s.cfg.SuggestionTolerance

	if total > 0 {
		easy := percent(difficulty[taxonomy.Easy], total)
		medium := percent(difficulty[taxonomy.Medium], total)
		hard := percent(difficulty[taxonomy.Hard], total)
		ideal := s.cfg.IdealDifficulty

		switch {
		case easy > ideal.Easy+tol:
			out = append(out, SuggestFewerEasy)
		case easy < ideal.Easy-tol:
			out = append(out, SuggestMoreEasy)
		}
		switch {
		case medium < ideal.Medium-tol:
			out = append(out, SuggestMoreMedium)
		case medium > ideal.Medium+tol:
			out = append(out, SuggestFewerMedium)
		}
		switch {
		case hard > ideal.Hard+tol:
			out = append(out, SuggestFewerHard)
		case hard < ideal.Hard-tol:
			out = append(out, SuggestMoreHard)
		}

		lower, higher, levels := 0, 0, 0
		for _, l := range taxonomy.CognitiveLevels {
			n := cognitive[l]
			if n > 0 {
				levels++
			}
			if l.LowerOrder() {
				lower += n
			}
			if l.HigherOrder() {
				higher += n
			}
		}
		if percent(lower, total) > s.cfg.LowerOrderMaxShare {
			out = append(out, SuggestFewerLowerOrder)
		}
		if higher == 0 {
			out = append(out, SuggestHigherOrder)
		}
		if levels < s.cfg.MinBloomLevels {
			out = append(out, fmt.Sprintf(
				"Only %d of 6 cognitive levels are assessed. Vary the question verbs to cover at least %d levels.",
				levels, s.cfg.MinBloomLevels))
		}
	}

	if n := len(coverage.Ignored); n > 0 {
		out = append(out, fmt.Sprintf("%d syllabus topic(s) not covered: %s", n, listTopics(coverage.Ignored)))
	}
	if len(coverage.OverRepresented) > 0 {
		out = append(out, fmt.Sprintf("Over-emphasis on: %s. Distribute questions more evenly.",
			listTopics(coverage.OverRepresented)))
	}
	if coverage.Percentage < s.cfg.MinCoveragePercent {
		out = append(out, fmt.Sprintf(SuggestLowCoverage, s.cfg.MinCoveragePercent))
	}
	if n := len(coverage.Unmapped); n > 0 {
		out = append(out, fmt.Sprintf("%d question(s) do not match any syllabus topic. Check that they are in scope.", n))
	}

	if len(out) == 0 {
		out = append(out, SuggestBalanced)
	}
	return out
}

// listTopics joins the first few labels and marks the rest with "...".
func listTopics(labels []string) string {
	if len(labels) <= listedTopics {
		return strings.Join(labels, ", ")
	}
	return strings.Join(labels[:listedTopics], ", ") + "..."
}
