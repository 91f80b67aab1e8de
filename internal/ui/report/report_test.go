package report

import (
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"

	"github.com/fairexam/fairexam/internal/analysis"
	"github.com/fairexam/fairexam/internal/classify"
	"github.com/fairexam/fairexam/internal/taxonomy"
)

func sample() *analysis.Report {
	return &analysis.Report{
		FairnessScore:  64.2,
		Interpretation: "Fair - This exam paper is acceptable but has noticeable imbalances.",
		Band:           "Fair",
		ComponentScores: map[string]analysis.ComponentScore{
			"difficulty_balance": {Score: 75, Weight: 40, WeightedContribution: 30},
			"blooms_balance":     {Score: 40, Weight: 30, WeightedContribution: 12},
			"syllabus_coverage":  {Score: 74, Weight: 30, WeightedContribution: 22.2},
		},
		Suggestions: []string{"Add challenging questions to differentiate high-performing students."},
		DifficultyAnalysis: analysis.DifficultyAnalysis{
			Distribution:   map[taxonomy.Difficulty]int{taxonomy.Easy: 2, taxonomy.Medium: 1, taxonomy.Hard: 0},
			TotalQuestions: 3,
		},
		BloomsAnalysis: analysis.BloomsAnalysis{
			Distribution:   map[taxonomy.CognitiveLevel]int{taxonomy.Remember: 2, taxonomy.Understand: 1},
			TotalQuestions: 3,
		},
		CoverageAnalysis: analysis.CoverageAnalysis{
			CoveragePercentage: 66.67,
			CoveredTopics:      2,
			TotalTopics:        3,
			IgnoredTopics:      []string{"Counting"},
			OverRepresented:    []string{},
		},
		BiasAnalysis: analysis.BiasAnalysis{
			Issues:             []string{},
			FairnessIndicators: map[string]float64{},
		},
		ExamMetadata: analysis.ExamMetadata{ExamFilename: "exam.pdf", SyllabusFilename: "syllabus.txt"},
		Diagnostics:  &analysis.Diagnostics{FallbackStages: []string{"classification"}},
		Questions: []*classify.Question{
			{ID: 1, Text: "Define a set.", Difficulty: taxonomy.Easy, CognitiveLevel: taxonomy.Remember, Source: taxonomy.SourceHeuristic},
		},
		Assignments: map[int][]string{1: {"Sets"}},
	}
}

func TestRender(t *testing.T) {
	out := ansi.Strip(Render(sample(), 100, true))

	assert.Contains(t, out, "Exam Fairness Report")
	assert.Contains(t, out, "64.2 / 100  Fair")
	assert.Contains(t, out, "Difficulty balance (40%)")
	assert.Contains(t, out, "2 of 3 topics covered (66.7%)")
	assert.Contains(t, out, "Not covered: Counting")
	assert.Contains(t, out, "Define a set. *")
	assert.Contains(t, out, "Not assessed")
	assert.Contains(t, out, "→ Add challenging questions")
	assert.Contains(t, out, "Heuristic fallback used for: classification")
}

func TestRender_Compact(t *testing.T) {
	out := ansi.Strip(Render(sample(), 0, false))
	assert.NotContains(t, out, "labelled by heuristics")
	assert.Contains(t, out, "Bloom's:")
}
