package analysis

import (
	"math"

	"github.com/fairexam/fairexam/internal/classify"
	"github.com/fairexam/fairexam/internal/fairness"
	"github.com/fairexam/fairexam/internal/taxonomy"
	"github.com/fairexam/fairexam/internal/topics"
)

// Report is the complete result of one analysis. Its JSON form is the
// contract consumed by the web frontend.
type Report struct {
	FairnessScore      float64                   `json:"fairness_score"`
	Interpretation     string                    `json:"interpretation"`
	ComponentScores    map[string]ComponentScore `json:"component_scores"`
	Suggestions        []string                  `json:"suggestions"`
	DifficultyAnalysis DifficultyAnalysis        `json:"difficulty_analysis"`
	BloomsAnalysis     BloomsAnalysis            `json:"blooms_analysis"`
	CoverageAnalysis   CoverageAnalysis          `json:"coverage_analysis"`
	BiasAnalysis       BiasAnalysis              `json:"bias_analysis"`
	ExamMetadata       ExamMetadata              `json:"exam_metadata"`
	Diagnostics        *Diagnostics              `json:"diagnostics,omitempty"`

	// Band is the interpretation band label, e.g. "Good".
	Band string `json:"-"`

	// Questions holds the per-question labels for renderers and exports.
	Questions []*classify.Question `json:"-"`

	// Assignments maps question IDs to their matched topics.
	Assignments map[int][]string `json:"-"`
}

// ComponentScore is one weighted part of the fairness score.
type ComponentScore struct {
	Score                float64 `json:"score"`
	Weight               float64 `json:"weight"`
	WeightedContribution float64 `json:"weighted_contribution"`
}

// DifficultyAnalysis counts questions per difficulty. Every difficulty is
// present in Distribution.
type DifficultyAnalysis struct {
	Distribution   map[taxonomy.Difficulty]int `json:"distribution"`
	TotalQuestions int                         `json:"total_questions"`
}

// BloomsAnalysis counts questions per cognitive level. Every level is
// present in Distribution.
type BloomsAnalysis struct {
	Distribution   map[taxonomy.CognitiveLevel]int `json:"distribution"`
	TotalQuestions int                             `json:"total_questions"`
}

type CoverageAnalysis struct {
	CoveragePercentage float64        `json:"coverage_percentage"`
	CoveredTopics      int            `json:"covered_topics"`
	TotalTopics        int            `json:"total_topics"`
	OverRepresented    []string       `json:"over_represented"`
	IgnoredTopics      []string       `json:"ignored_topics"`
	TopicCoverage      map[string]int `json:"topic_coverage"`
}

type BiasAnalysis struct {
	BiasDetected bool     `json:"bias_detected"`
	Issues       []string `json:"issues"`

	// FairnessIndicators holds, per indicator, the percentage of
	// bias-assessed questions without the matching flag. It is empty when
	// no question was assessed.
	FairnessIndicators map[string]float64 `json:"fairness_indicators"`
}

type ExamMetadata struct {
	ExamFilename     string   `json:"exam_filename"`
	SyllabusFilename string   `json:"syllabus_filename"`
	TotalQuestions   int      `json:"total_questions"`
	SyllabusTopics   []string `json:"syllabus_topics"`
}

// Diagnostics records how the analysis was produced.
type Diagnostics struct {
	AnalysisID      string `json:"analysis_id"`
	ClassifierModel string `json:"classifier_model"`

	// FallbackStages lists the stages that used heuristics for some or all
	// of their output: "topic_extraction", "classification",
	// "topic_matching".
	FallbackStages        []string `json:"fallback_stages"`
	HeuristicQuestions    []int    `json:"heuristic_questions"`
	UnmappedQuestions     []int    `json:"unmapped_questions"`
	BiasAssessedQuestions int      `json:"bias_assessed_questions"`
	DurationMs            int64    `json:"duration_ms"`
}

func newReport(req Request, questions []*classify.Question, ext *topics.Extraction, cov *topics.Coverage, res *fairness.Result) *Report {
	components := make(map[string]ComponentScore, len(res.Components))
	for _, c := range res.Components {
		components[c.Name] = ComponentScore{
			Score:                c.Score,
			Weight:               c.Weight,
			WeightedContribution: c.WeightedContribution,
		}
	}

	topicCoverage := make(map[string]int, len(cov.Counts))
	for label, n := range cov.Counts {
		topicCoverage[label] = n
	}

	return &Report{
		FairnessScore:   res.Score,
		Interpretation:  res.Interpretation,
		ComponentScores: components,
		Suggestions:     nonNil(res.Suggestions),
		DifficultyAnalysis: DifficultyAnalysis{
			Distribution:   res.Difficulty,
			TotalQuestions: res.TotalQuestions,
		},
		BloomsAnalysis: BloomsAnalysis{
			Distribution:   res.Cognitive,
			TotalQuestions: res.TotalQuestions,
		},
		CoverageAnalysis: CoverageAnalysis{
			CoveragePercentage: math.Round(cov.Percentage*100) / 100,
			CoveredTopics:      cov.Covered,
			TotalTopics:        cov.Total,
			OverRepresented:    nonNil(cov.OverRepresented),
			IgnoredTopics:      nonNil(cov.Ignored),
			TopicCoverage:      topicCoverage,
		},
		BiasAnalysis: assessBias(questions),
		ExamMetadata: ExamMetadata{
			ExamFilename:     req.ExamFilename,
			SyllabusFilename: req.SyllabusFilename,
			TotalQuestions:   len(questions),
			SyllabusTopics:   topics.Labels(ext.Topics),
		},
		Band:        res.Band.Label,
		Questions:   questions,
		Assignments: cov.Assignments,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
