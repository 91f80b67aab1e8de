package fairness

import (
	"fmt"
	"math"
	"sort"

	"github.com/fairexam/fairexam/internal/classify"
	"github.com/fairexam/fairexam/internal/taxonomy"
	"github.com/fairexam/fairexam/internal/topics"
)

// Component names as they appear in reports.
const (
	ComponentDifficulty = "difficulty_balance"
	ComponentBlooms     = "blooms_balance"
	ComponentCoverage   = "syllabus_coverage"
)

// ComponentScore is one weighted part of the fairness score.
type ComponentScore struct {
	Name                 string  `json:"name"`
	Weight               float64 `json:"weight"`
	Score                float64 `json:"score"`
	WeightedContribution float64 `json:"weighted_contribution"`
}

// Result is the outcome of scoring one paper.
type Result struct {
	Score          float64          `json:"fairness_score"`
	Band           Band             `json:"-"`
	Interpretation string           `json:"interpretation"`
	Components     []ComponentScore `json:"component_scores"`
	Suggestions    []string         `json:"suggestions"`

	Difficulty     map[taxonomy.Difficulty]int     `json:"difficulty_distribution"`
	Cognitive      map[taxonomy.CognitiveLevel]int `json:"blooms_distribution"`
	TotalQuestions int                             `json:"total_questions"`
}

// Component returns the named component score.
func (r *Result) Component(name string) (ComponentScore, bool) {
	for _, c := range r.Components {
		if c.Name == name {
			return c, true
		}
	}
	return ComponentScore{}, false
}

// Scorer computes fairness results. It holds no mutable state and is safe
// for concurrent use.
type Scorer struct {
	cfg   Config
	bands []Band
}

// NewScorer validates cfg and returns a scorer for it.
func NewScorer(cfg Config) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring config: %w", err)
	}
	bands := append([]Band(nil), cfg.Bands...)
	sort.Slice(bands, func(i, j int) bool { return bands[i].Min > bands[j].Min })
	cfg.Bands = bands
	return &Scorer{cfg: cfg, bands: bands}, nil
}

// Config returns the policy the scorer was built with.
func (s *Scorer) Config() Config {
	return s.cfg
}

// Score rates a classified paper against its syllabus coverage. It panics
// on inputs no classifier can produce: nil questions, labels outside the
// closed vocabularies, negative counts or inconsistent coverage.
func (s *Scorer) Score(questions []*classify.Question, coverage *topics.Coverage) *Result {
	checkCoverage(coverage)

	difficulty := make(map[taxonomy.Difficulty]int, len(taxonomy.Difficulties))
	for _, d := range taxonomy.Difficulties {
		difficulty[d] = 0
	}
	cognitive := make(map[taxonomy.CognitiveLevel]int, len(taxonomy.CognitiveLevels))
	for _, l := range taxonomy.CognitiveLevels {
		cognitive[l] = 0
	}
	for i, q := range questions {
		if q == nil {
			panic(fmt.Sprintf("fairness: question %d is nil", i+1))
		}
		if !q.Difficulty.Valid() {
			panic(fmt.Sprintf("fairness: question %d has unknown difficulty %q", q.ID, q.Difficulty))
		}
		if !q.CognitiveLevel.Valid() {
			panic(fmt.Sprintf("fairness: question %d has unknown cognitive level %q", q.ID, q.CognitiveLevel))
		}
		difficulty[q.Difficulty]++
		cognitive[q.CognitiveLevel]++
	}
	total := len(questions)

	raw := []struct {
		name   string
		weight float64
		score  float64
	}{
		{ComponentDifficulty, s.cfg.Weights.Difficulty, s.difficultyBalance(difficulty, total)},
		{ComponentBlooms, s.cfg.Weights.Blooms, s.bloomsBalance(cognitive, total)},
		{ComponentCoverage, s.cfg.Weights.Coverage, s.coverageScore(coverage)},
	}

	components := make([]ComponentScore, 0, len(raw))
	overall := 0.0
	for _, c := range raw {
		score := clamp(c.score)
		contribution := score * c.weight / 100
		overall += contribution
		components = append(components, ComponentScore{
			Name:                 c.name,
			Weight:               c.weight,
			Score:                round(score, 2),
			WeightedContribution: round(contribution, 2),
		})
	}
	overall = round(clamp(overall), 1)
	band := s.band(overall)

	return &Result{
		Score:          overall,
		Band:           band,
		Interpretation: band.Interpretation(),
		Components:     components,
		Suggestions:    s.suggestions(difficulty, cognitive, total, coverage),
		Difficulty:     difficulty,
		Cognitive:      cognitive,
		TotalQuestions: total,
	}
}

// difficultyBalance falls linearly with the summed deviation from the
// ideal mix, so the ideal mix scores 100.
func (s *Scorer) difficultyBalance(dist map[taxonomy.Difficulty]int, total int) float64 {
	if total == 0 {
		return 0
	}
	ideal := map[taxonomy.Difficulty]float64{
		taxonomy.Easy:   s.cfg.IdealDifficulty.Easy,
		taxonomy.Medium: s.cfg.IdealDifficulty.Medium,
		taxonomy.Hard:   s.cfg.IdealDifficulty.Hard,
	}
	deviation := 0.0
	for _, d := range taxonomy.Difficulties {
		deviation += math.Abs(percent(dist[d], total) - ideal[d])
	}
	return 100 - math.Min(100, deviation*s.cfg.DifficultyPenaltyFactor)
}

// bloomsBalance rescales the normalized Shannon entropy of the level mix
// onto [BloomFloor, 100]. An even spread over all six levels scores 100.
func (s *Scorer) bloomsBalance(dist map[taxonomy.CognitiveLevel]int, total int) float64 {
	if total == 0 {
		return 0
	}
	h := 0.0
	for _, l := range taxonomy.CognitiveLevels {
		if n := dist[l]; n > 0 {
			p := float64(n) / float64(total)
			h -= p * math.Log(p)
		}
	}
	normalized := h / math.Log(float64(len(taxonomy.CognitiveLevels)))
	return s.cfg.BloomFloor + (100-s.cfg.BloomFloor)*normalized
}

func (s *Scorer) coverageScore(c *topics.Coverage) float64 {
	ignored := math.Min(s.cfg.IgnoredPenaltyCap, float64(len(c.Ignored))*s.cfg.IgnoredPenalty)
	over := math.Min(s.cfg.OverRepPenaltyCap, float64(len(c.OverRepresented))*s.cfg.OverRepPenalty)
	return math.Max(0, c.Percentage-ignored-over)
}

func (s *Scorer) band(score float64) Band {
	for _, b := range s.bands {
		if score >= b.Min {
			return b
		}
	}
	// Validate guarantees a band at 0 and score is clamped.
	panic(fmt.Sprintf("fairness: no band for score %g", score))
}

func checkCoverage(c *topics.Coverage) {
	if c == nil {
		panic("fairness: nil coverage")
	}
	for label, n := range c.Counts {
		if n < 0 {
			panic(fmt.Sprintf("fairness: topic %q has negative count %d", label, n))
		}
	}
	if c.Covered < 0 || c.Covered+len(c.Ignored) != c.Total {
		panic(fmt.Sprintf("fairness: inconsistent coverage: %d covered + %d ignored != %d topics",
			c.Covered, len(c.Ignored), c.Total))
	}
}

func percent(n, total int) float64 {
	return float64(n) / float64(total) * 100
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
