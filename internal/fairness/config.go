// Package fairness turns classified questions and syllabus coverage into a
// weighted fairness score with an interpretation and suggestions.
package fairness

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the scoring policy. It is read-only once handed to NewScorer.
type Config struct {
	Weights         Weights         `yaml:"weights"`
	IdealDifficulty IdealDifficulty `yaml:"ideal_difficulty"`

	// DifficultyPenaltyFactor scales the summed percentage-point deviation
	// from the ideal difficulty mix. 0.625 maps the worst case under the
	// default ideal (160 points) to a score of 0.
	DifficultyPenaltyFactor float64 `yaml:"difficulty_penalty_factor"`

	// BloomFloor is the Bloom's balance score of a paper that uses a single
	// cognitive level.
	BloomFloor float64 `yaml:"bloom_floor"`

	IgnoredPenalty    float64 `yaml:"ignored_penalty"`
	IgnoredPenaltyCap float64 `yaml:"ignored_penalty_cap"`
	OverRepPenalty    float64 `yaml:"over_represented_penalty"`
	OverRepPenaltyCap float64 `yaml:"over_represented_penalty_cap"`

	// OverRepresentationFactor marks a topic over-represented when its
	// question count exceeds this multiple of the mean count per topic.
	OverRepresentationFactor float64 `yaml:"over_representation_factor"`

	Bands []Band `yaml:"bands"`

	// SuggestionTolerance is how many percentage points a difficulty share
	// may stray from the ideal before a suggestion fires.
	SuggestionTolerance float64 `yaml:"suggestion_tolerance"`
	LowerOrderMaxShare  float64 `yaml:"lower_order_max_share"`
	MinBloomLevels      int     `yaml:"min_bloom_levels"`
	MinCoveragePercent  float64 `yaml:"min_coverage_percent"`
}

// Weights are the component weights in percent.
type Weights struct {
	Difficulty float64 `yaml:"difficulty"`
	Blooms     float64 `yaml:"blooms"`
	Coverage   float64 `yaml:"coverage"`
}

// IdealDifficulty is the target difficulty mix in percent.
type IdealDifficulty struct {
	Easy   float64 `yaml:"easy"`
	Medium float64 `yaml:"medium"`
	Hard   float64 `yaml:"hard"`
}

// Band maps scores of at least Min to an interpretation.
type Band struct {
	Min   float64 `yaml:"min"`
	Label string  `yaml:"label"`
	Text  string  `yaml:"text"`
}

// Interpretation returns "Label - Text", or just the label.
func (b Band) Interpretation() string {
	if b.Text == "" {
		return b.Label
	}
	return b.Label + " - " + b.Text
}

// DefaultConfig returns the standard scoring policy.
func DefaultConfig() Config {
	return Config{
		Weights:                  Weights{Difficulty: 40, Blooms: 30, Coverage: 30},
		IdealDifficulty:          IdealDifficulty{Easy: 30, Medium: 50, Hard: 20},
		DifficultyPenaltyFactor:  0.625,
		BloomFloor:               10,
		IgnoredPenalty:           5,
		IgnoredPenaltyCap:        30,
		OverRepPenalty:           5,
		OverRepPenaltyCap:        20,
		OverRepresentationFactor: 2.0,
		Bands: []Band{
			{Min: 85, Label: "Excellent", Text: "This exam paper demonstrates strong fairness characteristics with well-balanced difficulty, comprehensive cognitive level coverage, and appropriate syllabus distribution."},
			{Min: 70, Label: "Good", Text: "This exam paper shows good fairness with minor areas for improvement in balance and coverage."},
			{Min: 55, Label: "Fair", Text: "This exam paper is acceptable but has noticeable imbalances that could affect student outcomes."},
			{Min: 40, Label: "Needs Improvement", Text: "This exam paper has significant fairness issues that should be addressed before use."},
			{Min: 0, Label: "Poor", Text: "This exam paper requires substantial revision to meet fairness standards."},
		},
		SuggestionTolerance: 10,
		LowerOrderMaxShare:  60,
		MinBloomLevels:      3,
		MinCoveragePercent:  60,
	}
}

// LoadConfig reads a YAML policy file. Keys missing from the file keep
// their default values; a bands list replaces the default bands.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read scoring config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse scoring config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("scoring config %s: %w", path, err)
	}
	return cfg, nil
}

const sumTolerance = 1e-6

// Validate checks that the policy is internally consistent.
func (c Config) Validate() error {
	var errs []error

	w := c.Weights
	if w.Difficulty < 0 || w.Blooms < 0 || w.Coverage < 0 {
		errs = append(errs, errors.New("weights must not be negative"))
	}
	if math.Abs(w.Difficulty+w.Blooms+w.Coverage-100) > sumTolerance {
		errs = append(errs, fmt.Errorf("weights must sum to 100, got %g", w.Difficulty+w.Blooms+w.Coverage))
	}

	d := c.IdealDifficulty
	if d.Easy < 0 || d.Medium < 0 || d.Hard < 0 {
		errs = append(errs, errors.New("ideal difficulty shares must not be negative"))
	}
	if math.Abs(d.Easy+d.Medium+d.Hard-100) > sumTolerance {
		errs = append(errs, fmt.Errorf("ideal difficulty shares must sum to 100, got %g", d.Easy+d.Medium+d.Hard))
	}

	if c.DifficultyPenaltyFactor <= 0 {
		errs = append(errs, errors.New("difficulty_penalty_factor must be positive"))
	}
	if c.BloomFloor < 0 || c.BloomFloor >= 100 {
		errs = append(errs, errors.New("bloom_floor must be in [0, 100)"))
	}
	if c.IgnoredPenalty < 0 || c.IgnoredPenaltyCap < 0 || c.OverRepPenalty < 0 || c.OverRepPenaltyCap < 0 {
		errs = append(errs, errors.New("coverage penalties must not be negative"))
	}
	if c.OverRepresentationFactor <= 0 {
		errs = append(errs, errors.New("over_representation_factor must be positive"))
	}
	if err := validateBands(c.Bands); err != nil {
		errs = append(errs, err)
	}
	if c.SuggestionTolerance < 0 {
		errs = append(errs, errors.New("suggestion_tolerance must not be negative"))
	}
	if c.LowerOrderMaxShare <= 0 || c.LowerOrderMaxShare > 100 {
		errs = append(errs, errors.New("lower_order_max_share must be in (0, 100]"))
	}
	if c.MinBloomLevels < 1 || c.MinBloomLevels > 6 {
		errs = append(errs, errors.New("min_bloom_levels must be between 1 and 6"))
	}
	if c.MinCoveragePercent < 0 || c.MinCoveragePercent > 100 {
		errs = append(errs, errors.New("min_coverage_percent must be in [0, 100]"))
	}

	return errors.Join(errs...)
}

// validateBands requires one band starting at 0 so every score has a band,
// and distinct starting points so no two bands overlap.
func validateBands(bands []Band) error {
	if len(bands) == 0 {
		return errors.New("at least one band is required")
	}
	seen := make(map[float64]bool, len(bands))
	hasZero := false
	for _, b := range bands {
		if b.Label == "" {
			return errors.New("band label is required")
		}
		if b.Min < 0 || b.Min > 100 {
			return fmt.Errorf("band %q: min must be in [0, 100], got %g", b.Label, b.Min)
		}
		if seen[b.Min] {
			return fmt.Errorf("bands overlap: more than one band starts at %g", b.Min)
		}
		seen[b.Min] = true
		if b.Min == 0 {
			hasZero = true
		}
	}
	if !hasZero {
		return errors.New("bands must cover the whole range: no band starts at 0")
	}
	return nil
}
