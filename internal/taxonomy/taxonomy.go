// Package taxonomy defines the closed vocabularies shared by the classifier,
// the topic matcher and the fairness scorer.
package taxonomy

import "strings"

// Difficulty is the perceived difficulty of a question.
type Difficulty string

const (
	Easy   Difficulty = "Easy"
	Medium Difficulty = "Medium"
	Hard   Difficulty = "Hard"
)

// Difficulties lists every difficulty in ascending order.
var Difficulties = []Difficulty{Easy, Medium, Hard}

// ParseDifficulty resolves a case-insensitive label. ok is false for
// anything outside the closed set.
func ParseDifficulty(s string) (Difficulty, bool) {
	for _, d := range Difficulties {
		if strings.EqualFold(strings.TrimSpace(s), string(d)) {
			return d, true
		}
	}
	return "", false
}

// Valid reports whether d is one of the known difficulties.
func (d Difficulty) Valid() bool {
	for _, known := range Difficulties {
		if d == known {
			return true
		}
	}
	return false
}

// CognitiveLevel is a level of Bloom's Taxonomy, ordered from lower-order
// (Remember) to higher-order (Create) thinking.
type CognitiveLevel string

const (
	Remember   CognitiveLevel = "Remember"
	Understand CognitiveLevel = "Understand"
	Apply      CognitiveLevel = "Apply"
	Analyze    CognitiveLevel = "Analyze"
	Evaluate   CognitiveLevel = "Evaluate"
	Create     CognitiveLevel = "Create"
)

// CognitiveLevels lists all six levels in taxonomy order.
var CognitiveLevels = []CognitiveLevel{Remember, Understand, Apply, Analyze, Evaluate, Create}

// ParseCognitiveLevel resolves a case-insensitive label.
func ParseCognitiveLevel(s string) (CognitiveLevel, bool) {
	for _, l := range CognitiveLevels {
		if strings.EqualFold(strings.TrimSpace(s), string(l)) {
			return l, true
		}
	}
	return "", false
}

// Valid reports whether l is one of the six levels.
func (l CognitiveLevel) Valid() bool {
	for _, known := range CognitiveLevels {
		if l == known {
			return true
		}
	}
	return false
}

// LowerOrder reports whether l is Remember or Understand.
func (l CognitiveLevel) LowerOrder() bool {
	return l == Remember || l == Understand
}

// HigherOrder reports whether l is Analyze, Evaluate or Create.
func (l CognitiveLevel) HigherOrder() bool {
	return l == Analyze || l == Evaluate || l == Create
}

// BiasFlag names a category of potential unfairness in a question.
type BiasFlag string

const (
	BiasCultural             BiasFlag = "cultural"
	BiasGender               BiasFlag = "gender"
	BiasSocioeconomic        BiasFlag = "socioeconomic"
	BiasAmbiguous            BiasFlag = "ambiguous"
	BiasBackgroundAssumption BiasFlag = "background_assumption"
)

// BiasFlags lists every flag in reporting order.
var BiasFlags = []BiasFlag{
	BiasCultural,
	BiasGender,
	BiasSocioeconomic,
	BiasAmbiguous,
	BiasBackgroundAssumption,
}

var biasDescriptions = map[BiasFlag]string{
	BiasCultural:             "cultural bias",
	BiasGender:               "gender bias",
	BiasSocioeconomic:        "socioeconomic bias",
	BiasAmbiguous:            "ambiguous wording",
	BiasBackgroundAssumption: "assumes background knowledge",
}

// ParseBiasFlag resolves a flag label. Spaces and hyphens are accepted in
// place of underscores.
func ParseBiasFlag(s string) (BiasFlag, bool) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	for _, f := range BiasFlags {
		if norm == string(f) {
			return f, true
		}
	}
	return "", false
}

// Description returns a short human-readable phrase for the flag.
func (f BiasFlag) Description() string {
	if d, ok := biasDescriptions[f]; ok {
		return d
	}
	return string(f)
}

// Source records which path produced a classification.
type Source string

const (
	SourceAI        Source = "ai"
	SourceHeuristic Source = "heuristic"
	// SourceMixed marks a stage where some items came from each path.
	SourceMixed Source = "mixed"
)
