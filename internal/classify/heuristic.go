package classify

import (
	"context"

	"github.com/fairexam/fairexam/internal/lexicon"
	"github.com/fairexam/fairexam/internal/taxonomy"
)

// Surface-feature thresholds for the heuristic difficulty signal.
const (
	LongQuestionTokens  = 40
	ShortQuestionTokens = 12
)

var (
	higherOrderVerbs = toSet(
		"analyze", "analyse", "evaluate", "design", "justify", "critique",
		"propose", "synthesize", "synthesise", "formulate", "derive", "prove",
		"critically", "assess", "appraise", "devise",
	)
	recallCues = toSet(
		"define", "list", "name", "state", "when", "identify", "recall",
		"label", "mention", "enumerate",
	)
	recallBigrams = toSet("what is", "what are", "who is", "who was")
)

// bloomKeywords maps action verbs to the level they usually signal. Bigrams
// are tried before the single word at the same position.
var (
	bloomBigrams = map[string]taxonomy.CognitiveLevel{
		"what is":             taxonomy.Remember,
		"what are":            taxonomy.Remember,
		"who is":              taxonomy.Remember,
		"who was":             taxonomy.Remember,
		"how would":           taxonomy.Apply,
		"to what":             taxonomy.Evaluate,
		"come up":             taxonomy.Create,
		"distinguish between": taxonomy.Analyze,
	}
	bloomKeywords = map[string]taxonomy.CognitiveLevel{
		"define": taxonomy.Remember, "list": taxonomy.Remember, "name": taxonomy.Remember,
		"recall": taxonomy.Remember, "identify": taxonomy.Remember, "label": taxonomy.Remember,
		"state": taxonomy.Remember, "enumerate": taxonomy.Remember,

		"explain": taxonomy.Understand, "describe": taxonomy.Understand, "summarize": taxonomy.Understand,
		"summarise": taxonomy.Understand, "interpret": taxonomy.Understand, "classify": taxonomy.Understand,
		"discuss": taxonomy.Understand, "outline": taxonomy.Understand,

		"apply": taxonomy.Apply, "demonstrate": taxonomy.Apply, "solve": taxonomy.Apply,
		"use": taxonomy.Apply, "implement": taxonomy.Apply, "calculate": taxonomy.Apply,
		"compute": taxonomy.Apply, "illustrate": taxonomy.Apply,

		"analyze": taxonomy.Analyze, "analyse": taxonomy.Analyze, "compare": taxonomy.Analyze,
		"contrast": taxonomy.Analyze, "examine": taxonomy.Analyze, "differentiate": taxonomy.Analyze,
		"distinguish": taxonomy.Analyze,

		"evaluate": taxonomy.Evaluate, "assess": taxonomy.Evaluate, "judge": taxonomy.Evaluate,
		"critique": taxonomy.Evaluate, "justify": taxonomy.Evaluate, "appraise": taxonomy.Evaluate,

		"create": taxonomy.Create, "design": taxonomy.Create, "develop": taxonomy.Create,
		"propose": taxonomy.Create, "construct": taxonomy.Create, "formulate": taxonomy.Create,
		"devise": taxonomy.Create, "compose": taxonomy.Create,
	}
)

// HeuristicClassifier labels questions from their wording alone. It never
// fails and never sets bias flags.
type HeuristicClassifier struct{}

// Name returns "heuristic".
func (HeuristicClassifier) Name() string { return "heuristic" }

// Classify labels every question; the result has no nil entries.
func (h HeuristicClassifier) Classify(ctx context.Context, texts []string) ([]*Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]*Question, len(texts))
	for i, text := range texts {
		out[i] = h.ClassifyOne(i+1, text)
	}
	return out, nil
}

// ClassifyOne labels a single question.
func (HeuristicClassifier) ClassifyOne(id int, text string) *Question {
	tokens := lexicon.Tokenize(text)
	return &Question{
		ID:             id,
		Text:           text,
		Difficulty:     heuristicDifficulty(tokens),
		CognitiveLevel: heuristicLevel(tokens),
		BiasFlags:      []taxonomy.BiasFlag{},
		Source:         taxonomy.SourceHeuristic,
	}
}

func heuristicDifficulty(tokens []string) taxonomy.Difficulty {
	var hard, recall bool
	for i, tok := range tokens {
		if _, ok := higherOrderVerbs[tok]; ok {
			hard = true
		}
		if _, ok := recallCues[tok]; ok {
			recall = true
		}
		if i+1 < len(tokens) {
			if _, ok := recallBigrams[tok+" "+tokens[i+1]]; ok {
				recall = true
			}
		}
	}

	signal := 0
	if hard {
		signal += 2
	}
	if recall {
		signal -= 2
	}
	switch {
	case len(tokens) > LongQuestionTokens:
		signal++
	case len(tokens) < ShortQuestionTokens:
		signal--
	}

	switch {
	case signal >= 2:
		return taxonomy.Hard
	case signal <= -2:
		return taxonomy.Easy
	default:
		return taxonomy.Medium
	}
}

func heuristicLevel(tokens []string) taxonomy.CognitiveLevel {
	for i, tok := range tokens {
		if i+1 < len(tokens) {
			if level, ok := bloomBigrams[tok+" "+tokens[i+1]]; ok {
				return level
			}
		}
		if level, ok := bloomKeywords[tok]; ok {
			return level
		}
	}
	return taxonomy.Understand
}

func toSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
