package classify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fairexam/fairexam/internal/llm"
)

// FallbackClassifier asks Primary first and labels whatever it could not
// with Fallback. Once the caller's context is done no fallback runs.
type FallbackClassifier struct {
	Primary  Classifier
	Fallback Classifier
}

// NewFallbackClassifier wires a model-backed classifier in front of the
// heuristics. A nil provider yields heuristics only.
func NewFallbackClassifier(provider llm.Provider, cfg LLMClassifierConfig) Classifier {
	if provider == nil {
		return HeuristicClassifier{}
	}
	return &FallbackClassifier{
		Primary:  NewLLMClassifier(provider, cfg),
		Fallback: HeuristicClassifier{},
	}
}

// Name returns "<primary>+<fallback>".
func (f *FallbackClassifier) Name() string {
	return f.Primary.Name() + "+" + f.Fallback.Name()
}

// Classify returns exactly one question per text, none of them nil.
func (f *FallbackClassifier) Classify(ctx context.Context, texts []string) ([]*Question, error) {
	out, err := f.Primary.Classify(ctx, texts)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		slog.Warn("question classifier failed, using fallback",
			"analysis_id", llm.AnalysisIDFrom(ctx),
			"stage", "classification",
			"classifier", f.Primary.Name(),
			"error", err,
		)
		out = nil
	}

	resolved := make([]*Question, len(texts))
	copy(resolved, out)

	var (
		missingIdx   []int
		missingTexts []string
	)
	for i, q := range resolved {
		if q == nil {
			missingIdx = append(missingIdx, i)
			missingTexts = append(missingTexts, texts[i])
		}
	}
	if len(missingIdx) == 0 {
		return resolved, nil
	}
	if err == nil {
		slog.Warn("question classifier left questions unlabelled, using fallback",
			"analysis_id", llm.AnalysisIDFrom(ctx),
			"stage", "classification",
			"classifier", f.Primary.Name(),
			"missing", len(missingIdx),
		)
	}

	filled, err := f.Fallback.Classify(ctx, missingTexts)
	if err != nil {
		return nil, fmt.Errorf("fallback classification: %w", err)
	}
	for j, i := range missingIdx {
		if j >= len(filled) || filled[j] == nil {
			return nil, fmt.Errorf("fallback classifier %s left question %d unlabelled", f.Fallback.Name(), i+1)
		}
		q := filled[j]
		q.ID = i + 1
		resolved[i] = q
	}
	return resolved, nil
}
