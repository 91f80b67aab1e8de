package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/fairexam/fairexam/internal/llm"
	"github.com/fairexam/fairexam/internal/taxonomy"
)

// LLMClassifierConfig holds configuration for the LLM classifier.
type LLMClassifierConfig struct {
	MaxTokens   int
	Temperature float64
}

// DefaultLLMClassifierConfig returns sensible defaults for a batch of up to
// fifty questions.
func DefaultLLMClassifierConfig() LLMClassifierConfig {
	return LLMClassifierConfig{
		MaxTokens:   4096,
		Temperature: 0.2,
	}
}

// LLMClassifier labels every question of a paper in one model request.
type LLMClassifier struct {
	provider llm.Provider
	cfg      LLMClassifierConfig
}

// NewLLMClassifier creates a model-backed classifier.
func NewLLMClassifier(provider llm.Provider, cfg LLMClassifierConfig) *LLMClassifier {
	return &LLMClassifier{provider: provider, cfg: cfg}
}

// Name returns "llm:<model>".
func (c *LLMClassifier) Name() string {
	return "llm:" + c.provider.ModelID()
}

type classificationOutput struct {
	Questions []json.RawMessage `json:"questions"`
}

type questionLabel struct {
	Number         int      `json:"number"`
	Difficulty     string   `json:"difficulty"`
	CognitiveLevel string   `json:"cognitive_level"`
	BiasFlags      []string `json:"bias_flags"`
	BiasNotes      string   `json:"bias_notes"`
}

// Classify sends all questions to the model. Entries the model skipped or
// labelled outside the closed vocabularies are returned as nil.
func (c *LLMClassifier) Classify(ctx context.Context, texts []string) ([]*Question, error) {
	out := make([]*Question, len(texts))
	if len(texts) == 0 {
		return out, nil
	}

	ctx = llm.WithPurpose(ctx, llm.PurposeClassification)

	userMsg, err := buildClassificationMessage(texts)
	if err != nil {
		return nil, fmt.Errorf("build classification prompt: %w", err)
	}

	resp, err := c.provider.Generate(ctx, llm.Request{
		System: classificationSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: userMsg},
		},
		Schema:      ClassificationSchema,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM classification failed: %w", err)
	}

	var raw classificationOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, &llm.ErrInvalidResponse{Content: resp.Content, Err: err}
	}

	for _, entry := range raw.Questions {
		q, ok := decodeLabel(entry, texts)
		if !ok || out[q.ID-1] != nil {
			continue
		}
		out[q.ID-1] = q
	}
	return out, nil
}

func decodeLabel(entry json.RawMessage, texts []string) (*Question, bool) {
	var label questionLabel
	if err := json.Unmarshal(entry, &label); err != nil {
		return nil, false
	}
	if label.Number < 1 || label.Number > len(texts) {
		return nil, false
	}
	difficulty, ok := taxonomy.ParseDifficulty(label.Difficulty)
	if !ok {
		return nil, false
	}
	level, ok := taxonomy.ParseCognitiveLevel(label.CognitiveLevel)
	if !ok {
		return nil, false
	}

	var flags []taxonomy.BiasFlag
	for _, s := range label.BiasFlags {
		if f, ok := taxonomy.ParseBiasFlag(s); ok {
			flags = append(flags, f)
		}
	}
	flags = normalizeFlags(flags)

	notes := strings.TrimSpace(label.BiasNotes)
	if len(flags) == 0 {
		notes = ""
	}

	return &Question{
		ID:             label.Number,
		Text:           texts[label.Number-1],
		Difficulty:     difficulty,
		CognitiveLevel: level,
		BiasFlags:      flags,
		BiasNotes:      notes,
		Source:         taxonomy.SourceAI,
	}, true
}

const classificationSystemPrompt = `You are an educational assessment expert reviewing an exam paper for fairness. For every numbered question, return its number together with three judgements.

Difficulty (exactly one of Easy, Medium, Hard):
- Easy: recall of facts, definitions, simple concepts.
- Medium: application of concepts, problem-solving, moderate analysis.
- Hard: deep analysis, synthesis, evaluation, complex problem-solving.

Cognitive level (exactly one of Bloom's Taxonomy levels):
- Remember: recall facts and basic concepts.
- Understand: explain ideas or concepts.
- Apply: use information in new situations.
- Analyze: draw connections among ideas.
- Evaluate: justify a stand or decision.
- Create: produce new or original work.
Identify the action verbs to decide the level.

Bias flags (zero or more of cultural, gender, socioeconomic, ambiguous, background_assumption):
- cultural: relies on culture-specific references or norms.
- gender: stereotypes or excludes by gender.
- socioeconomic: assumes resources or experiences tied to income or class.
- ambiguous: wording allows more than one reasonable reading.
- background_assumption: assumes knowledge the course does not teach.
Return an empty list when nothing applies and keep bias_notes to one sentence (empty when there are no flags).

Return every question exactly once. Do not renumber questions.`

var classificationUserTemplate = template.Must(template.New("classification").
	Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
	Parse(`Exam questions:
{{range $i, $q := .}}{{inc $i}}. {{$q}}
{{end}}`))

func buildClassificationMessage(texts []string) (string, error) {
	var buf bytes.Buffer
	if err := classificationUserTemplate.Execute(&buf, texts); err != nil {
		return "", err
	}
	return buf.String(), nil
}
