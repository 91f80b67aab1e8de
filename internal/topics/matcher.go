package topics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/fairexam/fairexam/internal/classify"
	"github.com/fairexam/fairexam/internal/llm"
	"github.com/fairexam/fairexam/internal/taxonomy"
)

// MaxTopicsPerQuestion caps how many topics one question can be counted
// against.
const MaxTopicsPerQuestion = 3

// Matching assigns questions to topic labels.
type Matching struct {
	// Assignments maps question IDs to topic labels, strongest first. A
	// question that is present with no labels matched nothing; a question
	// that is absent is unresolved.
	Assignments map[int][]string
	Source      taxonomy.Source
}

// Matcher assigns each question to the syllabus topics it assesses.
type Matcher interface {
	Name() string
	Match(ctx context.Context, questions []*classify.Question, topics []Topic) (*Matching, error)
}

// MatcherConfig holds configuration for the LLM matcher.
type MatcherConfig struct {
	MaxTokens   int
	Temperature float64
}

// DefaultMatcherConfig returns sensible defaults.
func DefaultMatcherConfig() MatcherConfig {
	return MatcherConfig{
		MaxTokens:   2048,
		Temperature: 0.2,
	}
}

// LLMMatcher matches all questions in one model request.
type LLMMatcher struct {
	provider llm.Provider
	cfg      MatcherConfig
}

// NewLLMMatcher creates a model-backed matcher.
func NewLLMMatcher(provider llm.Provider, cfg MatcherConfig) *LLMMatcher {
	return &LLMMatcher{provider: provider, cfg: cfg}
}

// Name returns "llm:<model>".
func (m *LLMMatcher) Name() string {
	return "llm:" + m.provider.ModelID()
}

type matchPromptData struct {
	Topics    []string
	Questions []*classify.Question
}

// Match resolves the model's labels against topics case-insensitively and
// drops anything it does not recognise. Questions the reply leaves out, or
// whose entry does not decode, are unresolved.
func (m *LLMMatcher) Match(ctx context.Context, questions []*classify.Question, topics []Topic) (*Matching, error) {
	if len(topics) == 0 {
		return nil, ErrNoTopicsFound
	}
	matching := &Matching{Assignments: make(map[int][]string), Source: taxonomy.SourceAI}
	if len(questions) == 0 {
		return matching, nil
	}

	ctx = llm.WithPurpose(ctx, llm.PurposeTopicMatching)

	var buf bytes.Buffer
	if err := matchUserTemplate.Execute(&buf, matchPromptData{Topics: Labels(topics), Questions: questions}); err != nil {
		return nil, fmt.Errorf("build matching prompt: %w", err)
	}

	resp, err := m.provider.Generate(ctx, llm.Request{
		System: matchSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buf.String()},
		},
		Schema:      MatchesSchema,
		MaxTokens:   m.cfg.MaxTokens,
		Temperature: m.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM topic matching failed: %w", err)
	}

	var raw struct {
		Matches []json.RawMessage `json:"matches"`
	}
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, &llm.ErrInvalidResponse{Content: resp.Content, Err: err}
	}

	known := make(map[int]bool, len(questions))
	for _, q := range questions {
		known[q.ID] = true
	}
	canonical := make(map[string]string, len(topics))
	for _, t := range topics {
		canonical[strings.ToLower(strings.TrimSpace(t.Label))] = t.Label
	}

	for _, msg := range raw.Matches {
		var entry struct {
			Number int      `json:"number"`
			Topics []string `json:"topics"`
		}
		if err := json.Unmarshal(msg, &entry); err != nil {
			continue
		}
		if !known[entry.Number] {
			continue
		}
		if _, dup := matching.Assignments[entry.Number]; dup {
			continue
		}
		labels := make([]string, 0, len(entry.Topics))
		seen := make(map[string]bool, len(entry.Topics))
		for _, name := range entry.Topics {
			label, ok := canonical[strings.ToLower(strings.TrimSpace(name))]
			if !ok || seen[label] {
				continue
			}
			seen[label] = true
			labels = append(labels, label)
			if len(labels) == MaxTopicsPerQuestion {
				break
			}
		}
		matching.Assignments[entry.Number] = labels
	}
	return matching, nil
}

const matchSystemPrompt = `You are a curriculum analyst. Match each exam question to the syllabus topics it assesses.

Instructions:
- Use only topic names from the list, copied exactly.
- Give at most three topics per question, most relevant first.
- Return an empty list for a question that fits no topic.
- Return every question number exactly once.`

var matchUserTemplate = template.Must(template.New("matching").Parse(`Topics:
{{range .Topics}}- {{.}}
{{end}}
Questions:
{{range .Questions}}{{.ID}}. {{.Text}}
{{end}}`))

// FallbackMatcher asks Primary first. If it fails outright every question
// goes to Fallback; otherwise only the questions it left unresolved do.
type FallbackMatcher struct {
	Primary  Matcher
	Fallback Matcher
}

// NewFallbackMatcher wires a model-backed matcher in front of the lexical
// matcher. A nil provider yields the lexical matcher only.
func NewFallbackMatcher(provider llm.Provider, cfg MatcherConfig) Matcher {
	lexical := NewLexicalMatcher()
	if provider == nil {
		return lexical
	}
	return &FallbackMatcher{Primary: NewLLMMatcher(provider, cfg), Fallback: lexical}
}

// Name returns "<primary>+<fallback>".
func (f *FallbackMatcher) Name() string {
	return f.Primary.Name() + "+" + f.Fallback.Name()
}

// Match implements Matcher. Every question is resolved on success.
func (f *FallbackMatcher) Match(ctx context.Context, questions []*classify.Question, topics []Topic) (*Matching, error) {
	primary, err := f.Primary.Match(ctx, questions, topics)
	if errors.Is(err, ErrNoTopicsFound) {
		return nil, err
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		slog.Warn("topic matcher failed, using fallback",
			"analysis_id", llm.AnalysisIDFrom(ctx),
			"stage", "topic_matching",
			"matcher", f.Primary.Name(),
			"error", err,
		)
		return f.Fallback.Match(ctx, questions, topics)
	}

	var unresolved []*classify.Question
	for _, q := range questions {
		if _, ok := primary.Assignments[q.ID]; !ok {
			unresolved = append(unresolved, q)
		}
	}
	if len(unresolved) == 0 {
		return primary, nil
	}
	slog.Warn("topic matcher left questions unresolved, using fallback",
		"analysis_id", llm.AnalysisIDFrom(ctx),
		"stage", "topic_matching",
		"matcher", f.Primary.Name(),
		"missing", len(unresolved),
	)

	filled, err := f.Fallback.Match(ctx, unresolved, topics)
	if err != nil {
		return nil, fmt.Errorf("fallback topic matching: %w", err)
	}
	for id, labels := range filled.Assignments {
		primary.Assignments[id] = labels
	}
	primary.Source = taxonomy.SourceMixed
	if len(unresolved) == len(questions) {
		primary.Source = filled.Source
	}
	return primary, nil
}
