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
	"unicode/utf8"

	"github.com/fairexam/fairexam/internal/llm"
	"github.com/fairexam/fairexam/internal/taxonomy"
)

// ExtractorConfig bounds topic extraction.
type ExtractorConfig struct {
	// MaxTopics caps the topic list.
	MaxTopics int

	// MaxSyllabusChars truncates the syllabus sent to the model.
	MaxSyllabusChars int

	MaxTokens   int
	Temperature float64
}

// DefaultExtractorConfig returns sensible defaults.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		MaxTopics:        15,
		MaxSyllabusChars: 6000,
		MaxTokens:        1024,
		Temperature:      0.2,
	}
}

// LLMExtractor asks the model for the syllabus topics.
type LLMExtractor struct {
	provider llm.Provider
	cfg      ExtractorConfig
}

// NewLLMExtractor creates a model-backed extractor.
func NewLLMExtractor(provider llm.Provider, cfg ExtractorConfig) *LLMExtractor {
	return &LLMExtractor{provider: provider, cfg: cfg}
}

// Name returns "llm:<model>".
func (e *LLMExtractor) Name() string {
	return "llm:" + e.provider.ModelID()
}

var errEmptyTopicList = errors.New("model returned an empty or blank topic")

// Extract returns the model's topics, de-duplicated and capped. A reply
// with no topics or with a blank topic is an *llm.ErrInvalidResponse.
func (e *LLMExtractor) Extract(ctx context.Context, syllabus string) (*Extraction, error) {
	if strings.TrimSpace(syllabus) == "" {
		return nil, ErrNoTopicsFound
	}

	ctx = llm.WithPurpose(ctx, llm.PurposeTopicExtraction)

	var buf bytes.Buffer
	if err := extractionUserTemplate.Execute(&buf, truncate(syllabus, e.cfg.MaxSyllabusChars)); err != nil {
		return nil, fmt.Errorf("build extraction prompt: %w", err)
	}

	resp, err := e.provider.Generate(ctx, llm.Request{
		System: extractionSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buf.String()},
		},
		Schema:      TopicListSchema,
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM topic extraction failed: %w", err)
	}

	var raw struct {
		Topics []string `json:"topics"`
	}
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, &llm.ErrInvalidResponse{Content: resp.Content, Err: err}
	}
	if len(raw.Topics) == 0 {
		return nil, &llm.ErrInvalidResponse{Content: resp.Content, Err: errEmptyTopicList}
	}

	list := make([]Topic, 0, len(raw.Topics))
	for _, label := range raw.Topics {
		if strings.TrimSpace(label) == "" {
			return nil, &llm.ErrInvalidResponse{Content: resp.Content, Err: errEmptyTopicList}
		}
		list = append(list, Topic{Label: label})
	}

	return &Extraction{
		Topics: capTopics(Dedupe(list), e.cfg.MaxTopics),
		Source: taxonomy.SourceAI,
	}, nil
}

const extractionSystemPrompt = `You are a curriculum analyst. Extract the main topics, units and concepts from a course syllabus.

Instructions:
- Return between 5 and 15 topics, in the order the syllabus presents them.
- Use short names (two to six words) taken from the syllabus wording.
- Do not include administrative content such as grading, schedules, textbooks or policies.
- Do not number the topics.`

var extractionUserTemplate = template.Must(template.New("extraction").Parse(`Syllabus:
{{.}}`))

// FallbackExtractor asks Primary first and Fallback on any failure, unless
// the caller's context is done.
type FallbackExtractor struct {
	Primary  Extractor
	Fallback Extractor
}

// NewFallbackExtractor wires a model-backed extractor in front of the
// heuristics. A nil provider yields heuristics only.
func NewFallbackExtractor(provider llm.Provider, cfg ExtractorConfig) Extractor {
	h := &HeuristicExtractor{MaxTopics: cfg.MaxTopics}
	if provider == nil {
		return h
	}
	return &FallbackExtractor{Primary: NewLLMExtractor(provider, cfg), Fallback: h}
}

// Name returns "<primary>+<fallback>".
func (f *FallbackExtractor) Name() string {
	return f.Primary.Name() + "+" + f.Fallback.Name()
}

// Extract implements Extractor.
func (f *FallbackExtractor) Extract(ctx context.Context, syllabus string) (*Extraction, error) {
	if strings.TrimSpace(syllabus) == "" {
		return nil, ErrNoTopicsFound
	}

	ext, err := f.Primary.Extract(ctx, syllabus)
	if err == nil {
		return ext, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	slog.Warn("topic extractor failed, using fallback",
		"analysis_id", llm.AnalysisIDFrom(ctx),
		"stage", "topic_extraction",
		"extractor", f.Primary.Name(),
		"error", err,
	)
	return f.Fallback.Extract(ctx, syllabus)
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	s = strings.ToValidUTF8(s, "")
	if len(s) <= max {
		return s
	}
	// Back off to the start of the rune straddling the cut.
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func capTopics(list []Topic, max int) []Topic {
	if max > 0 && len(list) > max {
		return list[:max]
	}
	return list
}
