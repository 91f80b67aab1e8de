// Package analysis runs the full fairness analysis of an exam paper
// against its syllabus.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/fairexam/fairexam/internal/classify"
	"github.com/fairexam/fairexam/internal/document"
	"github.com/fairexam/fairexam/internal/fairness"
	"github.com/fairexam/fairexam/internal/llm"
	"github.com/fairexam/fairexam/internal/taxonomy"
	"github.com/fairexam/fairexam/internal/topics"
)

// ErrTooFewQuestions is returned when the exam paper does not split into
// enough questions to analyze.
var ErrTooFewQuestions = errors.New("could not extract sufficient questions from exam paper; ensure questions are clearly numbered or formatted")

// Stage names used in logs and diagnostics.
const (
	StageTopicExtraction = "topic_extraction"
	StageClassification  = "classification"
	StageTopicMatching   = "topic_matching"
)

// Config bounds an analysis.
type Config struct {
	MinQuestions int
	MaxQuestions int

	Extractor  topics.ExtractorConfig
	Classifier classify.LLMClassifierConfig
	Matcher    topics.MatcherConfig
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MinQuestions: 3,
		MaxQuestions: document.MaxQuestions,
		Extractor:    topics.DefaultExtractorConfig(),
		Classifier:   classify.DefaultLLMClassifierConfig(),
		Matcher:      topics.DefaultMatcherConfig(),
	}
}

// Stages are the replaceable steps of an analysis.
type Stages struct {
	Extractor  topics.Extractor
	Classifier classify.Classifier
	Matcher    topics.Matcher
}

// Request is one exam paper and syllabus, already converted to text.
type Request struct {
	ExamFilename     string
	ExamText         string
	SyllabusFilename string
	SyllabusText     string
}

// Engine runs analyses. It keeps no per-request state and is safe for
// concurrent use.
type Engine struct {
	stages Stages
	scorer *fairness.Scorer
	cfg    Config
	model  string
}

// New wires the model-backed stages with their heuristic fallbacks. A nil
// provider runs heuristics only.
func New(provider llm.Provider, scorer *fairness.Scorer, cfg Config) *Engine {
	e := NewWithStages(Stages{
		Extractor:  topics.NewFallbackExtractor(provider, cfg.Extractor),
		Classifier: classify.NewFallbackClassifier(provider, cfg.Classifier),
		Matcher:    topics.NewFallbackMatcher(provider, cfg.Matcher),
	}, scorer, cfg)
	if provider != nil {
		e.model = provider.ModelID()
	}
	return e
}

// NewWithStages builds an engine from explicit stages.
func NewWithStages(stages Stages, scorer *fairness.Scorer, cfg Config) *Engine {
	return &Engine{stages: stages, scorer: scorer, cfg: cfg, model: "heuristic"}
}

// Analyze scores an exam paper against its syllabus. It fails only on
// input errors, ErrTooFewQuestions, topics.ErrNoTopicsFound or
// cancellation of ctx; classifier failures degrade to heuristics.
func (e *Engine) Analyze(ctx context.Context, req Request) (*Report, error) {
	start := time.Now()
	id := uuid.NewString()
	ctx = llm.WithAnalysisID(ctx, id)

	if strings.TrimSpace(req.ExamText) == "" {
		return nil, fmt.Errorf("exam paper: %w", document.ErrEmptyDocument)
	}

	texts := document.SplitQuestions(req.ExamText)
	if e.cfg.MaxQuestions > 0 && len(texts) > e.cfg.MaxQuestions {
		texts = texts[:e.cfg.MaxQuestions]
	}
	if len(texts) < e.cfg.MinQuestions {
		return nil, fmt.Errorf("found %d question(s), need at least %d: %w", len(texts), e.cfg.MinQuestions, ErrTooFewQuestions)
	}

	slog.Debug("analysis started",
		"analysis_id", id,
		"exam", req.ExamFilename,
		"syllabus", req.SyllabusFilename,
		"questions", len(texts),
	)

	var (
		extraction *topics.Extraction
		questions  []*classify.Question
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ext, err := e.stages.Extractor.Extract(gctx, req.SyllabusText)
		if err != nil {
			return fmt.Errorf("extract topics: %w", err)
		}
		extraction = ext
		return nil
	})
	g.Go(func() error {
		qs, err := e.stages.Classifier.Classify(gctx, texts)
		if err != nil {
			return fmt.Errorf("classify questions: %w", err)
		}
		questions = qs
		return nil
	})
	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	if len(questions) != len(texts) {
		return nil, fmt.Errorf("classifier %s returned %d labels for %d questions", e.stages.Classifier.Name(), len(questions), len(texts))
	}
	for i, q := range questions {
		if q == nil {
			return nil, fmt.Errorf("classifier %s left question %d unlabelled", e.stages.Classifier.Name(), i+1)
		}
	}

	matching, err := e.stages.Matcher.Match(ctx, questions, extraction.Topics)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("match topics: %w", err)
	}

	coverage, err := topics.NewCoverage(extraction.Topics, matching, e.scorer.Config().OverRepresentationFactor)
	if err != nil {
		return nil, fmt.Errorf("coverage: %w", err)
	}

	result := e.scorer.Score(questions, coverage)
	report := newReport(req, questions, extraction, coverage, result)
	report.Diagnostics = e.diagnostics(id, questions, extraction, coverage, time.Since(start))

	slog.Info("analysis complete",
		"analysis_id", id,
		"score", report.FairnessScore,
		"band", report.Band,
		"questions", len(questions),
		"topics", coverage.Total,
		"fallback_stages", report.Diagnostics.FallbackStages,
		"duration", time.Since(start),
	)
	return report, nil
}

func (e *Engine) diagnostics(id string, questions []*classify.Question, ext *topics.Extraction, cov *topics.Coverage, elapsed time.Duration) *Diagnostics {
	d := &Diagnostics{
		AnalysisID:         id,
		ClassifierModel:    e.model,
		FallbackStages:     []string{},
		HeuristicQuestions: []int{},
		UnmappedQuestions:  append([]int{}, cov.Unmapped...),
		DurationMs:         elapsed.Milliseconds(),
	}

	if ext.Source != taxonomy.SourceAI {
		d.FallbackStages = append(d.FallbackStages, StageTopicExtraction)
	}
	for _, q := range questions {
		if q.BiasAssessed() {
			d.BiasAssessedQuestions++
		}
		if q.Source == taxonomy.SourceHeuristic {
			d.HeuristicQuestions = append(d.HeuristicQuestions, q.ID)
		}
	}
	sort.Ints(d.HeuristicQuestions)
	if len(d.HeuristicQuestions) > 0 {
		d.FallbackStages = append(d.FallbackStages, StageClassification)
	}
	if cov.Source != taxonomy.SourceAI {
		d.FallbackStages = append(d.FallbackStages, StageTopicMatching)
	}
	return d
}
