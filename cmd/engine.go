package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/fairexam/fairexam/internal/analysis"
	"github.com/fairexam/fairexam/internal/fairness"
	"github.com/fairexam/fairexam/internal/llm"
	"github.com/fairexam/fairexam/internal/store"
)

type engineOptions struct {
	offline       bool
	scoringConfig string
}

// buildEngine wires the analysis engine the same way for every command:
// scoring policy from defaults or YAML, classifier from the environment
// with its calls audited to the local store. A missing classifier is not
// an error; the engine then runs heuristics only and provider is nil.
// cleanup must be called once the engine is no longer used.
func buildEngine(cmd *cobra.Command, opts engineOptions) (engine *analysis.Engine, provider llm.Provider, cleanup func(), err error) {
	scoring := fairness.DefaultConfig()
	if opts.scoringConfig != "" {
		if scoring, err = fairness.LoadConfig(opts.scoringConfig); err != nil {
			return nil, nil, nil, err
		}
	}
	scorer, err := fairness.NewScorer(scoring)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("scoring config: %w", err)
	}

	cleanup = func() {}
	if opts.offline {
		return analysis.New(nil, scorer, analysis.DefaultConfig()), nil, cleanup, nil
	}

	repo, closeStore := openEventRepo(cmd)
	provider, _, err = llm.NewProviderFromEnv(cmd.Context(), repo)
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		slog.Info("no classifier configured, running heuristics only")
		provider = nil
	case err != nil:
		closeStore()
		return nil, nil, nil, fmt.Errorf("configure classifier: %w", err)
	}

	return analysis.New(provider, scorer, analysis.DefaultConfig()), provider, closeStore, nil
}

// openEventRepo opens the audit store. Failure only disables auditing.
func openEventRepo(cmd *cobra.Command) (store.EventRepo, func()) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		slog.Warn("classifier audit log disabled", "error", err)
		return nil, func() {}
	}
	st, err := store.Open(dbPath)
	if err != nil {
		slog.Warn("classifier audit log disabled", "path", dbPath, "error", err)
		return nil, func() {}
	}
	return st.EventRepo(), func() { st.Close() }
}
