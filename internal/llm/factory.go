package llm

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fairexam/fairexam/internal/store"
)

// ErrNotConfigured is returned by NewProviderFromEnv when no provider
// credentials are present. Callers run heuristics-only in that case.
var ErrNotConfigured = errors.New("no LLM provider configured")

// NewProvider creates a Provider from configuration, wrapped with the
// standard middleware: caller → timeout → retry → logging → base.
// eventRepo may be nil.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var base Provider
	var err error

	switch cfg.Provider {
	case "azure":
		base, err = NewAzureOpenAIProvider(cfg.Azure)
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	logged := WithLogging(base, cfg.Provider, eventRepo)
	retried := WithRetry(logged, cfg.Retry)
	return WithTimeout(retried, cfg.Timeout), nil
}

// NewProviderFromEnv resolves configuration from the environment. An
// explicit FAIREXAM_LLM_PROVIDER wins; otherwise vendor env vars are
// found by DiscoverConfig. Returns ErrNotConfigured when nothing is set.
func NewProviderFromEnv(ctx context.Context, eventRepo store.EventRepo) (Provider, Config, error) {
	var cfg Config
	if os.Getenv("FAIREXAM_LLM_PROVIDER") != "" {
		cfg = ConfigFromEnv()
	} else {
		var ok bool
		cfg, ok = DiscoverConfig()
		if !ok {
			return nil, Config{}, ErrNotConfigured
		}
	}

	p, err := NewProvider(ctx, cfg, eventRepo)
	if err != nil {
		return nil, cfg, err
	}
	return p, cfg, nil
}
