package llm

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects which LLM provider to use.
	// Values: "azure", "anthropic", "openai", "gemini", "openrouter", "mock"
	Provider string

	Azure      AzureOpenAIConfig
	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Timeout bounds a single classifier call, retries included.
	// Default: 30s.
	Timeout time.Duration
}

// AzureOpenAIConfig holds Azure OpenAI configuration.
type AzureOpenAIConfig struct {
	APIKey     string
	Endpoint   string // e.g. https://my-resource.openai.azure.com/
	Deployment string // Default: "gpt-4"
	APIVersion string // Default: "2024-10-21" (first GA version with json_schema output)
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string
	Model  string // Default: "claude-haiku"
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string // Default: "gpt-4o-mini"
	BaseURL string // Optional. Override for compatible APIs.
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey  string
	Model   string // Default: "gemini-flash"
	BaseURL string // Optional. Override for proxies and tests.
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string
	Model   string // Default: "google/gemini-2.5-flash"
	BaseURL string // Default: "https://openrouter.ai/api/v1"

	// SiteURL and AppName identify the deployment on OpenRouter's
	// dashboards. AppName defaults to "FairExam".
	SiteURL string
	AppName string
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider: "azure",
		Azure: AzureOpenAIConfig{
			Deployment: "gpt-4",
			APIVersion: "2024-10-21",
		},
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		OpenRouter: OpenRouterConfig{
			Model: "google/gemini-2.5-flash",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 30 * time.Second,
	}
}

// ConfigFromEnv builds a Config from FAIREXAM_* environment variables,
// falling back to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	setStr(&cfg.Provider, "FAIREXAM_LLM_PROVIDER")

	setStr(&cfg.Azure.APIKey, "FAIREXAM_AZURE_OPENAI_API_KEY")
	setStr(&cfg.Azure.Endpoint, "FAIREXAM_AZURE_OPENAI_ENDPOINT")
	setStr(&cfg.Azure.Deployment, "FAIREXAM_AZURE_OPENAI_DEPLOYMENT")
	setStr(&cfg.Azure.APIVersion, "FAIREXAM_AZURE_OPENAI_API_VERSION")

	setStr(&cfg.Anthropic.APIKey, "FAIREXAM_ANTHROPIC_API_KEY")
	setStr(&cfg.Anthropic.Model, "FAIREXAM_ANTHROPIC_MODEL")

	setStr(&cfg.OpenAI.APIKey, "FAIREXAM_OPENAI_API_KEY")
	setStr(&cfg.OpenAI.Model, "FAIREXAM_OPENAI_MODEL")
	setStr(&cfg.OpenAI.BaseURL, "FAIREXAM_OPENAI_BASE_URL")

	setStr(&cfg.Gemini.APIKey, "FAIREXAM_GEMINI_API_KEY")
	setStr(&cfg.Gemini.Model, "FAIREXAM_GEMINI_MODEL")
	setStr(&cfg.Gemini.BaseURL, "FAIREXAM_GEMINI_BASE_URL")

	setStr(&cfg.OpenRouter.APIKey, "FAIREXAM_OPENROUTER_API_KEY")
	setStr(&cfg.OpenRouter.Model, "FAIREXAM_OPENROUTER_MODEL")
	setStr(&cfg.OpenRouter.BaseURL, "FAIREXAM_OPENROUTER_BASE_URL")
	setStr(&cfg.OpenRouter.SiteURL, "FAIREXAM_OPENROUTER_SITE_URL")

	if v := os.Getenv("FAIREXAM_LLM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = d
		}
	}
	if v := os.Getenv("FAIREXAM_LLM_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Retry.MaxAttempts = n
		}
	}

	return cfg
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// DiscoverConfig checks the vendors' standard env vars in priority order
// (Azure OpenAI → Gemini → OpenAI → Anthropic → OpenRouter) and returns a
// Config for the first provider whose credentials are found. Returns
// (Config{}, false) if none are found.
func DiscoverConfig() (Config, bool) {
	cfg := ConfigFromEnv()

	if k, e := os.Getenv("AZURE_OPENAI_API_KEY"), os.Getenv("AZURE_OPENAI_ENDPOINT"); k != "" && e != "" {
		cfg.Provider = "azure"
		cfg.Azure.APIKey = k
		cfg.Azure.Endpoint = e
		setStr(&cfg.Azure.Deployment, "AZURE_OPENAI_DEPLOYMENT_NAME")
		setStr(&cfg.Azure.APIVersion, "AZURE_OPENAI_API_VERSION")
		return cfg, true
	}
	if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		cfg.Provider = "gemini"
		cfg.Gemini.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		cfg.Provider = "openai"
		cfg.OpenAI.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("ANTHROPIC_API_KEY"); k != "" {
		cfg.Provider = "anthropic"
		cfg.Anthropic.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENROUTER_API_KEY"); k != "" {
		cfg.Provider = "openrouter"
		cfg.OpenRouter.APIKey = k
		return cfg, true
	}

	return Config{}, false
}

// Validate checks that the selected provider has its required settings.
func (c Config) Validate() error {
	switch c.Provider {
	case "azure":
		if c.Azure.APIKey == "" {
			return fmt.Errorf("FAIREXAM_AZURE_OPENAI_API_KEY is required for the azure provider")
		}
		if c.Azure.Endpoint == "" {
			return fmt.Errorf("FAIREXAM_AZURE_OPENAI_ENDPOINT is required for the azure provider")
		}
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("FAIREXAM_ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("FAIREXAM_OPENAI_API_KEY is required for the openai provider")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("FAIREXAM_GEMINI_API_KEY is required for the gemini provider")
		}
	case "openrouter":
		if c.OpenRouter.APIKey == "" {
			return fmt.Errorf("FAIREXAM_OPENROUTER_API_KEY is required for the openrouter provider")
		}
	case "mock":
		// No API key needed.
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("LLM timeout must not be negative, got %s", c.Timeout)
	}
	return nil
}
