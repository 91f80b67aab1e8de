package llm

import (
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	defaultOpenRouterAppName = "FairExam"
)

// OpenRouterProvider routes classification requests through OpenRouter,
// which speaks the OpenAI chat API. Model IDs are OpenRouter's
// "vendor/model" names and are passed through unchanged.
type OpenRouterProvider struct {
	*OpenAIProvider
}

// NewOpenRouterProvider creates a provider targeting the OpenRouter API.
// Every request carries OpenRouter's attribution headers.
func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenRouterProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter API key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("openrouter model is required")
	}

	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = cfg.BaseURL
	if config.BaseURL == "" {
		config.BaseURL = defaultOpenRouterBaseURL
	}
	appName := cfg.AppName
	if appName == "" {
		appName = defaultOpenRouterAppName
	}
	config.HTTPClient = &http.Client{
		Transport: &attributionTransport{siteURL: cfg.SiteURL, appName: appName, next: http.DefaultTransport},
	}

	return &OpenRouterProvider{OpenAIProvider: &OpenAIProvider{
		client: openai.NewClientWithConfig(config),
		model:  cfg.Model,
	}}, nil
}

// attributionTransport adds OpenRouter's HTTP-Referer and X-Title headers.
type attributionTransport struct {
	siteURL string
	appName string
	next    http.RoundTripper
}

func (t *attributionTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	if t.siteURL != "" {
		r.Header.Set("HTTP-Referer", t.siteURL)
	}
	r.Header.Set("X-Title", t.appName)
	return t.next.RoundTrip(r)
}
