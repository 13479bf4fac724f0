package llm

import (
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	defaultOpenRouterAppName = "quizgen"
)

// OpenRouterProvider talks to OpenRouter's OpenAI-compatible endpoint.
// Model IDs are vendor-qualified ("google/gemini-2.0-flash-001") and are
// passed through unchanged.
type OpenRouterProvider struct {
	*OpenAIProvider
}

func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenRouterProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenRouterBaseURL
	}
	if cfg.AppName == "" {
		cfg.AppName = defaultOpenRouterAppName
	}

	headers := http.Header{}
	headers.Set("X-Title", cfg.AppName)
	if cfg.SiteURL != "" {
		headers.Set("HTTP-Referer", cfg.SiteURL)
	}

	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = cfg.BaseURL
	config.HTTPClient = &http.Client{
		Timeout:   2 * time.Minute,
		Transport: &headerTransport{headers: headers, next: http.DefaultTransport},
	}

	return &OpenRouterProvider{
		OpenAIProvider: &OpenAIProvider{
			client: openai.NewClientWithConfig(config),
			model:  cfg.Model,
			name:   "openrouter",
		},
	}, nil
}

// headerTransport adds fixed headers to every outgoing request.
type headerTransport struct {
	headers http.Header
	next    http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header[k] = v
	}
	return t.next.RoundTrip(req)
}
