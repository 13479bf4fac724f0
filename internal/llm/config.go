package llm

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all model provider configuration.
type Config struct {
	// Provider selects which backend to use.
	// Values: "gemini", "anthropic", "openai", "openrouter", "mock"
	Provider string

	Gemini     GeminiConfig
	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// AttemptTimeout bounds each upstream call. Default: 30s.
	AttemptTimeout time.Duration

	// RequestsPerMinute caps outgoing calls per process. Default: 60.
	RequestsPerMinute int
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey  string
	Model   string // Default: "gemini-flash"
	BaseURL string
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey  string
	Model   string // Default: "claude-haiku"
	BaseURL string
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string // Default: "gpt-4o-mini"
	BaseURL string // Optional. Override for compatible APIs.
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string
	Model   string // Default: "google/gemini-2.0-flash-001"
	BaseURL string // Default: "https://openrouter.ai/api/v1"

	// AppName and SiteURL are sent as OpenRouter attribution headers.
	AppName string // Default: "quizgen"
	SiteURL string
}

// RetryConfig configures the attempt loop.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxWait     time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider: "gemini",
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		OpenRouter: OpenRouterConfig{
			Model: "google/gemini-2.0-flash-001",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   1 * time.Second,
			MaxWait:     10 * time.Second,
		},
		AttemptTimeout:    30 * time.Second,
		RequestsPerMinute: 60,
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset or malformed values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	setString(&cfg.Provider, "QUIZGEN_LLM_PROVIDER")

	setString(&cfg.Gemini.APIKey, "QUIZGEN_GEMINI_API_KEY")
	setString(&cfg.Gemini.Model, "QUIZGEN_GEMINI_MODEL")

	setString(&cfg.Anthropic.APIKey, "QUIZGEN_ANTHROPIC_API_KEY")
	setString(&cfg.Anthropic.Model, "QUIZGEN_ANTHROPIC_MODEL")

	setString(&cfg.OpenAI.APIKey, "QUIZGEN_OPENAI_API_KEY")
	setString(&cfg.OpenAI.Model, "QUIZGEN_OPENAI_MODEL")
	setString(&cfg.OpenAI.BaseURL, "QUIZGEN_OPENAI_BASE_URL")

	setString(&cfg.OpenRouter.APIKey, "QUIZGEN_OPENROUTER_API_KEY")
	setString(&cfg.OpenRouter.Model, "QUIZGEN_OPENROUTER_MODEL")
	setString(&cfg.OpenRouter.SiteURL, "QUIZGEN_OPENROUTER_SITE_URL")

	setInt(&cfg.Retry.MaxAttempts, "QUIZGEN_LLM_MAX_ATTEMPTS")
	setDuration(&cfg.Retry.BaseDelay, "QUIZGEN_LLM_BASE_DELAY")
	setDuration(&cfg.Retry.MaxWait, "QUIZGEN_LLM_MAX_WAIT")
	setDuration(&cfg.AttemptTimeout, "QUIZGEN_LLM_ATTEMPT_TIMEOUT")
	setInt(&cfg.RequestsPerMinute, "QUIZGEN_LLM_RPM")

	return cfg
}

// DiscoverConfig probes standard API key env vars in priority order
// (Gemini → OpenAI → Anthropic → OpenRouter) and returns a Config for the
// first provider whose key is found. Returns (Config{}, false) if none found.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()

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

// Validate checks that the selected provider has its required API key set
// and that the retry settings are usable.
func (c Config) Validate() error {
	switch c.Provider {
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("QUIZGEN_GEMINI_API_KEY is required for the gemini provider")
		}
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("QUIZGEN_ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("QUIZGEN_OPENAI_API_KEY is required for the openai provider")
		}
	case "openrouter":
		if c.OpenRouter.APIKey == "" {
			return fmt.Errorf("QUIZGEN_OPENROUTER_API_KEY is required for the openrouter provider")
		}
	case "mock":
		// No API key needed.
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}

	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	return nil
}

// ClientConfig derives the Client settings for this configuration.
func (c Config) ClientConfig(system string, params GenerationParams) ClientConfig {
	return ClientConfig{
		ProviderName:      c.Provider,
		System:            system,
		Params:            params,
		MaxAttempts:       c.Retry.MaxAttempts,
		BaseDelay:         c.Retry.BaseDelay,
		MaxWait:           c.Retry.MaxWait,
		AttemptTimeout:    c.AttemptTimeout,
		RequestsPerMinute: c.RequestsPerMinute,
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
