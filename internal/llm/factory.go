package llm

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/abhisek/quizgen/internal/store"
)

// NewProvider creates the base Provider selected by cfg and wraps it with
// event logging. eventRepo may be nil.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo, log logrus.FieldLogger) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		base = NewMockProvider()
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	return WithLogging(base, cfg.Provider, eventRepo, log), nil
}

// NewClientFromConfig builds the full chain: Client → logging → provider.
func NewClientFromConfig(ctx context.Context, cfg Config, system string, params GenerationParams,
	eventRepo store.EventRepo, log logrus.FieldLogger) (*Client, error) {
	p, err := NewProvider(ctx, cfg, eventRepo, log)
	if err != nil {
		return nil, err
	}
	return NewClient(p, cfg.ClientConfig(system, params), WithClientLogger(log)), nil
}
