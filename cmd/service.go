package cmd

import (
	"cmp"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizgen/internal/cache"
	"github.com/abhisek/quizgen/internal/generation"
	"github.com/abhisek/quizgen/internal/llm"
	"github.com/abhisek/quizgen/internal/logging"
	"github.com/abhisek/quizgen/internal/prompt"
	"github.com/abhisek/quizgen/internal/store"
	"github.com/abhisek/quizgen/internal/tasks"
)

// openStore opens the database selected by --db / QUIZGEN_DB.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// llmConfig resolves provider settings from QUIZGEN_* variables and
// --provider. When neither names a provider and the default one lacks a key,
// the well-known API key variables pick the provider.
func llmConfig(cmd *cobra.Command) (llm.Config, error) {
	cfg := llm.ConfigFromEnv()
	if p, _ := cmd.Flags().GetString("provider"); p != "" {
		cfg.Provider = p
	} else if os.Getenv("QUIZGEN_LLM_PROVIDER") == "" && cfg.Validate() != nil {
		if d, ok := llm.DiscoverConfig(); ok {
			cfg.Provider = d.Provider
			cfg.Gemini.APIKey = cmp.Or(cfg.Gemini.APIKey, d.Gemini.APIKey)
			cfg.OpenAI.APIKey = cmp.Or(cfg.OpenAI.APIKey, d.OpenAI.APIKey)
			cfg.Anthropic.APIKey = cmp.Or(cfg.Anthropic.APIKey, d.Anthropic.APIKey)
			cfg.OpenRouter.APIKey = cmp.Or(cfg.OpenRouter.APIKey, d.OpenRouter.APIKey)
		}
	}
	if err := cfg.Validate(); err != nil {
		return llm.Config{}, fmt.Errorf("LLM provider not configured: %w", err)
	}
	return cfg, nil
}

// serviceConfig applies QUIZGEN_* overrides to the generation defaults.
func serviceConfig() generation.Config {
	cfg := generation.DefaultConfig()
	if v := os.Getenv("QUIZGEN_PROMPT_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.PromptCacheTTL = d
		}
	}
	if v := os.Getenv("QUIZGEN_TIMEZONE"); v != "" {
		if loc, err := time.LoadLocation(v); err == nil {
			cfg.Location = loc
		}
	}
	return cfg
}

// openService wires the store, the AI client, the cache, and the task
// registry into a generation service. The returned close func releases the
// store.
func openService(cmd *cobra.Command, opts ...tasks.Option) (*generation.Service, *store.Store, func(), error) {
	ctx := cmd.Context()
	log := logging.FromContext(ctx)

	aiCfg, err := llmConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}

	st, err := openStore(cmd)
	if err != nil {
		return nil, nil, nil, err
	}

	cfg := serviceConfig()
	repo := st.EventRepo()
	client, err := llm.NewClientFromConfig(ctx, aiCfg, prompt.SystemPrompt, cfg.Params, repo, log)
	if err != nil {
		st.Close()
		return nil, nil, nil, err
	}

	c := cache.NewMemory(cfg.PromptCacheTTL, 10*time.Minute)
	svc, err := generation.New(generation.Deps{
		Quizzes:  st,
		Users:    st,
		Quota:    st,
		AI:       client,
		Cache:    c,
		Activity: repo,
		Prompts:  prompt.NewBuilder(c, prompt.WithTTL(cfg.PromptCacheTTL), prompt.WithLogger(log)),
		Tasks:    tasks.NewRegistry(opts...),
		Log:      log,
	}, cfg)
	if err != nil {
		st.Close()
		return nil, nil, nil, err
	}

	log.WithField("provider", client.ProviderName()).WithField("model", client.ModelID()).Debug("generation service ready")
	return svc, st, func() { st.Close() }, nil
}

func parseIndices(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		var n int
		if _, err := fmt.Sscanf(part, "%d", &n); err != nil {
			return nil, fmt.Errorf("invalid index %q: %w", part, err)
		}
		out = append(out, n)
	}
	return out, nil
}
