package generation

import (
	"context"
	"time"

	"github.com/abhisek/quizgen/internal/llm"
)

const (
	HealthHealthy   = "healthy"
	HealthUnhealthy = "unhealthy"
)

// Health is the result of a model health probe.
type Health struct {
	Status       string
	ResponseTime time.Duration
	Model        string
	Provider     string
	Error        string
}

const healthPrompt = `Reply with exactly this JSON object: {"status": "ok"}`

// CheckAIServiceHealth sends a tiny prompt through the model client.
func (s *Service) CheckAIServiceHealth(ctx context.Context) Health {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.HealthTimeout)
	defer cancel()

	h := Health{Model: s.ai.ModelID(), Provider: s.ai.ProviderName()}

	start := time.Now()
	res, err := s.ai.Invoke(llm.WithPurpose(ctx, "health"), healthPrompt)
	h.ResponseTime = time.Since(start)

	if err != nil {
		h.Status = HealthUnhealthy
		h.Error = err.Error()
		s.log.WithError(err).Warn("model health check failed")
		return h
	}
	if res.Model != "" {
		h.Model = res.Model
	}
	h.Status = HealthHealthy
	return h
}
