package llm

import (
	"strings"
)

// ModelCost is USD per one million tokens.
type ModelCost struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// Cost returns the USD cost of a call with the given token counts.
func (c ModelCost) Cost(inputTokens, outputTokens int) float64 {
	return (float64(inputTokens)*c.InputPerMTok + float64(outputTokens)*c.OutputPerMTok) / 1e6
}

// LookupCost returns the pricing for a model, or nil if unknown. Besides exact
// IDs it accepts the "models/" prefix Gemini reports, vendor-qualified
// OpenRouter IDs, and dated or versioned variants of a priced model
// ("gpt-4o-mini-2024-07-18" resolves to "gpt-4o-mini").
func LookupCost(modelID string) *ModelCost {
	id := strings.ToLower(strings.TrimSpace(modelID))
	if c, ok := modelCosts[id]; ok {
		return &c
	}

	id = strings.TrimPrefix(id, "models/")
	if _, rest, ok := strings.Cut(id, "/"); ok {
		id = rest
	}
	if c, ok := modelCosts[id]; ok {
		return &c
	}

	var best string
	for name := range modelCosts {
		if !strings.HasPrefix(id, name+"-") {
			continue
		}
		if len(name) > len(best) {
			best = name
		}
	}
	if best == "" {
		return nil
	}
	c := modelCosts[best]
	return &c
}

var modelCosts = map[string]ModelCost{
	"gemini-1.5-flash":      {InputPerMTok: 0.075, OutputPerMTok: 0.3},
	"gemini-1.5-pro":        {InputPerMTok: 1.25, OutputPerMTok: 5},
	"gemini-2.0-flash":      {InputPerMTok: 0.1, OutputPerMTok: 0.4},
	"gemini-2.0-flash-lite": {InputPerMTok: 0.075, OutputPerMTok: 0.3},
	"gemini-2.5-flash":      {InputPerMTok: 0.3, OutputPerMTok: 2.5},
	"gemini-2.5-flash-lite": {InputPerMTok: 0.1, OutputPerMTok: 0.4},
	"gemini-2.5-pro":        {InputPerMTok: 1.25, OutputPerMTok: 10},

	"claude-3-5-haiku-20241022":  {InputPerMTok: 0.8, OutputPerMTok: 4},
	"claude-haiku-4-5-20251001":  {InputPerMTok: 1, OutputPerMTok: 5},
	"claude-sonnet-4-20250514":   {InputPerMTok: 3, OutputPerMTok: 15},
	"claude-sonnet-4-5-20250929": {InputPerMTok: 3, OutputPerMTok: 15},

	"gpt-4.1":      {InputPerMTok: 2, OutputPerMTok: 8},
	"gpt-4.1-mini": {InputPerMTok: 0.4, OutputPerMTok: 1.6},
	"gpt-4o":       {InputPerMTok: 2.5, OutputPerMTok: 10},
	"gpt-4o-mini":  {InputPerMTok: 0.15, OutputPerMTok: 0.6},
	"gpt-5-mini":   {InputPerMTok: 0.25, OutputPerMTok: 2},
}
