package llm

import (
	"math"
	"testing"
)

func TestLookupCost_Variants(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{"gemini-2.0-flash", "gemini-2.0-flash"},
		{"models/gemini-2.5-pro", "gemini-2.5-pro"},
		{"google/gemini-2.0-flash-001", "gemini-2.0-flash"},
		{"openai/gpt-4o-mini", "gpt-4o-mini"},
		{"gpt-4o-mini-2024-07-18", "gpt-4o-mini"},
		{"gemini-2.0-flash-lite-preview", "gemini-2.0-flash-lite"},
		{"GPT-4.1", "gpt-4.1"},
	}
	for _, tt := range tests {
		got := LookupCost(tt.model)
		if got == nil {
			t.Errorf("LookupCost(%q) = nil, want %s pricing", tt.model, tt.want)
			continue
		}
		if *got != modelCosts[tt.want] {
			t.Errorf("LookupCost(%q) = %+v, want %s pricing %+v", tt.model, *got, tt.want, modelCosts[tt.want])
		}
	}
}

func TestLookupCost_Unknown(t *testing.T) {
	for _, m := range []string{"", "mock", "gpt", "llama-3-70b"} {
		if c := LookupCost(m); c != nil {
			t.Errorf("LookupCost(%q) = %+v, want nil", m, *c)
		}
	}
}

func TestModelCost_Cost(t *testing.T) {
	c := ModelCost{InputPerMTok: 0.1, OutputPerMTok: 0.4}
	got := c.Cost(1_000_000, 500_000)
	if math.Abs(got-0.3) > 1e-9 {
		t.Errorf("cost = %v, want 0.3", got)
	}
}
