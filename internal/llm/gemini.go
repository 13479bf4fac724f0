package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// geminiModels maps friendly names to Gemini model IDs.
var geminiModels = map[string]string{
	"gemini-flash": "gemini-2.0-flash",
	"gemini-pro":   "gemini-2.5-pro",
}

var geminiHarmCategories = []genai.HarmCategory{
	genai.HarmCategoryHarassment,
	genai.HarmCategoryHateSpeech,
	genai.HarmCategorySexuallyExplicit,
	genai.HarmCategoryDangerousContent,
}

// GeminiProvider implements Provider using the Google Gemini SDK.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a new Gemini provider.
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client: client,
		model:  resolveModel(cfg.Model, geminiModels),
	}, nil
}

func (p *GeminiProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	config := buildGeminiConfig(req)

	result, err := p.client.Models.GenerateContent(ctx, p.model, buildGeminiContents(req.Messages), config)
	if err != nil {
		return nil, mapGeminiError(err)
	}

	if blocked := geminiBlockReason(result); blocked != "" {
		return nil, &Error{
			Kind:     KindSafetyBlock,
			Provider: "gemini",
			Err:      fmt.Errorf("content blocked: %s", blocked),
		}
	}

	resp := &Response{
		Text:       result.Text(),
		Model:      p.model,
		StopReason: mapGeminiStopReason(result),
	}
	if result.UsageMetadata != nil {
		resp.Usage = Usage{
			InputTokens:  int(result.UsageMetadata.PromptTokenCount),
			OutputTokens: int(result.UsageMetadata.CandidatesTokenCount),
			TotalTokens:  int(result.UsageMetadata.TotalTokenCount),
		}
	}
	return resp, nil
}

func (p *GeminiProvider) ModelID() string {
	return p.model
}

func buildGeminiConfig(req Request) *genai.GenerateContentConfig {
	params := req.Params
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(params.MaxTokens),
		SafetySettings:  geminiSafetySettings(params.Safety),
	}

	if params.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(params.Temperature))
	}
	if params.TopP > 0 {
		config.TopP = genai.Ptr(float32(params.TopP))
	}
	if params.TopK > 0 {
		config.TopK = genai.Ptr(float32(params.TopK))
	}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}
	if req.JSON {
		config.ResponseMIMEType = "application/json"
	}
	return config
}

func geminiSafetySettings(t SafetyThreshold) []*genai.SafetySetting {
	var threshold genai.HarmBlockThreshold
	switch t {
	case SafetyNone:
		threshold = genai.HarmBlockThresholdBlockNone
	case SafetyLow:
		threshold = genai.HarmBlockThresholdBlockLowAndAbove
	case SafetyMedium:
		threshold = genai.HarmBlockThresholdBlockMediumAndAbove
	case SafetyHigh:
		threshold = genai.HarmBlockThresholdBlockOnlyHigh
	default:
		return nil
	}

	out := make([]*genai.SafetySetting, len(geminiHarmCategories))
	for i, c := range geminiHarmCategories {
		out[i] = &genai.SafetySetting{Category: c, Threshold: threshold}
	}
	return out
}

func buildGeminiContents(msgs []Message) []*genai.Content {
	out := make([]*genai.Content, len(msgs))
	for i, m := range msgs {
		role := genai.RoleUser
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		out[i] = &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		}
	}
	return out
}

// geminiBlockReason returns why the prompt or the first candidate was
// blocked, or "" when the response is usable.
func geminiBlockReason(result *genai.GenerateContentResponse) string {
	if fb := result.PromptFeedback; fb != nil && fb.BlockReason != "" && fb.BlockReason != genai.BlockedReasonUnspecified {
		return string(fb.BlockReason)
	}
	if len(result.Candidates) > 0 {
		switch r := result.Candidates[0].FinishReason; r {
		case genai.FinishReasonSafety, genai.FinishReasonProhibitedContent,
			genai.FinishReasonBlocklist, genai.FinishReasonSPII:
			return string(r)
		}
	}
	return ""
}

func mapGeminiStopReason(result *genai.GenerateContentResponse) string {
	if len(result.Candidates) > 0 && result.Candidates[0].FinishReason == genai.FinishReasonMaxTokens {
		return "max_tokens"
	}
	return "end"
}

func mapGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return errorFromStatus("gemini", apiErr.Code, err)
	}
	return &Error{Kind: KindTransient, Provider: "gemini", Err: err}
}
