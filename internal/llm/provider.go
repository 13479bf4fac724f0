package llm

import "context"

// Provider is the opaque model backend. Implementations send one request
// upstream and map SDK failures to *Error.
type Provider interface {
	// Generate sends a prompt to the model and returns its raw text output.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the model.
type Request struct {
	// System is the system prompt.
	System string

	// Messages is the conversation history. Quiz generation is single-turn,
	// so this usually holds one user message.
	Messages []Message

	// JSON asks the provider for a JSON-only response when the backend
	// supports a native JSON mode.
	JSON bool

	Params GenerationParams
}

// GenerationParams are the sampling and safety knobs sent with a request.
// Zero values leave the provider default in place.
type GenerationParams struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
	TopK        int
	Safety      SafetyThreshold
}

// SafetyThreshold is the minimum harm probability at which the provider
// blocks content.
type SafetyThreshold string

const (
	SafetyNone   SafetyThreshold = "none"
	SafetyLow    SafetyThreshold = "low"
	SafetyMedium SafetyThreshold = "medium"
	SafetyHigh   SafetyThreshold = "high"
)

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Response holds the model's output.
type Response struct {
	// Text is the raw generated text, possibly wrapped in markdown fences.
	Text string

	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason is normalized to "end", "max_tokens" or "safety".
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Add returns the sum of two usages.
func (u Usage) Add(o Usage) Usage {
	return Usage{
		InputTokens:  u.InputTokens + o.InputTokens,
		OutputTokens: u.OutputTokens + o.OutputTokens,
		TotalTokens:  u.TotalTokens + o.TotalTokens,
	}
}

// UserRequest builds a single-turn request.
func UserRequest(system, prompt string, params GenerationParams) Request {
	return Request{
		System:   system,
		Messages: []Message{{Role: RoleUser, Content: prompt}},
		JSON:     true,
		Params:   params,
	}
}

// resolveModel maps a friendly model name to a provider model ID.
func resolveModel(name string, models map[string]string) string {
	if id, ok := models[name]; ok {
		return id
	}
	// Unknown names are passed through as direct model IDs.
	return name
}
