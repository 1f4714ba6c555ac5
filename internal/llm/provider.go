package llm

import "context"

// Provider is the boundary to the external text-generation service.
// Implementations send a single-turn prompt and return the raw completion
// text. Callers must treat the text as untrusted: depending on the model
// and mode it may be clean JSON, fenced JSON, or conversational prose.
type Provider interface {
	// Complete sends the prompt to the model and returns its completion.
	// When the request carries a Schema, providers that support native
	// structured output use it and the returned text is validated against
	// the schema before being handed back.
	Complete(ctx context.Context, req Request) (*Completion, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes a single completion request.
type Request struct {
	// System is the system prompt. Sets the model's role and constraints.
	System string

	// Prompt is the user message. Generation is single-turn.
	Prompt string

	// Schema, when set, requests native structured output conforming to
	// the given JSON Schema. When nil the completion is free-form text.
	Schema *Schema

	// MaxTokens is the maximum number of tokens in the completion.
	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	// Default: 0.0 (deterministic) when not set.
	Temperature float64
}

// Schema defines the JSON structure expected from the model.
type Schema struct {
	// Name identifies this schema (used as the schema name for OpenAI,
	// output format for Anthropic). Kebab-case, e.g. "question-batch".
	Name string

	// Description is sent to the model to guide generation.
	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Completion holds the model's output.
type Completion struct {
	// Text is the raw completion text, exactly as the provider returned it.
	Text string

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason indicates why generation stopped.
	// Normalized to: "end", "max_tokens", "error"
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
