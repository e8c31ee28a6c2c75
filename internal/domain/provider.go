package domain

import "context"

// GenerateRequest is the provider-neutral shape of one model invocation.
type GenerateRequest struct {
	SystemPrompt string
	Messages     []Message
	Tools        []ToolSchema
	MaxTokens    int
	Model        string // overrides the provider default when set
}

// GenerateResponse is the complete result of a non-streaming model call.
type GenerateResponse struct {
	Text      string
	ToolCalls []ToolCall
	Usage     TokenUsage
}

// Provider is the interface for any LLM backend.
type Provider interface {
	// Generate sends a request and returns a complete response.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
	// Name returns the provider's identifier (e.g. "openai").
	Name() string
}

// StreamDelta is a single incremental chunk from a streaming model response.
// Usage arrives at most once, on the final chunk.
type StreamDelta struct {
	Text      string      `json:"text,omitempty"`
	ToolCalls []ToolCall  `json:"tool_calls,omitempty"`
	Done      bool        `json:"done,omitempty"`
	Usage     *TokenUsage `json:"usage,omitempty"`
}

// StreamingProvider extends Provider with token-by-token streaming.
type StreamingProvider interface {
	Provider
	// GenerateStream returns a channel of incremental deltas. The channel is
	// closed when the stream ends or ctx is cancelled.
	GenerateStream(ctx context.Context, req GenerateRequest) (<-chan StreamDelta, error)
}

// ObjectGenerator produces schema-constrained structured output, decoded
// into out. Used by the LLM layer of the intent classifier.
type ObjectGenerator interface {
	GenerateObject(ctx context.Context, system, prompt string, out any) error
}
