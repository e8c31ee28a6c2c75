package domain

import "context"

// StreamEventType discriminates outbound stream events.
type StreamEventType string

const (
	StreamEventRouting     StreamEventType = "routing"
	StreamEventAgentStatus StreamEventType = "agent-status"
	StreamEventTokenDelta  StreamEventType = "token-delta"
)

// RoutingEvent is emitted once per turn, before any agent runs.
type RoutingEvent struct {
	Intent         IntentKind  `json:"intent"`
	Confidence     float64     `json:"confidence"`
	SelectedAgents []AgentType `json:"selected_agents"`
	Reason         string      `json:"reason"`
	TraceID        string      `json:"trace_id,omitempty"`
}

// AgentStatusEvent marks an agent entering or leaving execution.
type AgentStatusEvent struct {
	Agent  AgentType   `json:"agent"`
	Status AgentStatus `json:"status"`
	Error  string      `json:"error,omitempty"`
}

// TokenDelta is one increment of live model output.
type TokenDelta struct {
	Agent AgentType `json:"agent,omitempty"` // empty for the fallback chat model
	Text  string    `json:"text"`
}

// StreamEvent is the single discriminated shape carried on the outbound
// channel. Exactly one payload field is set, selected by Type. The HTTP
// layer frames these as Server-Sent Events; only the shapes are contract
// surface here.
type StreamEvent struct {
	Type    StreamEventType   `json:"type"`
	Routing *RoutingEvent     `json:"routing,omitempty"`
	Agent   *AgentStatusEvent `json:"agent,omitempty"`
	Delta   *TokenDelta       `json:"delta,omitempty"`
}

// StreamSink accepts ordered outbound events for one turn.
// Send must be safe for use by a single writer; the orchestrator guarantees
// at most one goroutine writes at any instant.
type StreamSink interface {
	Send(ctx context.Context, ev StreamEvent) error
}

// StreamSinkFunc adapts a function to the StreamSink interface.
type StreamSinkFunc func(ctx context.Context, ev StreamEvent) error

func (f StreamSinkFunc) Send(ctx context.Context, ev StreamEvent) error { return f(ctx, ev) }
