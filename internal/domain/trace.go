package domain

import "time"

// TraceIntent is the intent projection stored on a trace.
type TraceIntent struct {
	Classified IntentKind      `json:"classified"`
	Confidence float64         `json:"confidence"`
	Layer      ClassifierLayer `json:"layer"`
}

// TraceRouting is the routing projection stored on a trace.
type TraceRouting struct {
	SelectedAgents []AgentType `json:"selected_agents"`
	Reason         string      `json:"reason"`
}

// AgentExecution is one agent's timing window within a trace.
type AgentExecution struct {
	AgentName AgentType        `json:"agent_name"`
	StartTime time.Time        `json:"start_time"`
	EndTime   time.Time        `json:"end_time"`
	ToolCalls []ToolCallRecord `json:"tool_calls"`
	Tokens    TokenUsage       `json:"tokens"`
	Status    AgentStatus      `json:"status"`
	Error     string           `json:"error,omitempty"`
}

// AgentTrace is the immutable record of one orchestration turn.
// Execution entries are ordered by actual invocation start, which may differ
// from plan order when agents run in parallel.
type AgentTrace struct {
	TraceID       string           `json:"trace_id"`
	ChatID        string           `json:"chat_id"`
	Timestamp     time.Time        `json:"timestamp"`
	Intent        TraceIntent      `json:"intent"`
	Routing       TraceRouting     `json:"routing"`
	Execution     []AgentExecution `json:"execution"`
	TotalDuration time.Duration    `json:"total_duration"`
	TotalTokens   TokenUsage       `json:"total_tokens"`
}
