package domain

import "time"

// AgentType is the closed set of specialist agents.
// Adding a variant is a compile-time change: every switch over AgentType
// in the routing and orchestration layers must be extended.
type AgentType string

const (
	AgentLegalResearch AgentType = "legal-research"
	AgentCaseAnalysis  AgentType = "case-analysis"
	AgentLegalAdvisor  AgentType = "legal-advisor"
	AgentDocumentDraft AgentType = "document-draft"
)

// AllAgentTypes lists every agent type in declaration order.
func AllAgentTypes() []AgentType {
	return []AgentType{
		AgentLegalResearch,
		AgentCaseAnalysis,
		AgentLegalAdvisor,
		AgentDocumentDraft,
	}
}

// Valid reports whether t is one of the declared agent types.
func (t AgentType) Valid() bool {
	switch t {
	case AgentLegalResearch, AgentCaseAnalysis, AgentLegalAdvisor, AgentDocumentDraft:
		return true
	}
	return false
}

// AgentStatus is the execution state of one agent invocation.
type AgentStatus string

const (
	StatusIdle      AgentStatus = "idle"
	StatusRunning   AgentStatus = "running"
	StatusCompleted AgentStatus = "completed"
	StatusError     AgentStatus = "error"
	StatusTimeout   AgentStatus = "timeout"
)

// TokenUsage counts prompt and completion tokens for one or more model calls.
type TokenUsage struct {
	Input  int `json:"input"`
	Output int `json:"output"`
}

// Add returns the element-wise sum of u and other.
func (u TokenUsage) Add(other TokenUsage) TokenUsage {
	return TokenUsage{Input: u.Input + other.Input, Output: u.Output + other.Output}
}

// ToolCallRecord is the trace projection of one tool invocation.
type ToolCallRecord struct {
	Tool     string        `json:"tool"`
	Input    string        `json:"input,omitempty"`
	Output   string        `json:"output,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// AgentResult is the outcome of executing one agent.
// Only StatusCompleted results contribute content to aggregation.
type AgentResult struct {
	AgentName AgentType        `json:"agent_name"`
	Content   string           `json:"content"`
	Status    AgentStatus      `json:"status"`
	ToolCalls []ToolCallRecord `json:"tool_calls,omitempty"`
	Tokens    TokenUsage       `json:"tokens"`
	Duration  time.Duration    `json:"duration,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// AgentContext carries everything an agent needs for one turn. It is owned
// by the orchestrator and extended (never mutated in place) as execution
// proceeds down the agent chain.
type AgentContext struct {
	ChatID          string
	UserID          string
	UserMessage     string
	Messages        []Message
	PreviousResults []AgentResult
	Attachments     []Attachment
	Metadata        map[string]any
}

// WithResult returns a copy of the context with r appended to PreviousResults.
// The original context is left untouched.
func (c AgentContext) WithResult(r AgentResult) AgentContext {
	prev := make([]AgentResult, 0, len(c.PreviousResults)+1)
	prev = append(prev, c.PreviousResults...)
	prev = append(prev, r)
	c.PreviousResults = prev
	return c
}

// RoutingDecision is the router's plan for one turn.
// Invariant: RequiresCollaboration == (len(SelectedAgents) > 1).
type RoutingDecision struct {
	SelectedAgents        []AgentType `json:"selected_agents"`
	RequiresCollaboration bool        `json:"requires_collaboration"`
	Intent                Intent      `json:"intent"`
	Reason                string      `json:"reason"` // informational only, never parsed
}
