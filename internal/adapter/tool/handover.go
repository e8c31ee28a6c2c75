package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/oklog/ulid/v2"

	"legalmind/internal/domain"
)

type handoverParams struct {
	TargetAgent string `json:"target_agent"`
	Reason      string `json:"reason"`
	Question    string `json:"question"`
}

var handoverParamsSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"target_agent": {
			"type": "string",
			"description": "The specialist to hand the question to",
			"enum": ["legal-research", "case-analysis", "legal-advisor", "document-draft"]
		},
		"reason": {
			"type": "string",
			"description": "Why this specialist is better suited"
		},
		"question": {
			"type": "string",
			"description": "The question to forward, rephrased for the target specialist"
		}
	},
	"required": ["target_agent", "reason", "question"]
}`)

// HandoverTool lets an agent flag that another specialist should take over.
// The tool records the request; the orchestration layer decides whether a
// follow-up turn acts on it.
type HandoverTool struct {
	self   domain.AgentType
	logger *slog.Logger
}

// NewHandoverTool creates the handover tool scoped to the agent that owns
// the bundle, so an agent can never hand a question to itself.
func NewHandoverTool(self domain.AgentType, logger *slog.Logger) *HandoverTool {
	return &HandoverTool{self: self, logger: logger}
}

func (t *HandoverTool) Name() string { return "handover" }

func (t *HandoverTool) Description() string {
	return "Hand the current question over to a better-suited specialist agent."
}

func (t *HandoverTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  handoverParamsSchema,
	}
}

func (t *HandoverTool) Execute(_ context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	var p handoverParams
	if err := json.Unmarshal(params, &p); err != nil {
		return &domain.ToolResult{IsError: true, Content: fmt.Sprintf("invalid parameters: %v", err)}, nil
	}

	target := domain.AgentType(p.TargetAgent)
	if !target.Valid() {
		return &domain.ToolResult{IsError: true, Content: fmt.Sprintf("unknown agent %q", p.TargetAgent)}, nil
	}
	if target == t.self {
		return &domain.ToolResult{IsError: true, Content: "cannot hand a question over to yourself"}, nil
	}

	requestID := ulid.Make().String()
	t.logger.Info("handover requested",
		"request_id", requestID,
		"from", t.self,
		"to", target,
		"reason", p.Reason,
	)

	return &domain.ToolResult{
		Content: fmt.Sprintf(
			"Handover request %s recorded: %s will be consulted. Summarize what you found so far and note that %s continues from here.",
			requestID, target, target,
		),
	}, nil
}
