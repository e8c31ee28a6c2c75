package orchestrator

import (
	"context"
	"strings"

	"legalmind/internal/domain"
	"legalmind/internal/usecase/intent"
	"legalmind/internal/usecase/routing"
)

// Pipeline is the top-level entry point for one chat turn: classify the
// message, route it, and orchestrate the resulting plan.
type Pipeline struct {
	classifier *intent.Classifier
	router     *routing.Router
	orch       *Orchestrator
}

func NewPipeline(classifier *intent.Classifier, router *routing.Router, orch *Orchestrator) *Pipeline {
	return &Pipeline{classifier: classifier, router: router, orch: orch}
}

// Request is one inbound chat turn.
type Request struct {
	ChatID      string
	UserID      string
	Message     string
	History     []domain.Message
	Attachments []domain.Attachment
}

// Respond handles one turn without streaming.
func (p *Pipeline) Respond(ctx context.Context, req Request) (Response, error) {
	return p.respond(ctx, req, nil)
}

// RespondStream handles one turn, forwarding live events to sink.
func (p *Pipeline) RespondStream(ctx context.Context, req Request, sink domain.StreamSink) (Response, error) {
	return p.respond(ctx, req, sink)
}

func (p *Pipeline) respond(ctx context.Context, req Request, sink domain.StreamSink) (Response, error) {
	if strings.TrimSpace(req.Message) == "" {
		return Response{}, domain.NewDomainError("Pipeline.Respond", domain.ErrInvalidInput, "empty message")
	}

	classified := p.classifier.Classify(ctx, req.Message)
	plan := p.router.Route(classified, req.Message)

	actx := domain.AgentContext{
		ChatID:      req.ChatID,
		UserID:      req.UserID,
		UserMessage: req.Message,
		Messages:    req.History,
		Attachments: req.Attachments,
	}
	if sink == nil {
		return p.orch.Orchestrate(ctx, actx, plan)
	}
	return p.orch.OrchestrateStream(ctx, actx, plan, sink)
}
